package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/C-Plusone/fund-app/internal/api"
	"github.com/C-Plusone/fund-app/internal/batch"
	"github.com/C-Plusone/fund-app/internal/cache"
	"github.com/C-Plusone/fund-app/internal/config"
	"github.com/C-Plusone/fund-app/internal/coordinator"
	"github.com/C-Plusone/fund-app/internal/merge"
	"github.com/C-Plusone/fund-app/internal/source"
	"github.com/C-Plusone/fund-app/internal/source/antfund"
	"github.com/C-Plusone/fund-app/internal/source/eastmoney"
	"github.com/C-Plusone/fund-app/internal/source/tiantian"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	// Create context cancelled on interrupt for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Upstream sources, fanned out per lookup
	sources := []source.Source{
		tiantian.New(cfg.TiantianBaseURL),
		eastmoney.NewNAVSource(cfg.EastmoneyNAVBaseURL),
		eastmoney.NewDetailSource(cfg.EastmoneyDetailBaseURL),
		antfund.New(cfg.AntfundBaseURL),
	}

	coord := coordinator.New(sources, cfg.SourceTimeout)
	policy := merge.NewPolicy(cfg.IdentityPriority, cfg.EstimatePriority, cfg.AuthoritativeSources)

	records := cache.New(cfg.CacheTTL, cfg.CacheMaxEntries, func(ctx context.Context, code string) merge.Record {
		return policy.Merge(code, coord.FetchAll(ctx, code))
	})

	batches := batch.New(records, cfg.BatchMaxCodes, cfg.BatchConcurrency)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.New(records, batches).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// A full-miss batch at the concurrency limit can take several
		// source-timeout rounds, so the write budget is generous.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("fund data server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("received interrupt signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// setupLogging installs the default slog logger at the configured level.
func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
