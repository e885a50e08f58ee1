package api

import (
	"context"
	"net/http"

	"github.com/C-Plusone/fund-app/internal/batch"
	"github.com/C-Plusone/fund-app/internal/merge"
)

// RecordCache is the cache surface the server reads single funds from.
type RecordCache interface {
	GetOrFetch(ctx context.Context, code string) (merge.Record, error)
	Len() int
}

// Batcher resolves a batch of fund codes with bounded concurrency.
type Batcher interface {
	GetMany(ctx context.Context, codes []string) (map[string]batch.Outcome, error)
}

// Server exposes the fund data HTTP API.
type Server struct {
	records RecordCache
	batches Batcher
}

// New creates an API server backed by the given cache and batch coordinator.
func New(records RecordCache, batches Batcher) *Server {
	return &Server{
		records: records,
		batches: batches,
	}
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/fund/{code}", s.handleFund)
	mux.HandleFunc("GET /api/funds", s.handleFunds)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	var handler http.Handler = mux
	handler = withJSONHeaders(handler)
	handler = logRequests(handler)
	handler = recoverPanic(handler)

	return handler
}
