package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/C-Plusone/fund-app/internal/source"
)

// Coordinator fans one fund code out to every configured source concurrently
// and collects exactly one result per source.
type Coordinator struct {
	sources []source.Source
	timeout time.Duration
}

// New creates a new Coordinator with the given sources. Each fetch is bounded
// by the per-source timeout, so the slowest provider never holds up the batch
// longer than that.
func New(sources []source.Source, timeout time.Duration) *Coordinator {
	return &Coordinator{
		sources: sources,
		timeout: timeout,
	}
}

// FetchAll queries all sources for the given fund code and returns their
// results in arrival order. Failures are recorded in the result rather than
// returned: one provider being down must not hide what the others answered.
func (c *Coordinator) FetchAll(ctx context.Context, code string) []source.Result {
	// Create a channel for collecting results
	resultChan := make(chan source.Result, len(c.sources))

	// WaitGroup to track all worker goroutines
	var wg sync.WaitGroup

	// Launch a goroutine for each source
	for _, s := range c.sources {
		wg.Add(1)
		go func(src source.Source) {
			defer wg.Done()
			resultChan <- c.fetchOne(ctx, src, code)
		}(s)
	}

	// Close the result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]source.Result, 0, len(c.sources))
	for result := range resultChan {
		if result.Err != nil {
			slog.Warn("source fetch failed",
				"source", result.Source,
				"code", code,
				"error", result.Err)
		}
		results = append(results, result)
	}

	return results
}

// fetchOne runs a single source under the per-source timeout. A panicking
// source is converted into an ordinary failed result so it cannot take the
// process down.
func (c *Coordinator) fetchOne(ctx context.Context, src source.Source, code string) (result source.Result) {
	result.Source = src.Name()

	defer func() {
		if r := recover(); r != nil {
			result.Err = source.NewInternalError(src.Name(), fmt.Sprintf("source panicked: %v", r))
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result.Snapshot, result.Err = src.Fetch(fetchCtx, code)

	return result
}
