package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/C-Plusone/fund-app/internal/merge"
)

// Getter is the lookup a batch runs against, satisfied by the record cache.
type Getter interface {
	GetOrFetch(ctx context.Context, code string) (merge.Record, error)
}

// Validation failures for a batch request. Callers match them with errors.Is.
var (
	ErrNoCodes      = errors.New("no fund codes given")
	ErrTooManyCodes = errors.New("too many fund codes")
)

// Outcome is the per-code result of a batch lookup. Err is set only when the
// caller's context ended before the lookup finished; provider failures are
// already folded into the record.
type Outcome struct {
	Record merge.Record
	Err    error
}

// Coordinator resolves a batch of fund codes against the cache with a
// bounded number of concurrent lookups.
type Coordinator struct {
	getter      Getter
	maxCodes    int
	concurrency int
}

// New creates a batch coordinator. maxCodes caps how many codes one batch
// may ask for; concurrency caps how many lookups run at once.
func New(getter Getter, maxCodes, concurrency int) *Coordinator {
	return &Coordinator{
		getter:      getter,
		maxCodes:    maxCodes,
		concurrency: concurrency,
	}
}

// GetMany resolves every distinct code in the batch and returns one outcome
// per distinct code. Codes are isolated from each other: a slow or failing
// code never changes what its siblings return. The cap applies to the
// request as sent, before duplicates are collapsed.
func (b *Coordinator) GetMany(ctx context.Context, codes []string) (map[string]Outcome, error) {
	if len(codes) == 0 {
		return nil, ErrNoCodes
	}
	if len(codes) > b.maxCodes {
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrTooManyCodes, len(codes), b.maxCodes)
	}

	distinct := dedupe(codes)

	outcomes := make(map[string]Outcome, len(distinct))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for _, code := range distinct {
		g.Go(func() error {
			record, err := b.getter.GetOrFetch(ctx, code)

			mu.Lock()
			outcomes[code] = Outcome{Record: record, Err: err}
			mu.Unlock()

			// Failures stay in the outcome map; returning one here would
			// cancel the sibling lookups.
			return nil
		})
	}

	// Workers never return an error; Wait is just the join point.
	_ = g.Wait()

	return outcomes, nil
}

// dedupe returns the distinct codes in first-seen order.
func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	distinct := make([]string, 0, len(codes))

	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		distinct = append(distinct, code)
	}

	return distinct
}
