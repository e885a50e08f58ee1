package source

import (
	"context"
	"time"
)

// Source is the core interface implemented by every upstream fund data
// provider. A source knows how to fetch and normalize one provider's view
// of a single fund; it owns all URL, header, and parsing concerns.
//
// Implementations must be stateless and safe for concurrent use. Fetch must
// honor ctx (the orchestrator installs the per-source timeout on it) and
// return a typed *Error on failure rather than a zero-valued Snapshot, so
// that "provider failed" stays distinguishable from "provider answered but
// had no data".
type Source interface {
	// Fetch retrieves this provider's partial record for the given fund code.
	Fetch(ctx context.Context, code string) (Snapshot, error)

	// Name returns the stable identifier for this source, used for merge
	// priority ordering and the per-source availability map.
	Name() string
}

// Snapshot is one provider's normalized view of a fund. Every field except
// Source and FetchedAt is optional; absence is the zero value. Upstream
// providers do not distinguish a missing value from a literal zero, so the
// merge layer treats v <= 0 as absent (see merge.absent).
type Snapshot struct {
	Name string // fund short name
	Type string // fund category, e.g. "混合型"

	// Published valuation, confirmed by the fund company.
	NAV       float64 // unit net asset value
	NAVDate   string  // date the NAV was published, e.g. "2024-01-01"
	NAVChange float64 // day change percent for the published NAV

	// Intraday estimate, provisional until the NAV is published.
	Estimate       float64
	EstimateTime   string // estimate timestamp as reported upstream
	EstimateChange float64

	Source    string // name of the source that produced this snapshot
	FetchedAt time.Time
}

// Empty reports whether the snapshot carries no usable data. A source can
// succeed and still have nothing to say, for example a brand-new fund with no
// published history yet. Change percents are ignored here: a change with no
// level to anchor it is not usable data.
func (s Snapshot) Empty() bool {
	return s.Name == "" && s.Type == "" &&
		s.NAV <= 0 && s.NAVDate == "" &&
		s.Estimate <= 0 && s.EstimateTime == ""
}
