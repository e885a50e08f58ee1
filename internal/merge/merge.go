package merge

import (
	"sort"
	"time"

	"github.com/C-Plusone/fund-app/internal/source"
)

// Record is the fully resolved view of one fund, assembled from whatever the
// sources answered. It is the unit the cache stores and the API serves.
type Record struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`

	// Published valuation, confirmed by the fund company.
	NAV       float64 `json:"nav"`
	NAVDate   string  `json:"navDate"`
	NAVChange float64 `json:"navChange"`

	// Intraday estimate, provisional until the next NAV is published.
	Estimate       float64 `json:"estimate"`
	EstimateTime   string  `json:"estimateTime"`
	EstimateChange float64 `json:"estimateChange"`

	// Best available value right now: the published NAV when there is one,
	// otherwise the estimate. DayChange follows the same choice.
	CurrentValue float64 `json:"currentValue"`
	DayChange    float64 `json:"dayChange"`

	// Sources lists the sources that contributed data, sorted by name.
	Sources []string `json:"sources"`

	UpdatedAt time.Time `json:"updateTime"`
}

// Policy resolves source snapshots into a Record using three independent
// priority orders. Identity fields, the estimate group and the published
// group each fall back through their own ordering, so the best provider for
// names does not have to be the best provider for prices.
type Policy struct {
	identity      []string
	estimate      []string
	authoritative []string

	now func() time.Time
}

// NewPolicy creates a merge policy. identity and estimate are priority
// orders, highest first. authoritative lists the sources whose NAV counts as
// published, in priority order; sources not listed can never supply one.
func NewPolicy(identity, estimate, authoritative []string) *Policy {
	return &Policy{
		identity:      identity,
		estimate:      estimate,
		authoritative: authoritative,
		now:           time.Now,
	}
}

// absent reports whether a price level should be treated as missing. Zero and
// negative are deliberately conflated with absence: the upstream feeds send
// "0" and "" interchangeably for funds with no valuation, and no real fund
// trades at or below zero.
func absent(v float64) bool {
	return v <= 0
}

// Merge resolves one record for a fund code from the given results. It never
// fails: with no usable results it returns a record carrying only the code,
// so a total provider outage is representable and cacheable like any other
// answer.
func (p *Policy) Merge(code string, results []source.Result) Record {
	bySource := make(map[string]source.Snapshot, len(results))
	contributors := make([]string, 0, len(results))

	for _, result := range results {
		if !result.OK() || result.Snapshot.Empty() {
			continue
		}
		bySource[result.Source] = result.Snapshot
		contributors = append(contributors, result.Source)
	}
	sort.Strings(contributors)

	record := Record{
		Code:      code,
		Sources:   contributors,
		UpdatedAt: p.now(),
	}

	// Identity fields fall back independently: one source may know the name
	// while only another knows the category.
	for _, name := range p.identity {
		if record.Name != "" {
			break
		}
		if snap, ok := bySource[name]; ok && snap.Name != "" {
			record.Name = snap.Name
		}
	}
	for _, name := range p.identity {
		if record.Type != "" {
			break
		}
		if snap, ok := bySource[name]; ok && snap.Type != "" {
			record.Type = snap.Type
		}
	}

	// The estimate group travels together: the timestamp and change percent
	// are only meaningful next to the level they were computed with.
	for _, name := range p.estimate {
		snap, ok := bySource[name]
		if !ok || absent(snap.Estimate) {
			continue
		}
		record.Estimate = snap.Estimate
		record.EstimateTime = snap.EstimateTime
		record.EstimateChange = snap.EstimateChange
		break
	}

	// Published values only come from sources configured as authoritative,
	// so an estimate-only feed can never pass its numbers off as the fund
	// company's.
	for _, name := range p.authoritative {
		snap, ok := bySource[name]
		if !ok || absent(snap.NAV) {
			continue
		}
		record.NAV = snap.NAV
		record.NAVDate = snap.NAVDate
		record.NAVChange = snap.NAVChange
		break
	}

	// A published value beats an estimate.
	switch {
	case !absent(record.NAV):
		record.CurrentValue = record.NAV
		record.DayChange = record.NAVChange
	case !absent(record.Estimate):
		record.CurrentValue = record.Estimate
		record.DayChange = record.EstimateChange
	}

	return record
}
