package source

// Result is the outcome of one source's fetch for one fund code. It is sent
// through channels from the coordinator's worker goroutines back to the
// caller, which correlates by Source name rather than by position.
type Result struct {
	// Source is the name of the source that produced this result. Always set,
	// even when the fetch failed.
	Source string

	// Snapshot is the provider's partial record. Only meaningful when Err is
	// nil; an all-zero Snapshot with Err == nil means the provider answered
	// but had nothing for this fund.
	Snapshot Snapshot

	// Err is the typed failure for this source, nil on success. A non-nil Err
	// never aborts sibling sources.
	Err error
}

// OK reports whether the source produced a usable snapshot.
func (r Result) OK() bool {
	return r.Err == nil
}
