package worker

import "github.com/praetorian-inc/seek/pkg/printer"

// SearchResult is the outcome of searching one subject.
//
// Printed output is the main product of a search; the result carries only
// whether anything matched and, if the printer collected them, statistics.
type SearchResult struct {
	hasMatch bool
	stats    *printer.Stats
}

// HasMatch reports whether the search found a match.
func (r SearchResult) HasMatch() bool {
	return r.hasMatch
}

// Stats returns statistics for the search, or nil when the printer did not
// collect them.
func (r SearchResult) Stats() *printer.Stats {
	return r.stats
}
