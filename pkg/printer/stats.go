// Package printer renders search results. Each printer owns an output
// writer for its lifetime and hands out a short-lived sink per search.
package printer

import "time"

// Stats holds aggregate statistics for one or more searches.
type Stats struct {
	Elapsed           time.Duration
	Searches          uint64
	SearchesWithMatch uint64
	BytesSearched     uint64
	BytesPrinted      uint64
	MatchedLines      uint64
	Matches           uint64
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Elapsed += other.Elapsed
	s.Searches += other.Searches
	s.SearchesWithMatch += other.SearchesWithMatch
	s.BytesSearched += other.BytesSearched
	s.BytesPrinted += other.BytesPrinted
	s.MatchedLines += other.MatchedLines
	s.Matches += other.Matches
}

// searchStats builds the statistics for a single completed search.
func searchStats(elapsed time.Duration, bytesSearched, bytesPrinted, lines, matches uint64) Stats {
	st := Stats{
		Elapsed:       elapsed,
		Searches:      1,
		BytesSearched: bytesSearched,
		BytesPrinted:  bytesPrinted,
		MatchedLines:  lines,
		Matches:       matches,
	}
	if lines > 0 {
		st.SearchesWithMatch = 1
	}
	return st
}
