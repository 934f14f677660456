// Package matcher provides the pattern matching engines used by the search
// worker. Engines operate on a single line (or any byte span) and report
// match boundaries as byte offsets.
package matcher

import "github.com/praetorian-inc/seek/pkg/types"

// Matcher tests and iterates matches over a byte span.
//
// Implementations must be safe for concurrent use once constructed, so a
// compiled matcher can be shared read-only between search workers.
type Matcher interface {
	// IsMatch reports whether haystack contains at least one match.
	IsMatch(haystack []byte) (bool, error)

	// FindIter calls fn for every non-overlapping match in haystack, in
	// order. Iteration stops early when fn returns false.
	FindIter(haystack []byte, fn func(types.Match) bool) error
}

// Count returns the number of non-overlapping matches in haystack.
func Count(m Matcher, haystack []byte) (int, error) {
	n := 0
	err := m.FindIter(haystack, func(types.Match) bool {
		n++
		return true
	})
	return n, err
}

// FindAll collects every match in haystack.
func FindAll(m Matcher, haystack []byte) ([]types.Match, error) {
	var matches []types.Match
	err := m.FindIter(haystack, func(mat types.Match) bool {
		matches = append(matches, mat)
		return true
	})
	return matches, err
}
