package types

// Match is a byte range [Start, End) - half-open interval.
type Match struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the match.
func (m Match) Len() int {
	return m.End - m.Start
}

// IsEmpty reports whether the match covers no bytes.
func (m Match) IsEmpty() bool {
	return m.Start >= m.End
}

// Offset returns the match shifted right by n bytes.
func (m Match) Offset(n int) Match {
	return Match{Start: m.Start + n, End: m.End + n}
}
