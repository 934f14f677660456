package matcher

import (
	"bytes"
	"errors"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/seek/pkg/types"
)

// Literal matches any of a fixed set of strings.
//
// An Aho-Corasick automaton answers "does this span contain any literal" in
// one pass; match boundaries are then resolved leftmost-longest. Case
// folding, when enabled, is ASCII only so byte offsets are preserved.
type Literal struct {
	literals        [][]byte
	ac              *ahocorasick.Matcher
	caseInsensitive bool
}

// NewLiteral builds a matcher for the given literals.
func NewLiteral(literals []string, caseInsensitive bool) (*Literal, error) {
	if len(literals) == 0 {
		return nil, errors.New("no literals provided")
	}

	l := &Literal{caseInsensitive: caseInsensitive}
	keys := make([]string, 0, len(literals))
	for _, lit := range literals {
		if lit == "" {
			return nil, errors.New("empty literal")
		}
		b := []byte(lit)
		if caseInsensitive {
			b = asciiLower(b)
		}
		l.literals = append(l.literals, b)
		keys = append(keys, string(b))
	}
	l.ac = ahocorasick.NewStringMatcher(keys)
	return l, nil
}

// IsMatch reports whether haystack contains any literal.
func (l *Literal) IsMatch(haystack []byte) (bool, error) {
	return len(l.ac.MatchThreadSafe(l.fold(haystack))) > 0, nil
}

// FindIter calls fn for every leftmost-longest literal occurrence.
func (l *Literal) FindIter(haystack []byte, fn func(types.Match) bool) error {
	hay := l.fold(haystack)
	if len(l.ac.MatchThreadSafe(hay)) == 0 {
		return nil
	}

	for at := 0; at < len(hay); {
		start, length := -1, 0
		for _, lit := range l.literals {
			i := bytes.Index(hay[at:], lit)
			if i < 0 {
				continue
			}
			if start < 0 || i < start || (i == start && len(lit) > length) {
				start, length = i, len(lit)
			}
		}
		if start < 0 {
			return nil
		}
		m := types.Match{Start: at + start, End: at + start + length}
		if !fn(m) {
			return nil
		}
		at = m.End
	}
	return nil
}

func (l *Literal) fold(b []byte) []byte {
	if !l.caseInsensitive {
		return b
	}
	return asciiLower(b)
}

func asciiLower(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
