package matcher

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/seek/pkg/types"
)

// DefaultMatchTimeout bounds a single regexp2 evaluation to prevent
// catastrophic backtracking from hanging a search.
const DefaultMatchTimeout = 5 * time.Second

// RegexpConfig configures a Regexp matcher.
type RegexpConfig struct {
	// CaseInsensitive enables case-insensitive matching.
	CaseInsensitive bool

	// Timeout is the per-evaluation match timeout (0 = DefaultMatchTimeout).
	Timeout time.Duration
}

// Regexp is a regex matcher backed by regexp2.
//
// regexp2 reports positions in runes; Regexp converts them to byte offsets
// before handing them to callers.
type Regexp struct {
	pattern string
	re      *regexp2.Regexp
}

// NewRegexp compiles pattern.
func NewRegexp(pattern string, cfg RegexpConfig) (*Regexp, error) {
	opts := regexp2.RegexOptions(regexp2.RE2 | regexp2.Multiline)
	if cfg.CaseInsensitive {
		opts |= regexp2.IgnoreCase
	}

	// Try RE2 mode first, then fall back to the Perl-compatible syntax for
	// features like lookaround.
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		fallback := regexp2.RegexOptions(regexp2.None)
		if cfg.CaseInsensitive {
			fallback |= regexp2.IgnoreCase
		}
		re, err = regexp2.Compile(pattern, fallback)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	re.MatchTimeout = timeout

	return &Regexp{pattern: pattern, re: re}, nil
}

// IsMatch reports whether haystack contains a match.
func (r *Regexp) IsMatch(haystack []byte) (bool, error) {
	ok, err := r.re.MatchString(string(haystack))
	if err != nil {
		return false, fmt.Errorf("matching %q: %w", r.pattern, err)
	}
	return ok, nil
}

// FindIter calls fn for every match in haystack.
func (r *Regexp) FindIter(haystack []byte, fn func(types.Match) bool) error {
	s := string(haystack)
	m, err := r.re.FindStringMatch(s)
	if err != nil {
		return fmt.Errorf("matching %q: %w", r.pattern, err)
	}
	if m == nil {
		return nil
	}

	offsets := runeOffsets(s)
	for m != nil {
		start, end := m.Index, m.Index+m.Length
		if offsets != nil {
			start, end = offsets[start], offsets[end]
		}
		if !fn(types.Match{Start: start, End: end}) {
			return nil
		}
		m, err = r.re.FindNextMatch(m)
		if err != nil {
			return fmt.Errorf("matching %q: %w", r.pattern, err)
		}
	}
	return nil
}

// runeOffsets maps rune indexes to byte offsets, with one extra entry for
// the end of s. It returns nil when s is pure ASCII and the two coincide.
func runeOffsets(s string) []int {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return nil
	}

	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}
