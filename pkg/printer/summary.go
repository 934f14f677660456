package printer

import (
	"fmt"
	"time"

	"github.com/praetorian-inc/seek/pkg/matcher"
	"github.com/praetorian-inc/seek/pkg/searcher"
)

// SummaryKind selects what the summary printer reports per search.
type SummaryKind int

const (
	// SummaryCount prints the number of matched lines.
	SummaryCount SummaryKind = iota
	// SummaryCountMatches prints the number of matches.
	SummaryCountMatches
	// SummaryPathWithMatch prints the path of subjects with a match.
	SummaryPathWithMatch
	// SummaryPathWithoutMatch prints the path of subjects without a match.
	SummaryPathWithoutMatch
	// SummaryQuiet prints nothing.
	SummaryQuiet
)

// String returns the name of the kind.
func (k SummaryKind) String() string {
	switch k {
	case SummaryCount:
		return "count"
	case SummaryCountMatches:
		return "count-matches"
	case SummaryPathWithMatch:
		return "path-with-match"
	case SummaryPathWithoutMatch:
		return "path-without-match"
	case SummaryQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// quitEarly reports whether one match is enough to decide the output.
func (k SummaryKind) quitEarly() bool {
	return k == SummaryPathWithMatch || k == SummaryPathWithoutMatch || k == SummaryQuiet
}

// SummaryConfig configures the summary printer.
type SummaryConfig struct {
	Kind SummaryKind

	// Stats enables per-search statistics. Searches are then never cut short.
	Stats bool

	// Path prefixes counts with the subject path.
	Path bool

	// Separator sits between path and count ("" = ":").
	Separator string

	Colors ColorSpecs
}

// Summary prints one aggregate line per search, such as a count or a path.
type Summary struct {
	config  SummaryConfig
	wtr     WriteColor
	colors  ColorSpecs
	counter counter
}

// NewSummary creates a summary printer writing to wtr.
func NewSummary(cfg SummaryConfig, wtr WriteColor) *Summary {
	if cfg.Separator == "" {
		cfg.Separator = ":"
	}
	return &Summary{
		config: cfg,
		wtr:    wtr,
		colors: cfg.Colors.apply(wtr.SupportsColor()),
	}
}

// Writer returns the underlying writer.
func (p *Summary) Writer() WriteColor {
	return p.wtr
}

// SinkWithPath returns a sink for a search of path.
func (p *Summary) SinkWithPath(m matcher.Matcher, path string) *SummarySink {
	p.counter.reset(p.wtr)
	return &SummarySink{printer: p, matcher: m, path: path}
}

// SummarySink is the per-search sink of a Summary printer.
type SummarySink struct {
	printer      *Summary
	matcher      matcher.Matcher
	path         string
	start        time.Time
	matchedLines uint64
	matches      uint64
	stats        *Stats
}

// HasMatch reports whether the search found a match.
func (s *SummarySink) HasMatch() bool {
	return s.matchedLines > 0
}

// Stats returns the search statistics, or nil when they were not enabled.
func (s *SummarySink) Stats() *Stats {
	if s.stats == nil {
		return nil
	}
	st := *s.stats
	return &st
}

// Begin implements searcher.Sink.
func (s *SummarySink) Begin() (bool, error) {
	s.start = time.Now()
	return true, nil
}

// Matched implements searcher.Sink.
func (s *SummarySink) Matched(sm *searcher.SinkMatch) (bool, error) {
	cfg := s.printer.config
	s.matchedLines++

	if cfg.Stats || cfg.Kind == SummaryCountMatches {
		n, err := matcher.Count(s.matcher, sm.Line())
		if err != nil {
			return false, err
		}
		s.matches += uint64(n)
	}
	return cfg.Stats || !cfg.Kind.quitEarly(), nil
}

// Finish implements searcher.Sink.
func (s *SummarySink) Finish(f *searcher.SinkFinish) error {
	p := s.printer
	var err error
	switch p.config.Kind {
	case SummaryCount:
		if s.HasMatch() {
			err = s.writeCount(s.matchedLines)
		}
	case SummaryCountMatches:
		if s.HasMatch() {
			err = s.writeCount(s.matches)
		}
	case SummaryPathWithMatch:
		if s.HasMatch() {
			err = s.writePath()
		}
	case SummaryPathWithoutMatch:
		if !s.HasMatch() {
			err = s.writePath()
		}
	case SummaryQuiet:
	}
	if err != nil {
		return err
	}

	if p.config.Stats {
		st := searchStats(time.Since(s.start), f.ByteCount, p.counter.count, s.matchedLines, s.matches)
		s.stats = &st
	}
	return nil
}

func (s *SummarySink) writeCount(n uint64) error {
	p := s.printer
	if p.config.Path && s.path != "" {
		_, err := fmt.Fprintf(&p.counter, "%s%s%d\n", p.colors.Path.Sprint(s.path), p.config.Separator, n)
		return err
	}
	_, err := fmt.Fprintf(&p.counter, "%d\n", n)
	return err
}

func (s *SummarySink) writePath() error {
	p := s.printer
	_, err := fmt.Fprintf(&p.counter, "%s\n", p.colors.Path.Sprint(s.path))
	return err
}
