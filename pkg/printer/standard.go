package printer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/praetorian-inc/seek/pkg/matcher"
	"github.com/praetorian-inc/seek/pkg/searcher"
	"github.com/praetorian-inc/seek/pkg/types"
)

// StandardConfig configures the grep-style printer.
type StandardConfig struct {
	// Stats enables per-search statistics.
	Stats bool

	// Path prefixes each line with the path of the subject.
	Path bool

	// Separator sits between the path, line number and line ("" = ":").
	Separator string

	// Colors are the formatters used when the writer supports color.
	Colors ColorSpecs
}

// Standard prints matching lines in the classic grep format:
//
//	path:line:text
type Standard struct {
	config  StandardConfig
	wtr     WriteColor
	colors  ColorSpecs
	counter counter
	matches []types.Match
}

// NewStandard creates a standard printer writing to wtr.
func NewStandard(cfg StandardConfig, wtr WriteColor) *Standard {
	if cfg.Separator == "" {
		cfg.Separator = ":"
	}
	return &Standard{
		config: cfg,
		wtr:    wtr,
		colors: cfg.Colors.apply(wtr.SupportsColor()),
	}
}

// Writer returns the underlying writer.
func (p *Standard) Writer() WriteColor {
	return p.wtr
}

// SinkWithPath returns a sink for a search of path. The path is only used
// for display.
func (p *Standard) SinkWithPath(m matcher.Matcher, path string) *StandardSink {
	p.counter.reset(p.wtr)
	return &StandardSink{printer: p, matcher: m, path: path}
}

// StandardSink is the per-search sink of a Standard printer.
type StandardSink struct {
	printer      *Standard
	matcher      matcher.Matcher
	path         string
	start        time.Time
	matchedLines uint64
	matches      uint64
	stats        *Stats
}

// HasMatch reports whether the search found a match.
func (s *StandardSink) HasMatch() bool {
	return s.matchedLines > 0
}

// Stats returns the search statistics, or nil when they were not enabled.
func (s *StandardSink) Stats() *Stats {
	if s.stats == nil {
		return nil
	}
	st := *s.stats
	return &st
}

// Begin implements searcher.Sink.
func (s *StandardSink) Begin() (bool, error) {
	s.start = time.Now()
	return true, nil
}

// Matched implements searcher.Sink.
func (s *StandardSink) Matched(sm *searcher.SinkMatch) (bool, error) {
	p := s.printer
	s.matchedLines++

	line := sm.Line()
	p.matches = p.matches[:0]
	if p.config.Stats || p.wtr.SupportsColor() {
		err := s.matcher.FindIter(line, func(m types.Match) bool {
			p.matches = append(p.matches, m)
			return true
		})
		if err != nil {
			return false, err
		}
		s.matches += uint64(len(p.matches))
	}

	if err := s.writeLine(sm.LineNumber, line); err != nil {
		return false, err
	}
	return true, nil
}

func (s *StandardSink) writeLine(lineNumber uint64, line []byte) error {
	p := s.printer
	w := &p.counter
	sep := p.config.Separator

	if p.config.Path && s.path != "" {
		if _, err := fmt.Fprint(w, p.colors.Path.Sprint(s.path), sep); err != nil {
			return err
		}
	}
	if lineNumber > 0 {
		num := strconv.FormatUint(lineNumber, 10)
		if _, err := fmt.Fprint(w, p.colors.Line.Sprint(num), sep); err != nil {
			return err
		}
	}

	if !p.wtr.SupportsColor() || len(p.matches) == 0 {
		if _, err := w.Write(line); err != nil {
			return err
		}
	} else {
		last := 0
		for _, m := range p.matches {
			if m.IsEmpty() {
				continue
			}
			if _, err := w.Write(line[last:m.Start]); err != nil {
				return err
			}
			if _, err := fmt.Fprint(w, p.colors.Match.Sprint(string(line[m.Start:m.End]))); err != nil {
				return err
			}
			last = m.End
		}
		if _, err := w.Write(line[last:]); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

// Finish implements searcher.Sink.
func (s *StandardSink) Finish(f *searcher.SinkFinish) error {
	p := s.printer
	if f.BinaryByteOffset >= 0 && s.HasMatch() {
		label := s.path
		if label == "" {
			label = types.StdinPath
		}
		_, err := fmt.Fprintf(&p.counter,
			"%s: WARNING: stopped searching binary file after match (found \"\\0\" byte around offset %d)\n",
			label, f.BinaryByteOffset)
		if err != nil {
			return err
		}
	}

	if p.config.Stats {
		st := searchStats(time.Since(s.start), f.ByteCount, p.counter.count, s.matchedLines, s.matches)
		s.stats = &st
	}
	return nil
}
