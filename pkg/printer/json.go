package printer

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/praetorian-inc/seek/pkg/matcher"
	"github.com/praetorian-inc/seek/pkg/searcher"
	"github.com/praetorian-inc/seek/pkg/types"
)

// JSONConfig configures the JSON Lines printer.
type JSONConfig struct {
	// AlwaysBeginEnd emits begin and end messages even for searches without
	// a match.
	AlwaysBeginEnd bool
}

// JSON emits one JSON object per line for every search event: "begin",
// "match" and "end". Statistics are always computed and reported in the
// "end" message.
type JSON struct {
	config  JSONConfig
	wtr     WriteColor
	counter counter
	enc     *json.Encoder
}

// NewJSON creates a JSON printer writing to wtr. Colors are never used.
func NewJSON(cfg JSONConfig, wtr WriteColor) *JSON {
	p := &JSON{config: cfg, wtr: wtr}
	p.counter.reset(wtr)
	p.enc = json.NewEncoder(&p.counter)
	p.enc.SetEscapeHTML(false)
	return p
}

// Writer returns the underlying writer.
func (p *JSON) Writer() WriteColor {
	return p.wtr
}

// SinkWithPath returns a sink for a search of path.
func (p *JSON) SinkWithPath(m matcher.Matcher, path string) *JSONSink {
	p.counter.reset(p.wtr)
	return &JSONSink{printer: p, matcher: m, path: path}
}

// JSONSink is the per-search sink of a JSON printer.
type JSONSink struct {
	printer      *JSON
	matcher      matcher.Matcher
	path         string
	start        time.Time
	begun        bool
	matchedLines uint64
	matches      uint64
	stats        Stats
}

// HasMatch reports whether the search found a match.
func (s *JSONSink) HasMatch() bool {
	return s.matchedLines > 0
}

// Stats returns the search statistics. They are always available.
func (s *JSONSink) Stats() Stats {
	return s.stats
}

// Begin implements searcher.Sink.
func (s *JSONSink) Begin() (bool, error) {
	s.start = time.Now()
	if s.printer.config.AlwaysBeginEnd {
		if err := s.writeBegin(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Matched implements searcher.Sink.
func (s *JSONSink) Matched(sm *searcher.SinkMatch) (bool, error) {
	if err := s.writeBegin(); err != nil {
		return false, err
	}
	s.matchedLines++

	line := sm.Line()
	submatches := []jsonSubMatch{}
	err := s.matcher.FindIter(line, func(m types.Match) bool {
		submatches = append(submatches, jsonSubMatch{
			Match: newJSONData(line[m.Start:m.End]),
			Start: m.Start,
			End:   m.End,
		})
		return true
	})
	if err != nil {
		return false, err
	}
	s.matches += uint64(len(submatches))

	var lineNumber *uint64
	if sm.LineNumber > 0 {
		n := sm.LineNumber
		lineNumber = &n
	}
	msg := jsonMessage{Type: "match", Data: jsonMatch{
		Path:           s.pathData(),
		Lines:          newJSONData(sm.Bytes),
		LineNumber:     lineNumber,
		AbsoluteOffset: sm.AbsoluteByteOffset,
		SubMatches:     submatches,
	}}
	if err := s.printer.enc.Encode(msg); err != nil {
		return false, err
	}
	return true, nil
}

// Finish implements searcher.Sink.
func (s *JSONSink) Finish(f *searcher.SinkFinish) error {
	p := s.printer
	s.stats = searchStats(time.Since(s.start), f.ByteCount, 0, s.matchedLines, s.matches)
	if !s.begun {
		return nil
	}

	var binaryOffset *int64
	if f.BinaryByteOffset >= 0 {
		off := f.BinaryByteOffset
		binaryOffset = &off
	}

	// The end message reports the bytes printed before it.
	s.stats.BytesPrinted = p.counter.count
	msg := jsonMessage{Type: "end", Data: jsonEnd{
		Path:         s.pathData(),
		BinaryOffset: binaryOffset,
		Stats:        newJSONStats(s.stats),
	}}
	if err := p.enc.Encode(msg); err != nil {
		return err
	}
	s.stats.BytesPrinted = p.counter.count
	return nil
}

func (s *JSONSink) writeBegin() error {
	if s.begun {
		return nil
	}
	s.begun = true
	return s.printer.enc.Encode(jsonMessage{Type: "begin", Data: jsonBegin{Path: s.pathData()}})
}

func (s *JSONSink) pathData() *jsonData {
	if s.path == "" {
		return nil
	}
	d := newJSONData([]byte(s.path))
	return &d
}

type jsonMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type jsonBegin struct {
	Path *jsonData `json:"path"`
}

type jsonMatch struct {
	Path           *jsonData      `json:"path"`
	Lines          jsonData       `json:"lines"`
	LineNumber     *uint64        `json:"line_number"`
	AbsoluteOffset uint64         `json:"absolute_offset"`
	SubMatches     []jsonSubMatch `json:"submatches"`
}

type jsonSubMatch struct {
	Match jsonData `json:"match"`
	Start int      `json:"start"`
	End   int      `json:"end"`
}

type jsonEnd struct {
	Path         *jsonData `json:"path"`
	BinaryOffset *int64    `json:"binary_offset"`
	Stats        jsonStats `json:"stats"`
}

// jsonData holds UTF-8 text as "text" and anything else base64 encoded
// as "bytes".
type jsonData struct {
	Text  *string `json:"text,omitempty"`
	Bytes []byte  `json:"bytes,omitempty"`
}

func newJSONData(b []byte) jsonData {
	if utf8.Valid(b) {
		s := string(b)
		return jsonData{Text: &s}
	}
	return jsonData{Bytes: append([]byte(nil), b...)}
}

type jsonDuration struct {
	Secs  int64  `json:"secs"`
	Nanos int64  `json:"nanos"`
	Human string `json:"human"`
}

type jsonStats struct {
	Elapsed           jsonDuration `json:"elapsed"`
	Searches          uint64       `json:"searches"`
	SearchesWithMatch uint64       `json:"searches_with_match"`
	BytesSearched     uint64       `json:"bytes_searched"`
	BytesPrinted      uint64       `json:"bytes_printed"`
	MatchedLines      uint64       `json:"matched_lines"`
	Matches           uint64       `json:"matches"`
}

func newJSONStats(st Stats) jsonStats {
	return jsonStats{
		Elapsed: jsonDuration{
			Secs:  int64(st.Elapsed / time.Second),
			Nanos: int64(st.Elapsed % time.Second),
			Human: fmt.Sprintf("%.6fs", st.Elapsed.Seconds()),
		},
		Searches:          st.Searches,
		SearchesWithMatch: st.SearchesWithMatch,
		BytesSearched:     st.BytesSearched,
		BytesPrinted:      st.BytesPrinted,
		MatchedLines:      st.MatchedLines,
		Matches:           st.Matches,
	}
}
