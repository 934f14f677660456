// Package searcher implements the line-oriented scanning engine. A Searcher
// walks the bytes of a file or reader, asks a matcher about each line and
// reports matching lines to a Sink.
package searcher

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/praetorian-inc/seek/pkg/matcher"
)

const (
	// DefaultBufferSize is the initial size of the read buffer.
	DefaultBufferSize = 64 * 1024

	// DefaultMmapThreshold is the smallest file that will be memory mapped.
	DefaultMmapThreshold = 64 * 1024
)

// BinaryDetection controls what happens when a NUL byte is seen.
type BinaryDetection int

const (
	// BinaryNone searches binary data like any other data.
	BinaryNone BinaryDetection = iota
	// BinaryQuit stops the search at the first line containing a NUL byte.
	BinaryQuit
)

// MmapChoice controls whether SearchPath may memory map files.
type MmapChoice int

const (
	// MmapAuto maps regular files at or above the configured threshold.
	MmapAuto MmapChoice = iota
	// MmapNever always reads files through a buffer.
	MmapNever
)

// ParseBinaryDetection parses "quit" or "none".
func ParseBinaryDetection(s string) (BinaryDetection, error) {
	switch strings.ToLower(s) {
	case "", "quit":
		return BinaryQuit, nil
	case "none":
		return BinaryNone, nil
	default:
		return BinaryQuit, fmt.Errorf("unknown binary detection: %s", s)
	}
}

// ParseMmapChoice parses "auto" or "never".
func ParseMmapChoice(s string) (MmapChoice, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return MmapAuto, nil
	case "never":
		return MmapNever, nil
	default:
		return MmapAuto, fmt.Errorf("unknown mmap choice: %s", s)
	}
}

// Config configures a Searcher.
type Config struct {
	// LineNumber enables line counting.
	LineNumber bool

	// BinaryDetection selects the binary data strategy.
	BinaryDetection BinaryDetection

	// Mmap selects whether memory maps are used for path searches.
	Mmap MmapChoice

	// MmapThreshold is the minimum file size to map (0 = DefaultMmapThreshold).
	MmapThreshold int64
}

// DefaultConfig returns the default searcher configuration.
func DefaultConfig() Config {
	return Config{
		LineNumber:      true,
		BinaryDetection: BinaryQuit,
		Mmap:            MmapAuto,
		MmapThreshold:   DefaultMmapThreshold,
	}
}

// Searcher scans bytes for matching lines.
//
// A Searcher reuses its internal buffers across searches and is NOT safe for
// concurrent use. Create one per goroutine.
type Searcher struct {
	config Config
	br     *bufio.Reader
	line   []byte
}

// New creates a Searcher.
func New(cfg Config) *Searcher {
	if cfg.MmapThreshold <= 0 {
		cfg.MmapThreshold = DefaultMmapThreshold
	}
	return &Searcher{
		config: cfg,
		br:     bufio.NewReaderSize(nil, DefaultBufferSize),
	}
}

// Config returns the searcher configuration.
func (s *Searcher) Config() Config {
	return s.config
}

// SearchPath searches the file at path. Regular files large enough are
// memory mapped when the configuration allows it.
func (s *Searcher) SearchPath(m matcher.Matcher, path string, sink Sink) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if s.config.Mmap == MmapAuto {
		data, unmap, ok := mmapFile(f, s.config.MmapThreshold)
		if ok {
			defer unmap()
			return s.SearchSlice(m, data, sink)
		}
	}
	return s.SearchReader(m, f, sink)
}

// SearchReader searches everything read from r.
func (s *Searcher) SearchReader(m matcher.Matcher, r io.Reader, sink Sink) error {
	s.br.Reset(r)
	defer s.br.Reset(nil)
	return s.search(m, &readerLines{br: s.br, buf: &s.line}, sink)
}

// SearchSlice searches an in-memory buffer.
func (s *Searcher) SearchSlice(m matcher.Matcher, data []byte, sink Sink) error {
	return s.search(m, &sliceLines{data: data}, sink)
}

func (s *Searcher) search(m matcher.Matcher, src lineSource, sink Sink) error {
	ok, err := sink.Begin()
	if err != nil || !ok {
		return err
	}

	var (
		offset     uint64
		lineNumber uint64
		binaryAt   int64 = -1
	)
	for {
		line, rerr := src.next()
		if len(line) > 0 {
			if s.config.BinaryDetection == BinaryQuit {
				if i := bytes.IndexByte(line, 0); i >= 0 {
					binaryAt = int64(offset) + int64(i)
					break
				}
			}
			if s.config.LineNumber {
				lineNumber++
			}

			matched, err := m.IsMatch(TrimLineTerminator(line))
			if err != nil {
				return err
			}
			if matched {
				sm := SinkMatch{
					LineNumber:         lineNumber,
					AbsoluteByteOffset: offset,
					Bytes:              line,
				}
				more, err := sink.Matched(&sm)
				if err != nil {
					return err
				}
				if !more {
					offset += uint64(len(line))
					break
				}
			}
			offset += uint64(len(line))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}

	return sink.Finish(&SinkFinish{
		ByteCount:        offset,
		BinaryByteOffset: binaryAt,
	})
}

// TrimLineTerminator strips a trailing "\n" or "\r\n".
func TrimLineTerminator(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
	}
	return line
}

// lineSource yields lines including their terminator. The returned slice is
// only valid until the next call. io.EOF may accompany a final line.
type lineSource interface {
	next() ([]byte, error)
}

type sliceLines struct {
	data []byte
	pos  int
}

func (l *sliceLines) next() ([]byte, error) {
	if l.pos >= len(l.data) {
		return nil, io.EOF
	}
	rest := l.data[l.pos:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		l.pos += i + 1
		return rest[:i+1], nil
	}
	l.pos = len(l.data)
	return rest, io.EOF
}

type readerLines struct {
	br  *bufio.Reader
	buf *[]byte
}

func (l *readerLines) next() ([]byte, error) {
	*l.buf = (*l.buf)[:0]
	for {
		chunk, err := l.br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			*l.buf = append(*l.buf, chunk...)
			continue
		}
		if len(*l.buf) == 0 {
			return chunk, err
		}
		*l.buf = append(*l.buf, chunk...)
		return *l.buf, err
	}
}
