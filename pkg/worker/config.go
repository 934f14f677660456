package worker

import (
	"io"

	"github.com/praetorian-inc/seek/pkg/decompress"
	"github.com/praetorian-inc/seek/pkg/searcher"
)

// Config controls how a worker acquires the bytes of a subject.
type Config struct {
	// Preprocessor is a command run with each file path as its argument;
	// its output is searched instead of the file. Empty means none. It
	// takes precedence over SearchZip.
	Preprocessor string

	// SearchZip enables transparent decompression of recognised
	// compressed files.
	SearchZip bool
}

// Builder assembles search workers. Builders are values: every setter
// returns a modified copy, so one builder can seed several workers.
type Builder struct {
	config     Config
	decompress *decompress.Matcher
	stdin      io.Reader
}

// NewBuilder returns a builder with the default configuration: no
// preprocessor and no decompression.
func NewBuilder() Builder {
	return Builder{}
}

// Preprocessor sets the preprocessor command. Empty disables it.
func (b Builder) Preprocessor(cmd string) Builder {
	b.config.Preprocessor = cmd
	return b
}

// SearchZip enables or disables searching inside compressed files.
// A preprocessor, if set, overrides this.
func (b Builder) SearchZip(yes bool) Builder {
	b.config.SearchZip = yes
	return b
}

// Decompression sets the format matcher used when SearchZip is on. The
// package default recognises and decodes every built-in format.
func (b Builder) Decompression(m *decompress.Matcher) Builder {
	b.decompress = m
	return b
}

// Stdin sets the stream searched for the standard input subject. The
// default is the process's standard input.
func (b Builder) Stdin(r io.Reader) Builder {
	b.stdin = r
	return b
}

// Config returns the accumulated configuration.
func (b Builder) Config() Config {
	return b.config
}

// Build creates a worker that exclusively owns the given searcher and
// printer. The matcher may be shared with other workers.
func (b Builder) Build(m PatternMatcher, s *searcher.Searcher, p Printer) *SearchWorker {
	w := &SearchWorker{
		config:       b.config,
		matcher:      m,
		searcher:     s,
		printer:      p,
		stdin:        stdinReader,
		isCompressed: decompress.IsCompressed,
		decompress:   decompress.FromPath,
		preprocess:   preprocessFromCmdPath,
	}
	if b.decompress != nil {
		w.isCompressed = b.decompress.IsCompressed
		w.decompress = b.decompress.FromPath
	}
	if r := b.stdin; r != nil {
		w.stdin = func() io.Reader { return r }
	}
	return w
}

// stdinReader is the live standard input stream.
func stdinReader() io.Reader {
	return osStdin
}
