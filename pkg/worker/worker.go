// Package worker ties a matcher, a searcher and a printer together and
// decides, per subject, where the bytes to search come from.
package worker

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/praetorian-inc/seek/pkg/matcher"
	"github.com/praetorian-inc/seek/pkg/preprocess"
	"github.com/praetorian-inc/seek/pkg/printer"
	"github.com/praetorian-inc/seek/pkg/searcher"
	"github.com/praetorian-inc/seek/pkg/types"
)

var osStdin io.Reader = os.Stdin

// SearchWorker executes searches one subject at a time.
//
// A worker owns mutable state (the searcher's buffers, the printer's
// writer) and is NOT safe for concurrent use. To search in parallel, build
// one worker per goroutine; they may share a PatternMatcher.
type SearchWorker struct {
	config   Config
	matcher  PatternMatcher
	searcher *searcher.Searcher
	printer  Printer

	stdin        func() io.Reader
	isCompressed func(path string) bool
	decompress   func(path string) (io.ReadCloser, error)
	preprocess   func(command, path string) (io.ReadCloser, error)
}

// Config returns the worker configuration.
func (w *SearchWorker) Config() Config {
	return w.config
}

// Printer returns the worker's printer, for reporting final statistics.
func (w *SearchWorker) Printer() Printer {
	return w.printer
}

// PrintStats writes the human readable statistics report through the
// worker's printer. See PrintStats.
func (w *SearchWorker) PrintStats(total time.Duration, stats printer.Stats) error {
	return PrintStats(w.printer, total, stats)
}

// Search searches subject, choosing the first applicable strategy:
// standard input, the preprocessor, decompression, then the path itself.
//
// A compressed file that cannot be decompressed here is skipped and yields
// an empty result without error. Output already printed before an error
// is not taken back.
func (w *SearchWorker) Search(subject types.Subject) (SearchResult, error) {
	path := subject.Path()

	switch {
	case subject.IsStdin():
		return w.searchReader(path, w.stdin())

	case w.config.Preprocessor != "":
		rdr, err := w.preprocess(w.config.Preprocessor, path)
		if err != nil {
			return SearchResult{}, err
		}
		defer rdr.Close()
		return w.searchReader(path, rdr)

	case w.config.SearchZip && w.isCompressed(path):
		rdr, err := w.decompress(path)
		if err != nil {
			return SearchResult{}, err
		}
		if rdr == nil {
			return SearchResult{}, nil
		}
		defer rdr.Close()
		return w.searchReader(path, rdr)

	default:
		return w.searchPath(path)
	}
}

// searchPath searches the file at path directly, which lets the searcher
// use memory maps.
func (w *SearchWorker) searchPath(path string) (SearchResult, error) {
	return w.run(path, func(m matcher.Matcher, sink searcher.Sink) error {
		return w.searcher.SearchPath(m, path, sink)
	})
}

// searchReader searches rdr. The bytes may not be the contents of path
// (preprocessor output, decompressed data); path is used for display only.
func (w *SearchWorker) searchReader(path string, rdr io.Reader) (SearchResult, error) {
	return w.run(path, func(m matcher.Matcher, sink searcher.Sink) error {
		if err := w.searcher.SearchReader(m, rdr, sink); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	})
}

// run creates the printer's sink for path, runs search with it and turns
// the sink's state into a SearchResult.
func (w *SearchWorker) run(path string, search func(matcher.Matcher, searcher.Sink) error) (SearchResult, error) {
	m := engine(w.matcher)

	switch p := w.printer.(type) {
	case StandardPrinter:
		sink := p.SinkWithPath(m, path)
		if err := search(m, sink); err != nil {
			return SearchResult{}, err
		}
		return SearchResult{hasMatch: sink.HasMatch(), stats: sink.Stats()}, nil

	case SummaryPrinter:
		sink := p.SinkWithPath(m, path)
		if err := search(m, sink); err != nil {
			return SearchResult{}, err
		}
		return SearchResult{hasMatch: sink.HasMatch(), stats: sink.Stats()}, nil

	case JSONPrinter:
		sink := p.SinkWithPath(m, path)
		if err := search(m, sink); err != nil {
			return SearchResult{}, err
		}
		stats := sink.Stats()
		return SearchResult{hasMatch: sink.HasMatch(), stats: &stats}, nil

	default:
		panic(fmt.Sprintf("worker: unknown printer %T", w.printer))
	}
}

func preprocessFromCmdPath(command, path string) (io.ReadCloser, error) {
	rdr, err := preprocess.FromCmdPath(command, path)
	if err != nil {
		return nil, err
	}
	return rdr, nil
}
