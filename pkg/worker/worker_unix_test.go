//go:build unix

package worker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/praetorian-inc/seek/pkg/preprocess"
	"github.com/praetorian-inc/seek/pkg/printer"
	"github.com/praetorian-inc/seek/pkg/searcher"
	"github.com/praetorian-inc/seek/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_PreprocessorCommand(t *testing.T) {
	script := filepath.Join(t.TempDir(), "upper.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ntr a-z A-Z < \"$1\"\n"), 0755))
	path := writeFile(t, "five.txt", []byte(fiveLines))

	buf := printer.NewBuffer(false)
	w := NewBuilder().
		Preprocessor(script).
		Build(regexMatcher(t, "NEEDLE"), searcher.New(searcher.DefaultConfig()), standardPrinter(buf, true))

	res, err := w.Search(types.NewPathSubject(path))
	require.NoError(t, err)
	assert.True(t, res.HasMatch())
	assert.Equal(t, path+":3:CHARLIE NEEDLE\n", buf.String())
}

func TestSearch_PreprocessorFailureAfterOutput(t *testing.T) {
	script := filepath.Join(t.TempDir(), "flaky.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho needle one\nexit 1\n"), 0755))

	buf := printer.NewBuffer(false)
	w := NewBuilder().
		Preprocessor(script).
		Build(regexMatcher(t, "needle"), searcher.New(searcher.DefaultConfig()), standardPrinter(buf, true))

	res, err := w.Search(types.NewPathSubject("input.bin"))
	require.Error(t, err)
	assert.True(t, preprocess.IsCommandError(err))
	assert.Equal(t, SearchResult{}, res)
	assert.Equal(t, "input.bin:1:needle one\n", buf.String(), "printed output is not rolled back")
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pre.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

// searchWithin runs w.Search and fails the test if it does not return
// within d.
func searchWithin(t *testing.T, w *SearchWorker, subject types.Subject, d time.Duration) (SearchResult, error) {
	t.Helper()
	type outcome struct {
		res SearchResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := w.Search(subject)
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-time.After(d):
		t.Fatalf("search of %s did not return within %s", subject.Path(), d)
		return SearchResult{}, nil
	}
}

func TestSearch_PreprocessorQuitEarlyReleasesWrapper(t *testing.T) {
	// cat runs as a child of the shell and keeps writing into the pipe
	// after the summary printer has seen enough.
	script := writeScript(t, `cat "$1" | cat`)
	big := "needle on the first line\n" + strings.Repeat("filler line without the word\n", 100000)
	path := writeFile(t, "big.txt", []byte(big))

	buf := printer.NewBuffer(false)
	p := SummaryPrinter{printer.NewSummary(printer.SummaryConfig{Kind: printer.SummaryPathWithMatch}, buf)}
	w := NewBuilder().
		Preprocessor(script).
		Build(regexMatcher(t, "needle"), searcher.New(searcher.DefaultConfig()), p)

	res, err := searchWithin(t, w, types.NewPathSubject(path), 10*time.Second)
	require.NoError(t, err)
	assert.True(t, res.HasMatch())
	assert.Equal(t, path+"\n", buf.String())
}

func TestSearch_PreprocessorBinaryQuitReleasesWrapper(t *testing.T) {
	script := writeScript(t, `printf 'needle\n\000\n'; yes needle`)

	buf := printer.NewBuffer(false)
	w := NewBuilder().
		Preprocessor(script).
		Build(regexMatcher(t, "needle"), searcher.New(searcher.DefaultConfig()), standardPrinter(buf, false))

	res, err := searchWithin(t, w, types.NewPathSubject("input.bin"), 10*time.Second)
	require.NoError(t, err)
	assert.True(t, res.HasMatch())
	assert.True(t, strings.HasPrefix(buf.String(), "input.bin:1:needle\n"), buf.String())
	assert.Contains(t, buf.String(), "WARNING: stopped searching binary file")
}
