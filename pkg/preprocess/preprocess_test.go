//go:build unix

package preprocess

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pre.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestFromCmdPath_StreamsOutput(t *testing.T) {
	script := writeScript(t, `tr a-z A-Z < "$1"`)
	input := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(input, []byte("hello preprocessor\n"), 0644))

	r, err := FromCmdPath(script, input)
	require.NoError(t, err)
	defer r.Close()

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "HELLO PREPROCESSOR\n", string(out))
}

func TestFromCmdPath_SpawnFailure(t *testing.T) {
	_, err := FromCmdPath(filepath.Join(t.TempDir(), "does-not-exist"), "file.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting preprocessor")
	assert.False(t, IsCommandError(err))
}

func TestFromCmdPath_NonZeroExit(t *testing.T) {
	script := writeScript(t, `echo partial; echo "cannot convert $1" >&2; exit 3`)

	r, err := FromCmdPath(script, "doc.pdf")
	require.NoError(t, err)
	defer r.Close()

	out, err := io.ReadAll(r)
	require.Error(t, err)
	assert.Equal(t, "partial\n", string(out))
	assert.True(t, IsCommandError(err))

	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "doc.pdf", ce.Path)
	assert.Equal(t, "cannot convert doc.pdf", ce.Stderr)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())

	// The failure is sticky.
	_, err = r.Read(make([]byte, 8))
	assert.True(t, IsCommandError(err))
}

// closeWithin closes r and fails the test if Close blocks longer than d.
func closeWithin(t *testing.T, r *Reader, d time.Duration) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(d):
		t.Fatalf("Close blocked for more than %s", d)
	}
}

func TestReader_CloseBeforeEOF(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"direct child", `exec yes needle`},
		{"child of the shell", `yes needle`},
		{"pipeline", `yes needle | cat`},
		{"background writer", `yes needle & wait`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := FromCmdPath(writeScript(t, tt.body), "ignored")
			require.NoError(t, err)

			buf := make([]byte, 64)
			_, err = r.Read(buf)
			require.NoError(t, err)

			closeWithin(t, r, 10*time.Second)
			require.NoError(t, r.Close(), "close is idempotent")

			_, err = r.Read(buf)
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestReader_StragglerHoldingStderr(t *testing.T) {
	// The script exits at once but leaves a process holding stderr open.
	script := writeScript(t, `echo needle; sleep 30 >/dev/null &`)

	r, err := FromCmdPath(script, "ignored")
	require.NoError(t, err)
	defer r.Close()

	start := time.Now()
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "needle\n", string(out))
	assert.Less(t, time.Since(start), WaitDelay+5*time.Second)
}
