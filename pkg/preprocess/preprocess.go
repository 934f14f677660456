// Package preprocess runs an external command over a file and exposes the
// command's standard output as the bytes to search.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// WaitDelay bounds how long reaping a preprocessor waits for its output
// pipes to close once the process itself has exited. Descendants that
// outlive it and keep the pipes open would otherwise block forever.
const WaitDelay = 2 * time.Second

// CommandError reports a preprocessor that exited unsuccessfully.
type CommandError struct {
	Command string
	Path    string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("preprocessor command %q failed on %s: %v", e.Command, e.Path, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Reader streams the standard output of a running preprocessor.
//
// The process is reaped when its output is exhausted or when Close is
// called, whichever comes first. Close must always be called.
type Reader struct {
	command string
	path    string
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  bytes.Buffer
	done    bool
	err     error
}

// FromCmdPath starts command with path as its only argument.
func FromCmdPath(command, path string) (*Reader, error) {
	r := &Reader{command: command, path: path}
	r.cmd = exec.Command(command, path)
	r.cmd.Stderr = &r.stderr
	r.cmd.WaitDelay = WaitDelay
	isolate(r.cmd)

	stdout, err := r.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("preprocessor %q: %w", command, err)
	}
	r.stdout = stdout

	if err := r.cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting preprocessor %q: %w", command, err)
	}
	return r, nil
}

// Read reads from the command's standard output. At EOF the command is
// waited on and a non-zero exit is returned as a *CommandError.
func (r *Reader) Read(p []byte) (int, error) {
	if r.done {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}

	n, err := r.stdout.Read(p)
	if err == io.EOF {
		if werr := r.wait(); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// Close stops the command and every process it started, then reaps it.
func (r *Reader) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	if r.cmd.Process != nil {
		kill(r.cmd.Process)
	}
	_ = r.stdout.Close()
	_ = r.cmd.Wait()
	return nil
}

func (r *Reader) wait() error {
	r.done = true
	if err := r.cmd.Wait(); err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		r.err = &CommandError{
			Command: r.command,
			Path:    r.path,
			Stderr:  strings.TrimSpace(r.stderr.String()),
			Err:     err,
		}
	}
	return r.err
}

// IsCommandError reports whether err came from a failing preprocessor.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}
