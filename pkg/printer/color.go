package printer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"golang.org/x/term"
)

// WriteColor is an output destination that knows whether it accepts ANSI
// color sequences.
type WriteColor interface {
	io.Writer
	SupportsColor() bool
}

// ColorWriter adapts any io.Writer into a WriteColor.
type ColorWriter struct {
	w     io.Writer
	color bool
}

// NewColorWriter wraps w. Colors are emitted only when color is true.
func NewColorWriter(w io.Writer, color bool) *ColorWriter {
	return &ColorWriter{w: w, color: color}
}

// Write writes p to the underlying writer.
func (c *ColorWriter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// SupportsColor reports whether colors are enabled.
func (c *ColorWriter) SupportsColor() bool {
	return c.color
}

// Unwrap returns the underlying writer.
func (c *ColorWriter) Unwrap() io.Writer {
	return c.w
}

// Buffer is an in-memory WriteColor, used to collect the output of one
// search before it is flushed in order.
type Buffer struct {
	bytes.Buffer
	color bool
}

// NewBuffer creates an empty buffer.
func NewBuffer(color bool) *Buffer {
	return &Buffer{color: color}
}

// SupportsColor reports whether colors are enabled.
func (b *Buffer) SupportsColor() bool {
	return b.color
}

// ColorChoice selects when colors are used.
type ColorChoice int

const (
	ColorAuto ColorChoice = iota
	ColorAlways
	ColorNever
)

// ParseColorChoice parses "auto", "always" or "never".
func ParseColorChoice(s string) (ColorChoice, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color choice: %s", s)
	}
}

// Enabled resolves the choice for an output that is (or is not) a terminal.
// NO_COLOR disables automatic colors.
func (c ColorChoice) Enabled(isTerminal bool) bool {
	switch c {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal && os.Getenv("NO_COLOR") == ""
	}
}

// StdoutEnabled resolves the choice against the process's stdout.
func (c ColorChoice) StdoutEnabled() bool {
	return c.Enabled(term.IsTerminal(int(os.Stdout.Fd())))
}

// Stdout returns a WriteColor for the process's standard output.
func Stdout(choice ColorChoice) *ColorWriter {
	return NewColorWriter(colorable.NewColorableStdout(), choice.StdoutEnabled())
}

// ColorSpecs holds the color formatters used by the printers.
type ColorSpecs struct {
	Path  *color.Color
	Line  *color.Color
	Match *color.Color
}

// DefaultColorSpecs returns a fresh set of formatters. Each printer should
// get its own set because enabling or disabling them mutates them.
func DefaultColorSpecs() ColorSpecs {
	return ColorSpecs{
		Path:  color.New(color.FgMagenta),
		Line:  color.New(color.FgGreen),
		Match: color.New(color.Bold, color.FgRed),
	}
}

// apply forces the formatters on or off regardless of the global
// color.NoColor setting, which only reflects the process's stdout.
func (s ColorSpecs) apply(enabled bool) ColorSpecs {
	if s.Path == nil || s.Line == nil || s.Match == nil {
		s = DefaultColorSpecs()
	}
	for _, c := range []*color.Color{s.Path, s.Line, s.Match} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// counter counts the bytes written through it.
type counter struct {
	w     io.Writer
	count uint64
}

func (c *counter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += uint64(n)
	return n, err
}

func (c *counter) reset(w io.Writer) {
	c.w = w
	c.count = 0
}
