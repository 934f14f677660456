package worker

import (
	"fmt"

	"github.com/praetorian-inc/seek/pkg/matcher"
	"github.com/praetorian-inc/seek/pkg/printer"
)

// PatternMatcher is the closed set of matching engines a worker can run.
// Implementations live in this package only.
type PatternMatcher interface {
	isPatternMatcher()
}

// RegexMatcher runs a regular expression engine.
type RegexMatcher struct {
	*matcher.Regexp
}

// LiteralMatcher runs a fixed-strings engine.
type LiteralMatcher struct {
	*matcher.Literal
}

func (RegexMatcher) isPatternMatcher()   {}
func (LiteralMatcher) isPatternMatcher() {}

// engine returns the matching engine behind a variant.
func engine(pm PatternMatcher) matcher.Matcher {
	switch m := pm.(type) {
	case RegexMatcher:
		return m.Regexp
	case LiteralMatcher:
		return m.Literal
	default:
		panic(fmt.Sprintf("worker: unknown pattern matcher %T", pm))
	}
}

// Printer is the closed set of output formats a worker can write.
// Implementations live in this package only.
type Printer interface {
	isPrinter()
}

// StandardPrinter prints matching lines grep style.
type StandardPrinter struct {
	*printer.Standard
}

// SummaryPrinter prints aggregate results such as counts or paths.
type SummaryPrinter struct {
	*printer.Summary
}

// JSONPrinter prints JSON Lines.
type JSONPrinter struct {
	*printer.JSON
}

func (StandardPrinter) isPrinter() {}
func (SummaryPrinter) isPrinter()  {}
func (JSONPrinter) isPrinter()     {}

// Writer returns the output writer owned by the printer.
func Writer(p Printer) printer.WriteColor {
	switch p := p.(type) {
	case StandardPrinter:
		return p.Writer()
	case SummaryPrinter:
		return p.Writer()
	case JSONPrinter:
		return p.Writer()
	default:
		panic(fmt.Sprintf("worker: unknown printer %T", p))
	}
}
