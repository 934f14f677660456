package main

import (
	"github.com/praetorian-inc/seek/pkg/config"
	"github.com/praetorian-inc/seek/pkg/printer"
	"github.com/praetorian-inc/seek/pkg/worker"
)

// outputMode is the printer selection derived from the flags.
type outputMode struct {
	json      bool
	summarize bool
	kind      printer.SummaryKind
	path      bool
	stats     bool

	// every reports begin and end messages for subjects without a match.
	every bool
}

func outputModeFor(cfg *config.Config, subjects int) outputMode {
	m := outputMode{
		json:  searchJSON,
		path:  subjects > 1,
		stats: cfg.Stats && !searchJSON,
		every: cfg.Stats && searchJSON,
	}
	switch {
	case searchWithFilename:
		m.path = true
	case searchNoFilename:
		m.path = false
	}

	m.summarize = true
	switch {
	case searchQuiet:
		m.kind = printer.SummaryQuiet
	case searchFilesWithoutMatch:
		m.kind = printer.SummaryPathWithoutMatch
	case searchFilesWithMatches:
		m.kind = printer.SummaryPathWithMatch
	case searchCountMatches:
		m.kind = printer.SummaryCountMatches
	case searchCount:
		m.kind = printer.SummaryCount
	default:
		m.summarize = false
	}
	return m
}

// quiet reports whether the run may stop at the first match.
func (m outputMode) quiet() bool {
	return m.summarize && m.kind == printer.SummaryQuiet && !m.stats
}

// printer creates a printer of this mode writing to w.
func (m outputMode) printer(w printer.WriteColor) worker.Printer {
	switch {
	case m.json:
		return worker.JSONPrinter{JSON: printer.NewJSON(printer.JSONConfig{AlwaysBeginEnd: m.every}, w)}
	case m.summarize:
		return worker.SummaryPrinter{Summary: printer.NewSummary(printer.SummaryConfig{
			Kind:  m.kind,
			Stats: m.stats,
			Path:  m.path,
		}, w)}
	default:
		return worker.StandardPrinter{Standard: printer.NewStandard(printer.StandardConfig{
			Stats: m.stats,
			Path:  m.path,
		}, w)}
	}
}

func (m outputMode) String() string {
	switch {
	case m.json:
		return "json"
	case m.summarize:
		return m.kind.String()
	default:
		return "standard"
	}
}
