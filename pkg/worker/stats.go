package worker

import (
	"fmt"
	"time"

	"github.com/praetorian-inc/seek/pkg/printer"
)

// PrintStats writes a human readable statistics report through the
// printer's writer. stats.Elapsed is the time spent searching; total should
// approximate the lifetime of the whole run.
//
// The JSON printer has no human readable report; calling PrintStats with
// it is a programming error and panics.
func PrintStats(p Printer, total time.Duration, stats printer.Stats) error {
	switch p.(type) {
	case JSONPrinter:
		panic("worker: PrintStats is not implemented for the JSON printer")
	case StandardPrinter, SummaryPrinter:
		return printStatsHuman(p, total, stats)
	default:
		panic(fmt.Sprintf("worker: unknown printer %T", p))
	}
}

func printStatsHuman(p Printer, total time.Duration, stats printer.Stats) error {
	_, err := fmt.Fprintf(Writer(p), `
%d matches
%d matched lines
%d files contained matches
%d files searched
%d bytes printed
%d bytes searched
%.6f seconds spent searching
%.6f seconds
`,
		stats.Matches,
		stats.MatchedLines,
		stats.SearchesWithMatch,
		stats.Searches,
		stats.BytesPrinted,
		stats.BytesSearched,
		FractionalSeconds(stats.Elapsed),
		FractionalSeconds(total),
	)
	return err
}

// FractionalSeconds returns d as seconds with a fractional part.
// Negative durations are clamped to zero.
func FractionalSeconds(d time.Duration) float64 {
	if d < 0 {
		d = 0
	}
	secs := d / time.Second
	nanos := d % time.Second
	return float64(secs) + float64(nanos)*1e-9
}
