package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/praetorian-inc/seek/pkg/config"
	"github.com/praetorian-inc/seek/pkg/matcher"
	"github.com/praetorian-inc/seek/pkg/printer"
	"github.com/praetorian-inc/seek/pkg/searcher"
	"github.com/praetorian-inc/seek/pkg/types"
	"github.com/praetorian-inc/seek/pkg/worker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	searchConfigPath string
	searchDebug      bool

	searchFixedStrings bool
	searchIgnoreCase   bool
	searchLineNumber   bool
	searchNoFilename   bool
	searchWithFilename bool

	searchCount             bool
	searchCountMatches      bool
	searchFilesWithMatches  bool
	searchFilesWithoutMatch bool
	searchQuiet             bool
	searchJSON              bool
	searchStats             bool

	searchPre     string
	searchZip     bool
	searchMmap    string
	searchBinary  string
	searchThreads int
	searchColor   string
)

func addSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&searchConfigPath, "config", "", "Path to config file (default $"+config.EnvVar+" or the user config dir)")
	f.BoolVar(&searchDebug, "debug", false, "Log debug messages to stderr")

	f.BoolVarP(&searchFixedStrings, "fixed-strings", "F", false, "Treat the pattern as literal strings, one per line")
	f.BoolVarP(&searchIgnoreCase, "ignore-case", "i", false, "Search case insensitively")
	f.BoolVarP(&searchLineNumber, "line-number", "n", true, "Show line numbers")
	f.BoolVar(&searchNoFilename, "no-filename", false, "Never print file paths")
	f.BoolVarP(&searchWithFilename, "with-filename", "H", false, "Print the file path with each match")

	f.BoolVarP(&searchCount, "count", "c", false, "Print the number of matching lines per file")
	f.BoolVar(&searchCountMatches, "count-matches", false, "Print the number of matches per file")
	f.BoolVarP(&searchFilesWithMatches, "files-with-matches", "l", false, "Print only paths with at least one match")
	f.BoolVar(&searchFilesWithoutMatch, "files-without-match", false, "Print only paths without a match")
	f.BoolVarP(&searchQuiet, "quiet", "q", false, "Print nothing, exit 0 on the first match")
	f.BoolVar(&searchJSON, "json", false, "Print results as JSON Lines")
	f.BoolVar(&searchStats, "stats", false, "Print aggregate statistics when done (with --json, report every file)")

	f.StringVar(&searchPre, "pre", "", "Search the output of COMMAND PATH instead of each file")
	f.BoolVarP(&searchZip, "search-zip", "z", false, "Search inside compressed files")
	f.StringVar(&searchMmap, "mmap", "auto", "Memory map large files: auto, never")
	f.StringVar(&searchBinary, "binary", "quit", "Binary data handling: quit, none")
	f.IntVarP(&searchThreads, "threads", "j", 0, "Number of parallel searches (0 = one per CPU)")
	f.StringVar(&searchColor, "color", "auto", "Colorize output: auto, always, never")

	cmd.MarkFlagsMutuallyExclusive("count", "count-matches", "files-with-matches", "files-without-match", "quiet", "json")
	cmd.MarkFlagsMutuallyExclusive("no-filename", "with-filename")
}

func runSearch(cmd *cobra.Command, args []string) error {
	setupLogging(cmd.ErrOrStderr(), searchDebug)
	start := time.Now()

	cfg, source, err := config.Resolve(searchConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if source != "" {
		logrus.Debugf("using config %s", source)
	}
	mergeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	pattern, paths := args[0], args[1:]
	pm, err := buildMatcher(pattern, cfg)
	if err != nil {
		return err
	}
	scfg, err := cfg.SearcherConfig()
	if err != nil {
		return err
	}
	formats, err := cfg.Decompression()
	if err != nil {
		return err
	}
	choice, err := cfg.ColorChoice()
	if err != nil {
		return err
	}

	subjects := subjectsFromArgs(paths)
	mode := outputModeFor(cfg, len(subjects))
	out := stdoutWriter(cmd, choice)

	builder := worker.NewBuilder().
		Preprocessor(cfg.Preprocessor).
		SearchZip(cfg.SearchZip).
		Decompression(formats).
		Stdin(cmd.InOrStdin())

	r := &runner{
		threads:     cfg.ThreadCount(),
		color:       out.SupportsColor(),
		stopOnMatch: mode.quiet(),
		newWorker: func(buf *printer.Buffer) *worker.SearchWorker {
			return builder.Build(pm, searcher.New(scfg), mode.printer(buf))
		},
	}
	logrus.Debugf("searching %d subjects with %d threads (%s output)", len(subjects), r.threads, mode)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sum, err := r.run(ctx, subjects, out)
	if err != nil {
		return err
	}

	if mode.stats {
		if err := worker.PrintStats(mode.printer(out), time.Since(start), sum.stats); err != nil {
			return err
		}
	}
	logrus.Debugf("searched %d subjects, %s, in %s", sum.searched, humanize.Bytes(sum.stats.BytesSearched), time.Since(start).Round(time.Millisecond))

	switch {
	case sum.failed > 0:
		return errSubjects
	case !sum.matched:
		return errNoMatch
	}
	return nil
}

// mergeFlags copies explicitly given flags over the config file values.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("pre") {
		cfg.Preprocessor = searchPre
	}
	if flags.Changed("search-zip") {
		cfg.SearchZip = searchZip
	}
	if flags.Changed("ignore-case") {
		cfg.IgnoreCase = searchIgnoreCase
	}
	if flags.Changed("fixed-strings") {
		cfg.FixedStrings = searchFixedStrings
	}
	if flags.Changed("line-number") {
		cfg.LineNumber = searchLineNumber
	}
	if flags.Changed("stats") {
		cfg.Stats = searchStats
	}
	if flags.Changed("color") {
		cfg.Color = searchColor
	}
	if flags.Changed("mmap") {
		cfg.Mmap = searchMmap
	}
	if flags.Changed("binary") {
		cfg.Binary = searchBinary
	}
	if flags.Changed("threads") {
		cfg.Threads = searchThreads
	}
}

func buildMatcher(pattern string, cfg *config.Config) (worker.PatternMatcher, error) {
	if cfg.FixedStrings {
		lit, err := matcher.NewLiteral(strings.Split(pattern, "\n"), cfg.IgnoreCase)
		if err != nil {
			return nil, fmt.Errorf("creating matcher: %w", err)
		}
		return worker.LiteralMatcher{Literal: lit}, nil
	}

	re, err := matcher.NewRegexp(pattern, matcher.RegexpConfig{CaseInsensitive: cfg.IgnoreCase})
	if err != nil {
		return nil, fmt.Errorf("creating matcher: %w", err)
	}
	return worker.RegexMatcher{Regexp: re}, nil
}

// subjectsFromArgs maps path arguments to subjects. No paths, or "-",
// means standard input. Standard input can only be read once, so repeats
// of "-" are dropped.
func subjectsFromArgs(paths []string) []types.Subject {
	if len(paths) == 0 {
		return []types.Subject{types.NewStdinSubject()}
	}
	subjects := make([]types.Subject, 0, len(paths))
	stdin := false
	for _, p := range paths {
		if p == "-" {
			if !stdin {
				subjects = append(subjects, types.NewStdinSubject())
			}
			stdin = true
		} else {
			subjects = append(subjects, types.NewPathSubject(p))
		}
	}
	return subjects
}

// stdoutWriter returns the command's output as a color aware writer. Only
// the real stdout can be a terminal.
func stdoutWriter(cmd *cobra.Command, choice printer.ColorChoice) *printer.ColorWriter {
	w := cmd.OutOrStdout()
	if w == os.Stdout {
		return printer.Stdout(choice)
	}
	return printer.NewColorWriter(w, choice.Enabled(false))
}
