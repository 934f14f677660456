package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	// errNoMatch is returned when the search ran cleanly but found nothing.
	errNoMatch = errors.New("no match")

	// errSubjects is returned when searching one or more subjects failed.
	// The individual errors have already been logged.
	errSubjects = errors.New("some subjects could not be searched")
)

var rootCmd = &cobra.Command{
	Use:   "seek [flags] PATTERN [PATH...]",
	Short: "Seek - search files for lines matching a pattern",
	Long: `Seek searches files, compressed files, preprocessor output or standard
input for lines matching a regular expression (or fixed strings with -F).

With no PATH, or with PATH "-", standard input is searched. The exit status
is 0 if a line matched, 1 if none did and 2 if an error occurred.`,
	Args:          cobra.MinimumNArgs(1),
	RunE:          runSearch,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	addSearchFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
