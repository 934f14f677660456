// Command seek-extract prints the text of PDF and office documents and
// copies any other file through unchanged. It is meant to be used as a
// seek preprocessor:
//
//	seek --pre seek-extract PATTERN report.pdf notes.docx
package main

import (
	"os"

	"github.com/praetorian-inc/seek/pkg/extract"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "seek-extract PATH",
	Short:         "Print the searchable text of a document",
	Args:          cobra.ExactArgs(1),
	RunE:          runExtract,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func runExtract(cmd *cobra.Command, args []string) error {
	return extract.WriteText(cmd.OutOrStdout(), args[0])
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		logrus.Error(err)
		os.Exit(1)
	}
}
