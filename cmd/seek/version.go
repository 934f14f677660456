package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/praetorian-inc/seek/pkg/config"
	"github.com/praetorian-inc/seek/pkg/decompress"
	"github.com/spf13/cobra"
)

// Set with -ldflags at release time.
var (
	version = "dev"
	commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version, engines and configuration",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seek %s (%s, %s %s/%s)\n", buildVersion(), commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(out, "engines: regexp2 (regex), aho-corasick (--fixed-strings)")
	fmt.Fprintf(out, "compression: %s\n", strings.Join(decompress.FormatNames(), ", "))
	fmt.Fprintf(out, "config: %s\n", configLocation())
	return nil
}

// buildVersion prefers the module version recorded by go install over the
// placeholder of an untagged build.
func buildVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

// configLocation describes the file a search without --config would load.
func configLocation() string {
	if p := os.Getenv(config.EnvVar); p != "" {
		return p + " (from $" + config.EnvVar + ")"
	}
	p, err := config.DefaultPath()
	if err != nil {
		return "none"
	}
	if _, err := os.Stat(p); err != nil {
		return p + " (absent, using defaults)"
	}
	return p
}
