package cmd

import (
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechild/sleuth/internal/domain"
	"github.com/jakechild/sleuth/internal/domain/metrics"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build and capability information",
		Long:  "Displays the build version, the suspiciousness metrics compiled in, and the config schema version.",
		Run: func(cmd *cobra.Command, _ []string) {
			version := "(devel)"
			goVersion := "unknown"

			if info, ok := debug.ReadBuildInfo(); ok {
				if info.Main.Version != "" {
					version = info.Main.Version
				}

				goVersion = info.GoVersion
			}

			names := make([]string, 0, len(metrics.All()))
			for _, f := range metrics.All() {
				names = append(names, f.Name())
			}

			cmd.Printf("sleuth %s (go %s)\n", version, goVersion)
			cmd.Printf("metrics: %s (primary default %s)\n", strings.Join(names, ", "), domain.DefaultPrimaryMetric)
			cmd.Printf("config schema: v%d (%s)\n", currentConfigVersion, configFileName)
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
