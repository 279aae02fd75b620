package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jakechild/sleuth/internal/domain"
	m "github.com/jakechild/sleuth/internal/model"
)

// runLocalization drives the full pipeline for the three positional
// arguments, with everything else coming from flags and config.
func runLocalization(cmd *cobra.Command, positionals []string) error {
	return workflow.Localize(cmd.Context(), domain.LocalizeArgs{
		SolutionDir:   positionals[0],
		TestProject:   positionals[1],
		Project:       positionals[2],
		CoverageDir:   m.Path(viper.GetString(coverageDirKey)),
		ReportsDir:    m.Path(viper.GetString(reportsOutputKey)),
		ReportFormat:  viper.GetString(reportFormatKey),
		ReportPath:    m.Path(viper.GetString(reportPathKey)),
		PrimaryMetric: viper.GetString(reportMetricKey),
		Top:           viper.GetInt(reportTopKey),
		Summary:       summaryFlag,
		Cleanup:       cleanupFlag,
		Verbose:       verboseFlag,
		Exclude:       viper.GetStringSlice(excludeKey),
		Attributes:    viper.GetStringSlice(attributesKey),
		TestTimeout:   testTimeout(),
		Workers:       viper.GetInt(runParallelKey),
	})
}

// runReset strips probes and clears coverage without running anything.
func runReset(cmd *cobra.Command, positionals []string) error {
	return workflow.Reset(cmd.Context(), domain.ResetArgs{
		SolutionDir: positionals[0],
		Project:     positionals[2],
		CoverageDir: m.Path(viper.GetString(coverageDirKey)),
	})
}

func testTimeout() time.Duration {
	seconds := viper.GetInt64(runTestTimeoutKey)
	if seconds <= 0 {
		seconds = int64(defaultTestTimeout.Seconds())
	}

	return time.Duration(seconds) * time.Second
}
