// Package cmd provides the root command and CLI setup for sleuth.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jakechild/sleuth/internal/adapter"
	"github.com/jakechild/sleuth/internal/controller"
	"github.com/jakechild/sleuth/internal/domain"
)

var csharpAdapter adapter.CSharpFileAdapter
var fsAdapter adapter.SourceFSAdapter
var testAdapter adapter.TestRunnerAdapter
var reportStore adapter.ReportStore
var ui controller.UI
var workflow domain.Workflow

// Flags carried on the root command.
var resetFlag bool
var verboseFlag bool
var cleanupFlag bool
var summaryFlag bool
var topFlag int
var reportFormatFlag string
var reportPathFlag string
var excludePatterns []string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	csharpAdapter = adapter.NewLocalCSharpFileAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	testAdapter = adapter.NewLocalTestRunnerAdapter(viper.GetString(runDriverKey))
	reportStore = adapter.NewReportStore()
	workflow = domain.NewWorkflow(csharpAdapter, fsAdapter, testAdapter, reportStore, ui)
}

const rootLongDescription = `Sleuth runs spectrum-based fault localization over a C# solution: it
instruments every executable statement in the project under test, runs
each unit test of the test project in isolation, correlates per-test
coverage with pass/fail outcomes, and ranks statements by
suspiciousness under the classic SBFL metrics (Tarantula, Ochiai, D*,
Op2, Jaccard).

The three arguments name the solution directory and, by project file
name, the test project and the project under test.`

// rootCmd represents the base command.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sleuth <solution-dir> <test-project-name> <project-under-test-name>",
		Short: "Spectrum-based fault localization for C# projects",
		Long:  rootLongDescription,
		Args:  cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger("", verboseFlag)

			positionals := filterUnknownFlags(cmd, args)
			if len(positionals) != 3 {
				_ = cmd.Usage()
				return fmt.Errorf("expected 3 arguments, got %d", len(positionals))
			}

			if resetFlag {
				return runReset(cmd, positionals)
			}

			return runLocalization(cmd, positionals)
		},
	}
}

// filterUnknownFlags drops leftover dash-prefixed tokens that cobra's
// whitelist let through, warning about each instead of failing.
func filterUnknownFlags(cmd *cobra.Command, args []string) []string {
	positionals := make([]string, 0, len(args))

	for _, arg := range args {
		if len(arg) > 0 && arg[0] == '-' {
			cmd.PrintErrf("warning: ignoring unknown flag %s\n", arg)
			continue
		}

		positionals = append(positionals, arg)
	}

	return positionals
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&resetFlag, "reset", "r", false, "strip all probes and clear coverage, then exit")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output (build and test subprocess output, debug logs)")
	cmd.Flags().BoolVarP(&cleanupFlag, "cleanup", "c", false, "strip probes from sources after the run")
	cmd.Flags().BoolVarP(&summaryFlag, "summary", "s", false, "print the top ranked statements to stdout")

	cmd.Flags().IntVarP(&topFlag, topFlagName, "t", viper.GetInt(reportTopKey), "truncate the report to the top N statements")
	bindFlagToConfig(cmd.Flags().Lookup(topFlagName), reportTopKey)

	cmd.Flags().StringVar(&reportFormatFlag, reportFormatFlagName, viper.GetString(reportFormatKey), "report format: csv, markdown or md")
	bindFlagToConfig(cmd.Flags().Lookup(reportFormatFlagName), reportFormatKey)

	cmd.Flags().StringVar(&reportPathFlag, reportPathFlagName, viper.GetString(reportPathKey), "report path (default suspiciousness_report.<ext> in the working directory)")
	bindFlagToConfig(cmd.Flags().Lookup(reportPathFlagName), reportPathKey)

	cmd.Flags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeKey), "exclude source files matching regex (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(excludeFlagName), excludeKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
