package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a sleuth.yaml with the current defaults",
		Long: `Write a sleuth.yaml into the working directory seeded with the current
defaults: the coverage directory the probes record into, the reports
directory, report format and primary metric, the per-test timeout, and
the recognised test attribute markers. Edit it to override any of them;
values also come from SLEUTH_* environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			if _, err := os.Stat(targetPath); err == nil {
				return fmt.Errorf("%s already exists; delete it first to regenerate", targetPath)
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", targetPath, err)
			}

			if err := viper.SafeWriteConfigAs(targetPath); err != nil {
				return fmt.Errorf("write %s: %w", targetPath, err)
			}

			cmd.Printf("wrote %s\n", targetPath)
			cmd.Printf("  coverage dir:   %s\n", viper.GetString(coverageDirKey))
			cmd.Printf("  reports dir:    %s\n", viper.GetString(reportsOutputKey))
			cmd.Printf("  report format:  %s (primary metric %s)\n", viper.GetString(reportFormatKey), viper.GetString(reportMetricKey))
			cmd.Printf("  test timeout:   %s\n", testTimeout())

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
