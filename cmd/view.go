package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jakechild/sleuth/internal/domain"
	m "github.com/jakechild/sleuth/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "View the manifest of the last run",
		Long:  "Print the per-test outcomes recorded by the most recent localization run.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.View(cmd.Context(), domain.ViewArgs{
				ReportsDir: m.Path(viper.GetString(reportsOutputKey)),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
