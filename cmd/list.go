package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jakechild/sleuth/internal/domain"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <solution-dir> <test-project-name>",
		Short: "List discovered tests without running them",
		Long:  "Discover the test methods of the test project by their marker attributes and print them.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger("", verboseFlag)

			return workflow.ListTests(cmd.Context(), domain.ListArgs{
				SolutionDir: args[0],
				TestProject: args[1],
				Attributes:  viper.GetStringSlice(attributesKey),
				Workers:     viper.GetInt(runParallelKey),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
