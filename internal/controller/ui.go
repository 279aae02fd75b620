// Package controller provides output adapters for displaying fault
// localization progress and results.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "github.com/jakechild/sleuth/internal/model"
)

// UI defines the interface for displaying run progress and results.
// Implementations can use different output methods (simple text, TUI).
type UI interface {
	// Start prepares the UI for a run over the given number of tests.
	Start(ctx context.Context, totalTests int) error

	// Close finalises the UI. Safe to call after a failed Start.
	Close(ctx context.Context)

	// DisplayProjects shows the resolved project manifests.
	DisplayProjects(ctx context.Context, solution, testProject, project m.Path)

	// DisplayInstrumentation reports how much source was instrumented.
	DisplayInstrumentation(ctx context.Context, files, statements int)

	// DisplayTests lists discovered tests.
	DisplayTests(ctx context.Context, tests []m.TestCase)

	// DisplayBuildOutput surfaces build subprocess output.
	DisplayBuildOutput(ctx context.Context, output string)

	// DisplayTestStarting announces the next test (1-based index).
	DisplayTestStarting(ctx context.Context, test m.TestCase, index, total int)

	// DisplayTestCompleted reports one finished test.
	DisplayTestCompleted(ctx context.Context, outcome m.Outcome, index, total int)

	// DisplaySummary renders the top rows of the ranking.
	DisplaySummary(ctx context.Context, rows []m.Row, top int)

	// DisplayWarning surfaces a recoverable problem.
	DisplayWarning(ctx context.Context, message string)

	// DisplayInfo prints a progress note.
	DisplayInfo(ctx context.Context, message string)
}

// NewUI picks the TUI when the output is an interactive terminal and
// the plain writer otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
