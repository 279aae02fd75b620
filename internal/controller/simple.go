package controller

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/jakechild/sleuth/internal/model"
)

// timeRounding keeps per-test durations readable in console output.
const timeRounding = 10 * time.Millisecond

// SimpleUI implements UI using the cobra command's output stream. It is
// the non-interactive fallback and the implementation tests drive.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start prepares the UI (no-op for SimpleUI).
func (s *SimpleUI) Start(ctx context.Context, _ int) error {
	return ctx.Err()
}

// Close finalises the UI (no-op for SimpleUI).
func (s *SimpleUI) Close(_ context.Context) {}

// DisplayProjects shows the resolved project manifests.
func (s *SimpleUI) DisplayProjects(ctx context.Context, solution, testProject, project m.Path) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Solution:           %s\n", solution)
	s.printf("Test project:       %s\n", testProject)
	s.printf("Project under test: %s\n", project)
}

// DisplayInstrumentation reports how much source was instrumented.
func (s *SimpleUI) DisplayInstrumentation(ctx context.Context, files, statements int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Instrumented %d statement(s) across %d file(s)\n", statements, files)
}

// DisplayTests lists discovered tests as a table.
func (s *SimpleUI) DisplayTests(ctx context.Context, tests []m.TestCase) {
	if ctx.Err() != nil {
		return
	}

	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Test", "Attribute", "File"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, test := range tests {
		table.Append([]string{test.FullName(), test.Attribute, string(test.File)})
	}

	table.SetFooter([]string{fmt.Sprintf("Total %d", len(tests)), "", ""})
	table.Render()

	s.printf("\n%s", buf.String())
}

// DisplayBuildOutput surfaces build subprocess output.
func (s *SimpleUI) DisplayBuildOutput(ctx context.Context, output string) {
	if ctx.Err() != nil || output == "" {
		return
	}

	s.printf("%s\n", output)
}

// DisplayTestStarting announces the next test.
func (s *SimpleUI) DisplayTestStarting(ctx context.Context, test m.TestCase, index, total int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("[%d/%d] %s ...\n", index, total, test.FullName())
}

// DisplayTestCompleted reports one finished test.
func (s *SimpleUI) DisplayTestCompleted(ctx context.Context, outcome m.Outcome, index, total int) {
	if ctx.Err() != nil {
		return
	}

	mark := "✓"
	if !outcome.Passed() {
		mark = "✗"
	}

	s.printf("[%d/%d] %s %s (%s, %s)\n",
		index, total, mark, outcome.Test.FullName(), outcome.Status, outcome.Duration.Round(timeRounding))
}

// DisplaySummary renders the top rows of the ranking as a table.
func (s *SimpleUI) DisplaySummary(ctx context.Context, rows []m.Row, top int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("\n%s", RenderSummaryTable(rows, top))
}

// DisplayWarning surfaces a recoverable problem.
func (s *SimpleUI) DisplayWarning(ctx context.Context, message string) {
	if ctx.Err() != nil {
		return
	}

	s.printf("warning: %s\n", message)
}

// DisplayInfo prints a progress note.
func (s *SimpleUI) DisplayInfo(ctx context.Context, message string) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s\n", message)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

// RenderSummaryTable renders the first top rows with every metric. It
// is shared by both UI implementations so the summary never depends on
// terminal capabilities.
func RenderSummaryTable(rows []m.Row, top int) string {
	if top <= 0 || top > len(rows) {
		top = len(rows)
	}

	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Statement", "Tarantula", "Ochiai", "D*", "Op2", "Jaccard"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, row := range rows[:top] {
		table.Append([]string{
			row.Statement.Display(),
			row.Scores["Tarantula"].Format("-"),
			row.Scores["Ochiai"].Format("-"),
			row.Scores["DStar"].Format("-"),
			row.Scores["Op2"].Format("-"),
			row.Scores["Jaccard"].Format("-"),
		})
	}

	table.SetFooter([]string{fmt.Sprintf("Top %d of %d", top, len(rows)), "", "", "", "", ""})
	table.Render()

	return buf.String()
}
