package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/jakechild/sleuth/internal/model"
)

// recentLimit bounds the completed-test lines kept on screen.
const recentLimit = 5

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// TUI implements UI with a live Bubble Tea view while tests run. Output
// outside the run phase is plain styled text so logs stay readable.
type TUI struct {
	output  io.Writer
	program *tea.Program
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the live view for a run over totalTests tests.
func (t *TUI) Start(ctx context.Context, totalTests int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.program = tea.NewProgram(newRunModel(totalTests), tea.WithOutput(t.output))

	go func() {
		_, _ = t.program.Run()
	}()

	return nil
}

// Close stops the live view and waits for it to shut down.
func (t *TUI) Close(_ context.Context) {
	if t.program == nil {
		return
	}

	t.program.Quit()
	t.program.Wait()
	t.program = nil
}

// DisplayProjects shows the resolved project manifests.
func (t *TUI) DisplayProjects(ctx context.Context, solution, testProject, project m.Path) {
	if ctx.Err() != nil {
		return
	}

	fmt.Fprintf(t.output, "%s\n", headerStyle.Render("sleuth"))
	fmt.Fprintf(t.output, "  solution           %s\n", solution)
	fmt.Fprintf(t.output, "  test project       %s\n", testProject)
	fmt.Fprintf(t.output, "  project under test %s\n", project)
}

// DisplayInstrumentation reports how much source was instrumented.
func (t *TUI) DisplayInstrumentation(ctx context.Context, files, statements int) {
	if ctx.Err() != nil {
		return
	}

	fmt.Fprintf(t.output, "  instrumented %d statement(s) in %d file(s)\n", statements, files)
}

// DisplayTests lists discovered tests.
func (t *TUI) DisplayTests(ctx context.Context, tests []m.TestCase) {
	if ctx.Err() != nil {
		return
	}

	for _, test := range tests {
		fmt.Fprintf(t.output, "  %s %s\n", test.FullName(), dimStyle.Render("["+test.Attribute+"]"))
	}

	fmt.Fprintf(t.output, "  %d test(s)\n", len(tests))
}

// DisplayBuildOutput surfaces build subprocess output.
func (t *TUI) DisplayBuildOutput(ctx context.Context, output string) {
	if ctx.Err() != nil || output == "" {
		return
	}

	fmt.Fprintf(t.output, "%s\n", dimStyle.Render(output))
}

// DisplayTestStarting announces the next test.
func (t *TUI) DisplayTestStarting(ctx context.Context, test m.TestCase, index, total int) {
	if ctx.Err() != nil || t.program == nil {
		return
	}

	t.program.Send(testStartedMsg{name: test.FullName(), index: index, total: total})
}

// DisplayTestCompleted reports one finished test.
func (t *TUI) DisplayTestCompleted(ctx context.Context, outcome m.Outcome, _, _ int) {
	if ctx.Err() != nil || t.program == nil {
		return
	}

	t.program.Send(testFinishedMsg{outcome: outcome})
}

// DisplaySummary renders the top rows of the ranking after the live
// view has shut down.
func (t *TUI) DisplaySummary(ctx context.Context, rows []m.Row, top int) {
	if ctx.Err() != nil {
		return
	}

	fmt.Fprintf(t.output, "\n%s", RenderSummaryTable(rows, top))
}

// DisplayWarning surfaces a recoverable problem.
func (t *TUI) DisplayWarning(ctx context.Context, message string) {
	if ctx.Err() != nil {
		return
	}

	if t.program != nil {
		t.program.Send(warningMsg{text: message})
		return
	}

	fmt.Fprintf(t.output, "%s\n", warningStyle.Render("warning: "+message))
}

// DisplayInfo prints a progress note.
func (t *TUI) DisplayInfo(ctx context.Context, message string) {
	if ctx.Err() != nil {
		return
	}

	if t.program != nil {
		return
	}

	fmt.Fprintf(t.output, "%s\n", message)
}

type testStartedMsg struct {
	name  string
	index int
	total int
}

type testFinishedMsg struct {
	outcome m.Outcome
}

type warningMsg struct {
	text string
}

// runModel is the Bubble Tea model for the test-execution phase.
type runModel struct {
	spinner  spinner.Model
	progress progress.Model
	total    int
	done     int
	failed   int
	current  string
	recent   []string
	warnings []string
	quitting bool
}

func newRunModel(total int) runModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return runModel{
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		total:    total,
	}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			rm.quitting = true
			return rm, tea.Quit
		}

		return rm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd

		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd

	case testStartedMsg:
		rm.current = fmt.Sprintf("[%d/%d] %s", msg.index, msg.total, msg.name)
		return rm, nil

	case testFinishedMsg:
		rm.done++

		line := passedStyle.Render("✓ " + msg.outcome.Test.FullName())
		if !msg.outcome.Passed() {
			rm.failed++
			line = failedStyle.Render("✗ " + msg.outcome.Test.FullName() + " (" + msg.outcome.Status.String() + ")")
		}

		rm.recent = append(rm.recent, line)
		if len(rm.recent) > recentLimit {
			rm.recent = rm.recent[len(rm.recent)-recentLimit:]
		}

		return rm, nil

	case warningMsg:
		rm.warnings = append(rm.warnings, msg.text)
		return rm, nil
	}

	return rm, nil
}

func (rm runModel) View() string {
	if rm.quitting {
		return ""
	}

	var b strings.Builder

	ratio := 0.0
	if rm.total > 0 {
		ratio = float64(rm.done) / float64(rm.total)
	}

	b.WriteString(rm.spinner.View() + " " + rm.current + "\n")
	b.WriteString(rm.progress.ViewAs(ratio) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d done, %d failed", rm.done, rm.total, rm.failed)) + "\n")

	for _, line := range rm.recent {
		b.WriteString(line + "\n")
	}

	for _, warning := range rm.warnings {
		b.WriteString(warningStyle.Render("warning: "+warning) + "\n")
	}

	return b.String()
}
