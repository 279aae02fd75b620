package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jakechild/sleuth/internal/adapter"
	"github.com/jakechild/sleuth/internal/controller"
	m "github.com/jakechild/sleuth/internal/model"
	pkg "github.com/jakechild/sleuth/pkg"
)

// manifestExt is the project-manifest extension used for resolution.
const manifestExt = ".csproj"

// journalName is the outcome journal written into the reports dir.
const journalName = "outcomes.journal"

// defaultSummaryRows is how many ranking rows the console summary shows
// when no top-N filter is set.
const defaultSummaryRows = 10

// Workflow is the high-level application service behind the CLI.
type Workflow interface {
	Localize(ctx context.Context, args LocalizeArgs) error
	Reset(ctx context.Context, args ResetArgs) error
	ListTests(ctx context.Context, args ListArgs) error
	View(ctx context.Context, args ViewArgs) error
}

// LocalizeArgs parameterises a full localization run.
type LocalizeArgs struct {
	SolutionDir   string
	TestProject   string
	Project       string
	CoverageDir   m.Path
	ReportsDir    m.Path
	ReportFormat  string
	ReportPath    m.Path
	PrimaryMetric string
	Top           int
	Summary       bool
	Cleanup       bool
	Verbose       bool
	Exclude       []string
	Attributes    []string
	TestTimeout   time.Duration
	Workers       int
}

// ResetArgs parameterises probe stripping and coverage cleanup.
type ResetArgs struct {
	SolutionDir string
	Project     string
	CoverageDir m.Path
}

// ListArgs parameterises test discovery listing.
type ListArgs struct {
	SolutionDir string
	TestProject string
	Attributes  []string
	Workers     int
}

// ViewArgs parameterises run-manifest viewing.
type ViewArgs struct {
	ReportsDir m.Path
}

type workflow struct {
	files adapter.CSharpFileAdapter
	fs    adapter.SourceFSAdapter
	tests adapter.TestRunnerAdapter
	store adapter.ReportStore
	ui    controller.UI
}

// NewWorkflow creates a Workflow using the provided dependencies.
func NewWorkflow(
	files adapter.CSharpFileAdapter,
	fs adapter.SourceFSAdapter,
	tests adapter.TestRunnerAdapter,
	store adapter.ReportStore,
	ui controller.UI,
) Workflow {
	return &workflow{
		files: files,
		fs:    fs,
		tests: tests,
		store: store,
		ui:    ui,
	}
}

// Localize runs the whole pipeline: instrument, discover, build, run
// every test, load coverage, rank, and write the report. Tests failing
// is a normal result; errors come from setup (arguments, project
// resolution, the coverage directory, exclude patterns, duplicate sids,
// tree scans), the build, cancellation, and the report write.
func (w *workflow) Localize(ctx context.Context, args LocalizeArgs) error {
	format, err := ParseFormat(args.ReportFormat)
	if err != nil {
		return err
	}

	ranker, err := NewRanker(args.PrimaryMetric)
	if err != nil {
		return err
	}

	testManifest, productionRoot, err := w.resolveProjects(args.SolutionDir, args.TestProject, args.Project)
	if err != nil {
		return err
	}

	w.ui.DisplayProjects(ctx, m.Path(args.SolutionDir), testManifest, productionRoot)

	testRoot := m.Path(filepath.Dir(string(testManifest)))

	coverageDir, err := w.fs.Abs(args.CoverageDir)
	if err != nil {
		return fmt.Errorf("resolve coverage directory: %w", err)
	}

	runner := NewRunner(w.fs, w.tests, args.TestTimeout)

	if err := runner.Prepare(coverageDir); err != nil {
		return err
	}

	sink := m.Path(filepath.Join(string(coverageDir), TempCoverageName))

	statements, fileCount, tests, err := w.prepareSpectrumInputs(ctx, args, productionRoot, testRoot, sink)
	if err != nil {
		return err
	}

	w.ui.DisplayInstrumentation(ctx, fileCount, len(statements))

	started := time.Now()

	buildOutput, err := runner.Build(ctx, testManifest)
	if err != nil {
		w.ui.DisplayBuildOutput(ctx, buildOutput)
		return err
	}

	if args.Verbose {
		w.ui.DisplayBuildOutput(ctx, buildOutput)
	}

	outcomes := w.runTests(ctx, runner, testManifest, tests, coverageDir, args.ReportsDir)

	if err := ctx.Err(); err != nil {
		return err
	}

	coverage := NewCoverageLoader(w.fs).Load(coverageDir, tests)

	spectrum := m.Spectrum{
		Coverage: coverage,
		Passed:   passedVector(outcomes),
	}

	rows := ranker.Rank(spectrum, statements)

	if args.Top > 0 && len(rows) > args.Top {
		rows = rows[:args.Top]
	}

	reportPath, err := w.reportTarget(args.ReportPath, format)
	if err != nil {
		return err
	}

	if err := NewReporter(w.fs).Write(reportPath, format, rows); err != nil {
		return err
	}

	w.ui.DisplayInfo(ctx, fmt.Sprintf("report written to %s", reportPath))

	if args.Summary {
		top := args.Top
		if top <= 0 {
			top = defaultSummaryRows
		}

		w.ui.DisplaySummary(ctx, rows, top)
	}

	w.saveManifest(args, started, reportPath, len(statements), outcomes, coverage)

	if args.Cleanup {
		if err := w.stripTree(productionRoot); err != nil {
			slog.Warn("cleanup strip failed", "error", err)
			w.ui.DisplayWarning(ctx, fmt.Sprintf("cleanup strip failed: %v", err))
		}
	}

	return nil
}

// prepareSpectrumInputs instruments the production tree and discovers
// tests concurrently; the two touch disjoint trees.
func (w *workflow) prepareSpectrumInputs(
	ctx context.Context,
	args LocalizeArgs,
	productionRoot, testRoot, sink m.Path,
) (m.StatementMap, int, []m.TestCase, error) {
	exclude, err := compilePatterns(args.Exclude)
	if err != nil {
		return nil, 0, nil, err
	}

	var (
		statements m.StatementMap
		fileCount  int
		tests      []m.TestCase
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error

		statements, fileCount, err = w.instrumentTree(groupCtx, productionRoot, sink, exclude, args.Workers)

		return err
	})

	group.Go(func() error {
		var err error

		discovery := NewDiscovery(w.files, w.fs, args.Attributes, args.Workers)
		tests, err = discovery.DiscoverTests(groupCtx, testRoot)

		return err
	})

	if err := group.Wait(); err != nil {
		return nil, 0, nil, err
	}

	return statements, fileCount, tests, nil
}

// runTests executes every test serially in discovery order, journaling
// each outcome as it lands.
func (w *workflow) runTests(
	ctx context.Context,
	runner *Runner,
	testManifest m.Path,
	tests []m.TestCase,
	coverageDir m.Path,
	reportsDir m.Path,
) []m.Outcome {
	journal, err := pkg.NewJournal[m.Outcome](filepath.Join(string(reportsDir), journalName))
	if err != nil {
		slog.Warn("could not open outcome journal; continuing without it", "error", err)

		journal = nil
	}

	if journal != nil {
		defer func() {
			if err := journal.Close(); err != nil {
				slog.Warn("could not close outcome journal", "error", err)
			}
		}()
	}

	if err := w.ui.Start(ctx, len(tests)); err != nil {
		slog.Warn("could not start UI", "error", err)
	}

	defer w.ui.Close(ctx)

	outcomes := make([]m.Outcome, 0, len(tests))

	for i, test := range tests {
		if ctx.Err() != nil {
			break
		}

		w.ui.DisplayTestStarting(ctx, test, i+1, len(tests))

		outcome := runner.RunOne(ctx, testManifest, test, coverageDir)
		outcomes = append(outcomes, outcome)

		if journal != nil {
			if err := journal.Append(outcome); err != nil {
				slog.Warn("could not journal outcome", "test", test.FullName(), "error", err)
			}
		}

		w.ui.DisplayTestCompleted(ctx, outcome, i+1, len(tests))
	}

	return outcomes
}

// Reset strips every probe from the production tree and empties the
// coverage directory.
func (w *workflow) Reset(ctx context.Context, args ResetArgs) error {
	_, productionRoot, err := w.resolveProjects(args.SolutionDir, "", args.Project)
	if err != nil {
		return err
	}

	if err := w.stripTree(productionRoot); err != nil {
		return err
	}

	coverageDir, err := w.fs.Abs(args.CoverageDir)
	if err != nil {
		return fmt.Errorf("resolve coverage directory: %w", err)
	}

	if err := w.fs.ClearDir(coverageDir); err != nil {
		return fmt.Errorf("clear coverage directory: %w", err)
	}

	w.ui.DisplayInfo(ctx, "probes stripped and coverage cleared")

	return nil
}

// ListTests discovers and prints the test list without running anything.
func (w *workflow) ListTests(ctx context.Context, args ListArgs) error {
	testRoot, err := w.testProjectRoot(args.SolutionDir, args.TestProject)
	if err != nil {
		return err
	}

	discovery := NewDiscovery(w.files, w.fs, args.Attributes, args.Workers)

	tests, err := discovery.DiscoverTests(ctx, testRoot)
	if err != nil {
		return err
	}

	w.ui.DisplayTests(ctx, tests)

	return nil
}

// View prints the manifest of the last run.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	manifest, err := w.store.LoadRun(args.ReportsDir)
	if err != nil {
		return err
	}

	w.ui.DisplayInfo(ctx, fmt.Sprintf("run of %s (%s, %d statement(s) instrumented)",
		manifest.StartedAt.Format(time.RFC3339), manifest.SolutionDir, manifest.Instrumented))

	passed := 0

	for _, record := range manifest.Outcomes {
		mark := "✗"
		if record.Status == m.StatusPassed.String() {
			mark = "✓"
			passed++
		}

		w.ui.DisplayInfo(ctx, fmt.Sprintf("  %s %s (%s, %d covered)", mark, record.Test, record.Status, record.Covered))
	}

	w.ui.DisplayInfo(ctx, fmt.Sprintf("%d/%d passed; report: %s", passed, len(manifest.Outcomes), manifest.ReportPath))

	return nil
}

// resolveProjects locates the test project and production manifests
// under the solution directory. The production root is the directory
// holding the project-under-test's manifest. An empty testProject skips
// that lookup (reset path).
func (w *workflow) resolveProjects(solutionDir, testProject, project string) (m.Path, m.Path, error) {
	if info, err := os.Stat(solutionDir); err != nil || !info.IsDir() {
		return "", "", fmt.Errorf("solution directory %s not found", solutionDir)
	}

	var testManifest m.Path

	if testProject != "" {
		var err error

		testManifest, err = w.fs.FindFile(m.Path(solutionDir), testProject+manifestExt)
		if err != nil {
			return "", "", fmt.Errorf("resolve test project %s: %w", testProject, err)
		}
	}

	projectManifest, err := w.fs.FindFile(m.Path(solutionDir), project+manifestExt)
	if err != nil {
		return "", "", fmt.Errorf("resolve project under test %s: %w", project, err)
	}

	return testManifest, m.Path(filepath.Dir(string(projectManifest))), nil
}

func (w *workflow) testProjectRoot(solutionDir, testProject string) (m.Path, error) {
	manifest, err := w.fs.FindFile(m.Path(solutionDir), testProject+manifestExt)
	if err != nil {
		return "", fmt.Errorf("resolve test project %s: %w", testProject, err)
	}

	return m.Path(filepath.Dir(string(manifest))), nil
}

// instrumentTree instruments every candidate file under root. Parse and
// write failures skip the file with a warning; a duplicate sid aborts
// the run because attribution would be corrupt.
func (w *workflow) instrumentTree(
	ctx context.Context,
	root m.Path,
	sink m.Path,
	exclude []*regexp.Regexp,
	workers int,
) (m.StatementMap, int, error) {
	candidates, err := w.candidateSources(root, exclude)
	if err != nil {
		return nil, 0, err
	}

	rewriter := NewRewriter(w.files, w.fs)
	statements := make(m.StatementMap)

	var (
		mu        sync.Mutex
		fileCount int
		dupErr    error
	)

	if workers <= 0 {
		workers = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, file := range candidates {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			display, relErr := filepath.Rel(string(root), string(file))
			if relErr != nil {
				display = string(file)
			}

			found, err := rewriter.InstrumentFile(file, m.Path(display), sink)
			if err != nil {
				slog.Warn("skipping file", "file", file, "error", err)
				w.ui.DisplayWarning(groupCtx, fmt.Sprintf("skipping %s: %v", display, err))

				return nil
			}

			if len(found) == 0 {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()

			fileCount++

			for _, stmt := range found {
				if !statements.Add(stmt) {
					dupErr = fmt.Errorf("duplicate statement id %s in %s", stmt.ID, stmt.File)
					return dupErr
				}
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if dupErr != nil {
			return nil, 0, dupErr
		}

		return nil, 0, err
	}

	return statements, fileCount, nil
}

// stripTree removes probes from every source file under root,
// continuing past per-file failures.
func (w *workflow) stripTree(root m.Path) error {
	candidates, err := w.candidateSources(root, nil)
	if err != nil {
		return err
	}

	rewriter := NewRewriter(w.files, w.fs)

	for _, file := range candidates {
		if _, err := rewriter.StripFile(file); err != nil {
			slog.Warn("could not strip file", "file", file, "error", err)
		}
	}

	return nil
}

// candidateSources walks root collecting the C# files the rewriter may
// touch, honouring the shared ignore rules and user exclude patterns.
func (w *workflow) candidateSources(root m.Path, exclude []*regexp.Regexp) ([]m.Path, error) {
	var files []m.Path

	err := w.fs.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != string(root) && skipDirSegment(info.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".cs") || isGeneratedFile(path) {
			return nil
		}

		for _, pattern := range exclude {
			if pattern.MatchString(path) {
				return nil
			}
		}

		files = append(files, m.Path(path))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	return files, nil
}

func (w *workflow) reportTarget(explicit m.Path, format ReportFormat) (m.Path, error) {
	target := explicit
	if target == "" {
		target = m.Path(DefaultReportBase + format.Ext())
	}

	return w.fs.Abs(target)
}

func (w *workflow) saveManifest(
	args LocalizeArgs,
	started time.Time,
	reportPath m.Path,
	instrumented int,
	outcomes []m.Outcome,
	coverage map[string]m.SidSet,
) {
	manifest := m.RunManifest{
		StartedAt:    started,
		FinishedAt:   time.Now(),
		SolutionDir:  args.SolutionDir,
		TestProject:  args.TestProject,
		Project:      args.Project,
		Instrumented: instrumented,
		ReportPath:   string(reportPath),
	}

	for _, outcome := range outcomes {
		manifest.Outcomes = append(manifest.Outcomes, m.OutcomeRecord{
			Test:       outcome.Test.FullName(),
			Status:     outcome.Status.String(),
			Duration:   outcome.Duration,
			Covered:    len(coverage[outcome.Test.Stem()]),
			NoCoverage: !outcome.Promoted,
		})
	}

	if err := w.store.SaveRun(args.ReportsDir, manifest); err != nil {
		slog.Warn("could not save run manifest", "error", err)
	}
}

func passedVector(outcomes []m.Outcome) map[string]bool {
	passed := make(map[string]bool, len(outcomes))

	for _, outcome := range outcomes {
		passed[outcome.Test.Stem()] = outcome.Passed()
	}

	return passed
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}
