package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jakechild/sleuth/internal/adapter"
	m "github.com/jakechild/sleuth/internal/model"
)

// TempCoverageName is the well-known file every probe appends to. The
// runner promotes it to the per-test name after each test, so it is a
// singleton rendezvous: tests must never run in parallel.
const TempCoverageName = "__current.coverage.tmp"

// CoverageExt is the suffix of promoted per-test coverage files.
const CoverageExt = ".coverage"

// ErrBuildFailed marks a failed build of the test project. The run
// aborts and no report is emitted.
var ErrBuildFailed = errors.New("build failed")

// Runner executes discovered tests one at a time and promotes the
// temporary coverage file after each, so no probe write from test N+1
// can land in test N's coverage.
type Runner struct {
	fs      adapter.SourceFSAdapter
	tests   adapter.TestRunnerAdapter
	timeout time.Duration
}

// NewRunner constructs a Runner with the given per-test wall-clock
// timeout.
func NewRunner(fs adapter.SourceFSAdapter, tests adapter.TestRunnerAdapter, timeout time.Duration) *Runner {
	return &Runner{
		fs:      fs,
		tests:   tests,
		timeout: timeout,
	}
}

// Prepare clears and recreates the coverage directory. Per-entry delete
// failures are warned about, not fatal.
func (r *Runner) Prepare(coverageDir m.Path) error {
	if err := r.fs.ClearDir(coverageDir); err != nil {
		slog.Warn("could not fully clear coverage directory", "dir", coverageDir, "error", err)
	}

	if err := r.fs.EnsureDir(coverageDir); err != nil {
		return fmt.Errorf("create coverage directory %s: %w", coverageDir, err)
	}

	return nil
}

// Build invokes the build subprocess once for the whole run. Its output
// is returned for surfacing; a non-zero exit wraps ErrBuildFailed.
func (r *Runner) Build(ctx context.Context, manifest m.Path) (string, error) {
	output, err := r.tests.BuildProject(ctx, manifest)
	if err != nil {
		return output, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	return output, nil
}

// RunOne executes a single test to completion or timeout, then promotes
// its coverage. Promotion always happens before RunOne returns, which
// is what keeps per-test coverage attribution sound.
func (r *Runner) RunOne(ctx context.Context, manifest m.Path, test m.TestCase, coverageDir m.Path) m.Outcome {
	testCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()

	output, err := r.tests.RunTest(testCtx, manifest, test.FullName())

	outcome := m.Outcome{
		Test:     test,
		Duration: time.Since(started),
	}

	switch {
	case errors.Is(testCtx.Err(), context.DeadlineExceeded):
		outcome.Status = m.StatusTimedOut

		slog.Warn("test timed out and was killed", "test", test.FullName(), "timeout", r.timeout)
	case err != nil:
		outcome.Status = m.StatusFailed

		slog.Debug("test failed", "test", test.FullName(), "error", err, "output", output)
	default:
		outcome.Status = m.StatusPassed
	}

	outcome.Promoted = r.promote(test, coverageDir)

	return outcome
}

// promote moves the temporary coverage file to the test's final name.
// An absent temporary means the test exercised nothing we instrumented;
// the test stays in the pass/fail vector with empty coverage.
func (r *Runner) promote(test m.TestCase, coverageDir m.Path) bool {
	tmp := m.Path(filepath.Join(string(coverageDir), TempCoverageName))
	final := m.Path(filepath.Join(string(coverageDir), test.Stem()+CoverageExt))

	// Leftover temp cleanup runs regardless of how promotion goes, so a
	// failed rename cannot leak this test's probe writes into the next
	// test's coverage.
	defer func() {
		if err := r.fs.Remove(tmp); err != nil {
			slog.Warn("could not remove temporary coverage file", "path", tmp, "error", err)
		}
	}()

	if !r.fs.FileExists(tmp) {
		slog.Warn("test produced no coverage", "test", test.FullName())
		return false
	}

	if err := r.fs.Promote(tmp, final); err != nil {
		slog.Warn("coverage promotion failed; test will contribute empty coverage",
			"test", test.FullName(), "error", err)

		return false
	}

	return true
}
