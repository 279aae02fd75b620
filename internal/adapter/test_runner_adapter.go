package adapter

import (
	"bytes"
	"context"
	"os/exec"

	m "github.com/jakechild/sleuth/internal/model"
)

// TestRunnerAdapter abstracts the two subprocesses the runner invokes:
// one build of the test project, then one process per test. Any test
// framework whose runner exits zero iff the filtered test passed can be
// substituted here.
type TestRunnerAdapter interface {
	// BuildProject builds the test project once. Returns the combined
	// stdout/stderr output and any error.
	BuildProject(ctx context.Context, manifest m.Path) (output string, err error)

	// RunTest executes exactly one test, selected by fully-qualified
	// name, without rebuilding. A nil error means the test passed.
	RunTest(ctx context.Context, manifest m.Path, fullName string) (output string, err error)
}

// LocalTestRunnerAdapter drives the dotnet CLI via os/exec.
type LocalTestRunnerAdapter struct {
	tool string
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter using
// the given driver binary (normally "dotnet").
func NewLocalTestRunnerAdapter(tool string) *LocalTestRunnerAdapter {
	return &LocalTestRunnerAdapter{tool: tool}
}

// BuildProject runs one build of the test project, which also compiles
// the instrumented project under test it references.
func (a *LocalTestRunnerAdapter) BuildProject(ctx context.Context, manifest m.Path) (string, error) {
	return a.run(ctx, a.tool, "build", string(manifest), "--nologo")
}

// RunTest executes a single test by fully-qualified name. The build
// step already ran, so the runner is told not to rebuild; rebuilding
// here would race the coverage sink.
func (a *LocalTestRunnerAdapter) RunTest(ctx context.Context, manifest m.Path, fullName string) (string, error) {
	return a.run(ctx, a.tool, "test", string(manifest),
		"--no-build", "--nologo",
		"--filter", "FullyQualifiedName="+fullName,
	)
}

func (a *LocalTestRunnerAdapter) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.String() + stderr.String(), err
}
