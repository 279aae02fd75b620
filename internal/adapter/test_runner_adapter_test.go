package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests swap the driver binary for ubiquitous stand-ins instead
// of requiring a dotnet installation.

func TestBuildProject_SuccessfulDriver(t *testing.T) {
	adapter := NewLocalTestRunnerAdapter("echo")

	out, err := adapter.BuildProject(context.Background(), "App.Tests.csproj")
	require.NoError(t, err)
	assert.Contains(t, out, "App.Tests.csproj")
}

func TestRunTest_PassesFilterFlag(t *testing.T) {
	adapter := NewLocalTestRunnerAdapter("echo")

	out, err := adapter.RunTest(context.Background(), "App.Tests.csproj", "App.Tests.CalcTests.AddWorks")
	require.NoError(t, err)
	assert.Contains(t, out, "FullyQualifiedName=App.Tests.CalcTests.AddWorks")
	assert.Contains(t, out, "--no-build")
}

func TestRunTest_MissingDriverFails(t *testing.T) {
	adapter := NewLocalTestRunnerAdapter("definitely-not-a-real-binary")

	_, err := adapter.RunTest(context.Background(), "App.Tests.csproj", "T.M")
	assert.Error(t, err)
}

func TestRunTest_CancelledContextFails(t *testing.T) {
	adapter := NewLocalTestRunnerAdapter("echo")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.RunTest(ctx, "App.Tests.csproj", "T.M")
	assert.Error(t, err)
}
