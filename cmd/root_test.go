package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechild/sleuth/internal/domain"
)

// fakeWorkflow records the arguments each workflow entry point receives.
type fakeWorkflow struct {
	localizeArgs *domain.LocalizeArgs
	resetArgs    *domain.ResetArgs
	listArgs     *domain.ListArgs
	viewArgs     *domain.ViewArgs
	err          error
}

func (f *fakeWorkflow) Localize(_ context.Context, args domain.LocalizeArgs) error {
	f.localizeArgs = &args
	return f.err
}

func (f *fakeWorkflow) Reset(_ context.Context, args domain.ResetArgs) error {
	f.resetArgs = &args
	return f.err
}

func (f *fakeWorkflow) ListTests(_ context.Context, args domain.ListArgs) error {
	f.listArgs = &args
	return f.err
}

func (f *fakeWorkflow) View(_ context.Context, args domain.ViewArgs) error {
	f.viewArgs = &args
	return f.err
}

// newTestRootCmd builds a fresh root command wired to a recording
// workflow, with flag state reset between tests.
func newTestRootCmd(t *testing.T) (*cobra.Command, *fakeWorkflow, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())

	resetFlag = false
	verboseFlag = false
	cleanupFlag = false
	summaryFlag = false

	mock := &fakeWorkflow{}

	originalWorkflow := workflow
	workflow = mock

	t.Cleanup(func() { workflow = originalWorkflow })

	cmd := newRootCmd()
	configureRootFlags(cmd)

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	return cmd, mock, buf
}

func TestRootCmd_RunsLocalization(t *testing.T) {
	cmd, mock, _ := newTestRootCmd(t)

	cmd.SetArgs([]string{"sol", "App.Tests", "App", "--top", "5", "--report-format", "md", "--summary"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, mock.localizeArgs)
	assert.Equal(t, "sol", mock.localizeArgs.SolutionDir)
	assert.Equal(t, "App.Tests", mock.localizeArgs.TestProject)
	assert.Equal(t, "App", mock.localizeArgs.Project)
	assert.Equal(t, 5, mock.localizeArgs.Top)
	assert.Equal(t, "md", mock.localizeArgs.ReportFormat)
	assert.True(t, mock.localizeArgs.Summary)
	assert.Equal(t, defaultTestTimeout, mock.localizeArgs.TestTimeout)
	assert.Nil(t, mock.resetArgs)
}

func TestRootCmd_ResetFlagShortCircuits(t *testing.T) {
	cmd, mock, _ := newTestRootCmd(t)

	cmd.SetArgs([]string{"sol", "App.Tests", "App", "-r"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, mock.resetArgs)
	assert.Equal(t, "App", mock.resetArgs.Project)
	assert.Nil(t, mock.localizeArgs)
}

func TestRootCmd_WrongArgumentCount(t *testing.T) {
	cmd, mock, buf := newTestRootCmd(t)

	cmd.SetArgs([]string{"sol", "App.Tests"})
	err := cmd.Execute()

	require.Error(t, err)
	assert.Nil(t, mock.localizeArgs)
	assert.Contains(t, buf.String(), "Usage")
}

func TestRootCmd_UnknownFlagIsNotFatal(t *testing.T) {
	cmd, mock, _ := newTestRootCmd(t)

	cmd.SetArgs([]string{"sol", "App.Tests", "App", "--frobnicate"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, mock.localizeArgs)
	assert.Equal(t, "App", mock.localizeArgs.Project)
}

func TestRootCmd_ExcludePatternsReachWorkflow(t *testing.T) {
	cmd, mock, _ := newTestRootCmd(t)

	cmd.SetArgs([]string{"sol", "App.Tests", "App", "-x", "Generated", "-x", `\.Designer\.`})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, mock.localizeArgs)
	assert.Equal(t, []string{"Generated", `\.Designer\.`}, mock.localizeArgs.Exclude)
}

func TestNewRootCmd_Metadata(t *testing.T) {
	cmd := newRootCmd()

	assert.Contains(t, cmd.Use, "sleuth")
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.True(t, cmd.FParseErrWhitelist.UnknownFlags)
}
