package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd_CallsDiscovery(t *testing.T) {
	cmd, mock, _ := newTestRootCmd(t)
	cmd.AddCommand(newListCmd())

	cmd.SetArgs([]string{"list", "sol", "App.Tests"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, mock.listArgs)
	assert.Equal(t, "sol", mock.listArgs.SolutionDir)
	assert.Equal(t, "App.Tests", mock.listArgs.TestProject)
	assert.NotEmpty(t, mock.listArgs.Attributes)
	assert.Nil(t, mock.localizeArgs)
}

func TestListCmd_RequiresTwoArgs(t *testing.T) {
	cmd, mock, _ := newTestRootCmd(t)
	cmd.AddCommand(newListCmd())

	cmd.SetArgs([]string{"list", "sol"})
	require.Error(t, cmd.Execute())
	assert.Nil(t, mock.listArgs)
}
