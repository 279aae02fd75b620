package controller

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/jakechild/sleuth/internal/model"
)

func TestRunModel_TracksProgress(t *testing.T) {
	model := newRunModel(3)

	updated, _ := model.Update(testStartedMsg{name: "N.T.A", index: 1, total: 3})
	rm, ok := updated.(runModel)
	require.True(t, ok)
	assert.Contains(t, rm.View(), "[1/3] N.T.A")

	updated, _ = rm.Update(testFinishedMsg{outcome: m.Outcome{
		Test:   m.TestCase{Namespace: "N", Type: "T", Method: "A"},
		Status: m.StatusPassed,
	}})
	rm = updated.(runModel)

	assert.Equal(t, 1, rm.done)
	assert.Zero(t, rm.failed)
	assert.Contains(t, rm.View(), "1/3 done, 0 failed")
}

func TestRunModel_FailedTestsAreMarked(t *testing.T) {
	model := newRunModel(1)

	updated, _ := model.Update(testFinishedMsg{outcome: m.Outcome{
		Test:   m.TestCase{Type: "T", Method: "B"},
		Status: m.StatusTimedOut,
	}})
	rm := updated.(runModel)

	assert.Equal(t, 1, rm.failed)
	assert.Contains(t, rm.View(), "T.B")
	assert.Contains(t, rm.View(), "timed out")
}

func TestRunModel_RecentListIsBounded(t *testing.T) {
	model := newRunModel(recentLimit + 3)

	var updated tea.Model = model

	for i := 0; i < recentLimit+3; i++ {
		updated, _ = updated.(runModel).Update(testFinishedMsg{outcome: m.Outcome{
			Test:   m.TestCase{Type: "T", Method: "M"},
			Status: m.StatusPassed,
		}})
	}

	rm := updated.(runModel)
	assert.Len(t, rm.recent, recentLimit)
}

func TestRunModel_QuitKeys(t *testing.T) {
	model := newRunModel(1)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	rm := updated.(runModel)

	assert.True(t, rm.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, rm.View())
}

func TestRunModel_Warnings(t *testing.T) {
	model := newRunModel(1)

	updated, _ := model.Update(warningMsg{text: "no coverage for T.M"})
	rm := updated.(runModel)

	assert.Contains(t, rm.View(), "no coverage for T.M")
}
