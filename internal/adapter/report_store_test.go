package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/jakechild/sleuth/internal/model"
)

func TestReportStore_RoundTrip(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(t.TempDir())

	manifest := m.RunManifest{
		StartedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt:   time.Date(2025, 6, 1, 12, 3, 0, 0, time.UTC),
		SolutionDir:  "sol",
		TestProject:  "App.Tests",
		Project:      "App",
		Instrumented: 42,
		ReportPath:   "report.csv",
		Outcomes: []m.OutcomeRecord{
			{Test: "App.Tests.CalcTests.AddWorks", Status: "failed", Duration: 2 * time.Second, Covered: 7},
			{Test: "App.Tests.CalcTests.SubWorks", Status: "passed", Duration: time.Second, NoCoverage: true},
		},
	}

	require.NoError(t, store.SaveRun(dir, manifest))

	loaded, err := store.LoadRun(dir)
	require.NoError(t, err)

	assert.Equal(t, manifest.SolutionDir, loaded.SolutionDir)
	assert.Equal(t, manifest.Instrumented, loaded.Instrumented)
	require.Len(t, loaded.Outcomes, 2)
	assert.Equal(t, manifest.Outcomes[0], loaded.Outcomes[0])
	assert.True(t, loaded.Outcomes[1].NoCoverage)
}

func TestReportStore_LoadMissing(t *testing.T) {
	store := NewReportStore()

	_, err := store.LoadRun(m.Path(t.TempDir()))
	assert.Error(t, err)
}
