package model

import "time"

// RunManifest is the persisted record of one localization run: which
// projects were involved, how each test ended, and where the reports
// went. It is written next to the reports for post-mortem inspection.
type RunManifest struct {
	StartedAt    time.Time       `yaml:"started_at"`
	FinishedAt   time.Time       `yaml:"finished_at"`
	SolutionDir  string          `yaml:"solution_dir"`
	TestProject  string          `yaml:"test_project"`
	Project      string          `yaml:"project_under_test"`
	Instrumented int             `yaml:"instrumented_statements"`
	ReportPath   string          `yaml:"report_path,omitempty"`
	Outcomes     []OutcomeRecord `yaml:"outcomes"`
}

// OutcomeRecord is the manifest form of one test outcome.
type OutcomeRecord struct {
	Test       string        `yaml:"test"`
	Status     string        `yaml:"status"`
	Duration   time.Duration `yaml:"duration"`
	Covered    int           `yaml:"covered_statements"`
	NoCoverage bool          `yaml:"no_coverage,omitempty"`
}
