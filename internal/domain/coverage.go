package domain

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jakechild/sleuth/internal/adapter"
	m "github.com/jakechild/sleuth/internal/model"
)

// CoverageLoader reads promoted per-test coverage files back into sid
// sets.
type CoverageLoader struct {
	fs adapter.SourceFSAdapter
}

// NewCoverageLoader constructs a CoverageLoader.
func NewCoverageLoader(fs adapter.SourceFSAdapter) *CoverageLoader {
	return &CoverageLoader{fs: fs}
}

// Load returns one sid set per test, keyed by stem. A missing or
// unreadable coverage file yields an empty set with a warning; the test
// still participates in the pass/fail vector. Lines are trimmed, blanks
// dropped, duplicates collapsed; a partial trailing line from a killed
// test falls out naturally.
func (l *CoverageLoader) Load(coverageDir m.Path, tests []m.TestCase) map[string]m.SidSet {
	coverage := make(map[string]m.SidSet, len(tests))

	for _, test := range tests {
		stem := test.Stem()
		coverage[stem] = l.loadOne(coverageDir, stem)
	}

	return coverage
}

func (l *CoverageLoader) loadOne(coverageDir m.Path, stem string) m.SidSet {
	set := make(m.SidSet)

	path := m.Path(filepath.Join(string(coverageDir), stem+CoverageExt))

	content, err := l.fs.ReadFile(path)
	if err != nil {
		slog.Warn("no coverage recorded for test", "test", stem, "path", path)
		return set
	}

	for _, line := range strings.Split(string(content), "\n") {
		sid := strings.TrimSpace(line)
		if sid == "" {
			continue
		}

		set.Add(m.StatementID(sid))
	}

	return set
}
