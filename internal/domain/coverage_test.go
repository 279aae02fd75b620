package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechild/sleuth/internal/adapter"
	m "github.com/jakechild/sleuth/internal/model"
)

func TestCoverageLoader_Load(t *testing.T) {
	dir := t.TempDir()

	content := "AAA-1\nBBB-2\naaa-1\n\n   \nCCC-3"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CalcTests.AddWorks.coverage"), []byte(content), 0o644))

	tests := []m.TestCase{
		{Type: "CalcTests", Method: "AddWorks"},
		{Type: "CalcTests", Method: "SubWorks"},
	}

	coverage := NewCoverageLoader(adapter.NewLocalSourceFSAdapter()).Load(m.Path(dir), tests)

	require.Len(t, coverage, 2)

	// Case-insensitive duplicates collapse, blanks drop, and the last
	// line needs no trailing newline.
	set := coverage["CalcTests.AddWorks"]
	assert.Len(t, set, 3)
	assert.True(t, set.Has("aaa-1"))
	assert.True(t, set.Has("AAA-1"))
	assert.True(t, set.Has("ccc-3"))

	// Missing coverage file: the test still appears, with an empty set.
	assert.Empty(t, coverage["CalcTests.SubWorks"])
}

func TestCoverageLoader_TrimsPartialTrailingLine(t *testing.T) {
	dir := t.TempDir()

	// A killed test can leave a partial last line with no terminator;
	// trimming keeps it as-is, which is a valid (if truncated) token
	// that simply won't match any statement. CRLF terminators on the
	// whole lines are trimmed away as well.
	content := "AAA-1\r\nBBB-2\r\nCCC"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "T.X.coverage"), []byte(content), 0o644))

	coverage := NewCoverageLoader(adapter.NewLocalSourceFSAdapter()).Load(m.Path(dir), []m.TestCase{{Type: "T", Method: "X"}})

	set := coverage["T.X"]
	assert.Len(t, set, 3)
	assert.True(t, set.Has("aaa-1"))
	assert.True(t, set.Has("bbb-2"))
	assert.True(t, set.Has("ccc"))
}
