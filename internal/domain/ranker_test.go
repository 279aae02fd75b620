package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/jakechild/sleuth/internal/model"
)

func seedSpectrum() m.Spectrum {
	// Two tests, three statements: t1={x,y} failed, t2={y,z} passed.
	sp := m.NewSpectrum()
	sp.Coverage["T.One"] = m.SidSet{"x": {}, "y": {}}
	sp.Coverage["T.Two"] = m.SidSet{"y": {}, "z": {}}
	sp.Passed["T.One"] = false
	sp.Passed["T.Two"] = true

	return sp
}

func seedStatements() m.StatementMap {
	statements := make(m.StatementMap)
	statements.Add(m.Statement{ID: "x", File: "Calc.cs", Line: 3, Snippet: "return a - b;"})
	statements.Add(m.Statement{ID: "y", File: "Calc.cs", Line: 7, Snippet: "var c = a;"})
	statements.Add(m.Statement{ID: "z", File: "Calc.cs", Line: 11, Snippet: "return 0;"})

	return statements
}

func TestRanker_SeedOrderingAndScores(t *testing.T) {
	ranker, err := NewRanker("")
	require.NoError(t, err)

	rows := ranker.Rank(seedSpectrum(), seedStatements())
	require.Len(t, rows, 3)

	assert.Equal(t, m.StatementID("x"), rows[0].Statement.ID)
	assert.Equal(t, m.StatementID("y"), rows[1].Statement.ID)
	assert.Equal(t, m.StatementID("z"), rows[2].Statement.ID)

	assert.Equal(t, "1.000000", rows[0].Scores["Ochiai"].Format("-"))
	assert.Equal(t, "0.707107", rows[1].Scores["Ochiai"].Format("-"))
	assert.Equal(t, "-", rows[2].Scores["Ochiai"].Format("-"))
}

func TestRanker_UnknownPrimaryMetric(t *testing.T) {
	_, err := NewRanker("Bogus")
	assert.Error(t, err)
}

func TestRanker_Deterministic(t *testing.T) {
	ranker, err := NewRanker("")
	require.NoError(t, err)

	first := RenderCSV(ranker.Rank(seedSpectrum(), seedStatements()))
	second := RenderCSV(ranker.Rank(seedSpectrum(), seedStatements()))

	assert.Equal(t, first, second)
}

func TestRanker_TieBreaking(t *testing.T) {
	// b and a tie on every metric; the sid decides, ascending.
	sp := m.NewSpectrum()
	sp.Coverage["T.One"] = m.SidSet{"b": {}, "a": {}}
	sp.Passed["T.One"] = false

	statements := make(m.StatementMap)
	statements.Add(m.Statement{ID: "a", File: "f.cs", Line: 1})
	statements.Add(m.Statement{ID: "b", File: "f.cs", Line: 2})

	ranker, err := NewRanker("")
	require.NoError(t, err)

	rows := ranker.Rank(sp, statements)
	require.Len(t, rows, 2)
	assert.Equal(t, m.StatementID("a"), rows[0].Statement.ID)
	assert.Equal(t, m.StatementID("b"), rows[1].Statement.ID)
}

func TestRanker_HigherFailureCountBreaksScoreTies(t *testing.T) {
	// Two failing and two passing tests. "many" is covered by all four
	// (e_f=2, e_p=2): Ochiai 2/sqrt(2*4); "few" only by one failing test
	// (e_f=1, e_p=0): Ochiai 1/sqrt(2*1). Both equal 1/sqrt(2), so the
	// primary ties and the higher e_f must win, even though "few" sorts
	// first by sid.
	sp := m.NewSpectrum()
	sp.Coverage["T.F1"] = m.SidSet{"many": {}, "few": {}}
	sp.Coverage["T.F2"] = m.SidSet{"many": {}}
	sp.Coverage["T.P1"] = m.SidSet{"many": {}}
	sp.Coverage["T.P2"] = m.SidSet{"many": {}}
	sp.Passed["T.F1"] = false
	sp.Passed["T.F2"] = false
	sp.Passed["T.P1"] = true
	sp.Passed["T.P2"] = true

	statements := make(m.StatementMap)
	statements.Add(m.Statement{ID: "many", File: "f.cs", Line: 1})
	statements.Add(m.Statement{ID: "few", File: "f.cs", Line: 2})

	ranker, err := NewRanker("")
	require.NoError(t, err)

	rows := ranker.Rank(sp, statements)
	require.Len(t, rows, 2)

	assert.Equal(t, rows[0].Scores["Ochiai"].Value, rows[1].Scores["Ochiai"].Value)
	assert.Equal(t, m.StatementID("many"), rows[0].Statement.ID)
}

func TestRanker_UnknownSidKeepsRow(t *testing.T) {
	sp := m.NewSpectrum()
	sp.Coverage["T.One"] = m.SidSet{"ghost": {}}
	sp.Passed["T.One"] = false

	ranker, err := NewRanker("")
	require.NoError(t, err)

	rows := ranker.Rank(sp, make(m.StatementMap))
	require.Len(t, rows, 1)
	assert.Equal(t, "(unknown statement)", rows[0].Statement.Snippet)
}
