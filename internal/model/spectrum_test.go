package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidSet_CaseInsensitive(t *testing.T) {
	set := make(SidSet)
	set.Add("ABC-DEF")
	set.Add("abc-def")

	assert.Len(t, set, 1)
	assert.True(t, set.Has("Abc-Def"))
}

func TestStatementMap_RejectsDuplicates(t *testing.T) {
	statements := make(StatementMap)

	require.True(t, statements.Add(Statement{ID: "AAAA", File: "a.cs", Line: 1}))
	assert.False(t, statements.Add(Statement{ID: "aaaa", File: "b.cs", Line: 2}))
	assert.Len(t, statements, 1)
}

func TestStatementMap_LookupIsCaseInsensitive(t *testing.T) {
	statements := make(StatementMap)
	statements.Add(Statement{ID: "AbCd", File: "a.cs", Line: 3, Snippet: "return x;"})

	got, ok := statements.Lookup("aBcD")
	require.True(t, ok)
	assert.Equal(t, Path("a.cs"), got.File)
}

func TestTallyFor_CountsAllQuadrants(t *testing.T) {
	sp := NewSpectrum()
	sp.Coverage["T.Fail"] = SidSet{"x": {}, "y": {}}
	sp.Coverage["T.Pass"] = SidSet{"y": {}, "z": {}}
	sp.Passed["T.Fail"] = false
	sp.Passed["T.Pass"] = true

	tests := []struct {
		sid  StatementID
		want Tally
	}{
		{"x", Tally{CoveredFailed: 1, UncoveredPassed: 1}},
		{"y", Tally{CoveredFailed: 1, CoveredPassed: 1}},
		{"z", Tally{CoveredPassed: 1, UncoveredFailed: 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sid), func(t *testing.T) {
			assert.Equal(t, tt.want, sp.TallyFor(tt.sid))
		})
	}
}

func TestTallyFor_TestWithoutCoverageStillCounts(t *testing.T) {
	// A test whose coverage file was empty or missing must still feed
	// the uncovered quadrants for every statement.
	sp := NewSpectrum()
	sp.Coverage["T.Covers"] = SidSet{"x": {}}
	sp.Passed["T.Covers"] = false
	sp.Passed["T.Empty"] = true

	tally := sp.TallyFor("x")

	assert.Equal(t, Tally{CoveredFailed: 1, UncoveredPassed: 1}, tally)
}

func TestScore_Format(t *testing.T) {
	tests := []struct {
		name      string
		score     Score
		undefined string
		want      string
	}{
		{"six digits", Score{Value: 0.5, Defined: true}, "-", "0.500000"},
		{"rounding", Score{Value: 1.0 / 3.0, Defined: true}, "-", "0.333333"},
		{"one", Score{Value: 1, Defined: true}, "-", "1.000000"},
		{"infinity", Score{Value: math.Inf(1), Defined: true}, "-", "Infinity"},
		{"undefined dash", Score{}, "-", "-"},
		{"undefined empty", Score{}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.score.Format(tt.undefined))
		})
	}
}

func TestTestCase_Names(t *testing.T) {
	test := TestCase{Namespace: "App.Tests", Type: "CalcTests", Method: "Adds"}

	assert.Equal(t, "CalcTests.Adds", test.Stem())
	assert.Equal(t, "App.Tests.CalcTests.Adds", test.FullName())

	bare := TestCase{Type: "CalcTests", Method: "Adds"}
	assert.Equal(t, "CalcTests.Adds", bare.FullName())
}

func TestStatement_Display(t *testing.T) {
	s := Statement{File: "Calc.cs", Line: 12, Snippet: "return a + b;"}

	assert.Equal(t, "Calc.cs:12 return a + b;", s.Display())
}
