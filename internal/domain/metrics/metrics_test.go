package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/jakechild/sleuth/internal/model"
)

func score(t *testing.T, f Formula, tally m.Tally) float64 {
	t.Helper()

	value, defined := f.Score(tally)
	require.True(t, defined, "%s should be defined on %+v", f.Name(), tally)

	return value
}

func undefined(t *testing.T, f Formula, tally m.Tally) {
	t.Helper()

	_, defined := f.Score(tally)
	require.False(t, defined, "%s should be undefined on %+v", f.Name(), tally)
}

func TestAllFormulas_UndefinedWithoutFailureEvidence(t *testing.T) {
	// A statement covered by zero failing tests has no failure evidence
	// and every metric is undefined on it, not zero.
	tally := m.Tally{CoveredPassed: 3, UncoveredFailed: 1, UncoveredPassed: 2}

	for _, f := range All() {
		undefined(t, f, tally)
	}
}

func TestTarantula_SingleFailingTest(t *testing.T) {
	// One failing test covering one statement, no passing tests: the
	// passing branch contributes nothing and the score is exactly 1.
	tally := m.Tally{CoveredFailed: 1}

	assert.InDelta(t, 1.0, score(t, Tarantula{}, tally), 1e-9)
}

func TestTarantula_MixedCoverage(t *testing.T) {
	// e_f=1, n_f=0, e_p=1, n_p=0: fail ratio 1, pass ratio 1 -> 0.5.
	tally := m.Tally{CoveredFailed: 1, CoveredPassed: 1}

	assert.InDelta(t, 0.5, score(t, Tarantula{}, tally), 1e-9)
}

func TestOchiai_SeedValues(t *testing.T) {
	// Coverage t1={x,y} (failed), t2={y,z} (passed).
	x := m.Tally{CoveredFailed: 1, UncoveredPassed: 1}
	y := m.Tally{CoveredFailed: 1, CoveredPassed: 1}

	assert.InDelta(t, 1.0, score(t, Ochiai{}, x), 1e-6)
	assert.InDelta(t, 0.707107, score(t, Ochiai{}, y), 1e-6)

	z := m.Tally{CoveredPassed: 1, UncoveredFailed: 1}
	undefined(t, Ochiai{}, z)
}

func TestDStar_Values(t *testing.T) {
	tests := []struct {
		name  string
		tally m.Tally
		want  float64
	}{
		{"squared numerator", m.Tally{CoveredFailed: 3, CoveredPassed: 1, UncoveredFailed: 2}, 3.0},
		{"passing only denominator", m.Tally{CoveredFailed: 2, CoveredPassed: 4}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, score(t, DStar{}, tt.tally), 1e-9)
		})
	}
}

func TestDStar_InfiniteOnZeroDenominator(t *testing.T) {
	// e_f > 0 with e_p + n_f = 0 divides by zero with a strictly
	// positive numerator: positive infinity, still defined.
	value, defined := DStar{}.Score(m.Tally{CoveredFailed: 2, UncoveredPassed: 5})

	require.True(t, defined)
	assert.True(t, math.IsInf(value, 1))
}

func TestOp2_Values(t *testing.T) {
	// e_f - e_p/(e_p + n_p + 1); the +1 keeps the denominator nonzero.
	tally := m.Tally{CoveredFailed: 2, CoveredPassed: 1, UncoveredPassed: 3}

	assert.InDelta(t, 2.0-1.0/5.0, score(t, Op2{}, tally), 1e-9)

	noPassing := m.Tally{CoveredFailed: 1}
	assert.InDelta(t, 1.0, score(t, Op2{}, noPassing), 1e-9)
}

func TestJaccard_Values(t *testing.T) {
	tally := m.Tally{CoveredFailed: 2, UncoveredFailed: 1, CoveredPassed: 1}

	assert.InDelta(t, 0.5, score(t, Jaccard{}, tally), 1e-9)
}

func TestByName(t *testing.T) {
	for _, name := range []string{TarantulaName, OchiaiName, DStarName, Op2Name, JaccardName} {
		f, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, f.Name())
	}

	_, ok := ByName("nope")
	assert.False(t, ok)
}

func TestAll_ColumnOrder(t *testing.T) {
	names := make([]string, 0, len(All()))
	for _, f := range All() {
		names = append(names, f.Name())
	}

	assert.Equal(t, []string{TarantulaName, OchiaiName, DStarName, Op2Name, JaccardName}, names)
}
