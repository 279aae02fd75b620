// Package metrics implements the suspiciousness formulas the ranker
// applies to each statement's spectrum tally. Formulas share one
// contract so new metrics slot in without touching the pipeline.
package metrics

import (
	"math"

	m "github.com/jakechild/sleuth/internal/model"
)

// Formula scores one statement's tally. A false second return means
// the metric is undefined on that tally, which is distinct from zero.
type Formula interface {
	Name() string
	Score(t m.Tally) (float64, bool)
}

// Names of the built-in formulas, in report column order.
const (
	TarantulaName = "Tarantula"
	OchiaiName    = "Ochiai"
	DStarName     = "DStar"
	Op2Name       = "Op2"
	JaccardName   = "Jaccard"
)

// dStarExponent is the star in D*. The common choice in the literature
// is 2 and the report column assumes it.
const dStarExponent = 2

// All returns the built-in formulas in report column order.
func All() []Formula {
	return []Formula{
		Tarantula{},
		Ochiai{},
		DStar{},
		Op2{},
		Jaccard{},
	}
}

// ByName resolves a formula, case-sensitively, from the built-in set.
func ByName(name string) (Formula, bool) {
	for _, f := range All() {
		if f.Name() == name {
			return f, true
		}
	}

	return nil, false
}

// A statement no failing test executed carries no failure evidence, so
// every formula is undefined on it. With failure evidence present, a
// zero denominator yields positive infinity.

// Tarantula is the classic pass/fail ratio metric.
type Tarantula struct{}

func (Tarantula) Name() string { return TarantulaName }

func (Tarantula) Score(t m.Tally) (float64, bool) {
	if t.CoveredFailed == 0 {
		return 0, false
	}

	failTotal := t.CoveredFailed + t.UncoveredFailed
	failRatio := float64(t.CoveredFailed) / float64(failTotal)

	passRatio := 0.0

	if passTotal := t.CoveredPassed + t.UncoveredPassed; passTotal > 0 {
		passRatio = float64(t.CoveredPassed) / float64(passTotal)
	}

	return failRatio / (failRatio + passRatio), true
}

// Ochiai is the cosine-style similarity metric.
type Ochiai struct{}

func (Ochiai) Name() string { return OchiaiName }

func (Ochiai) Score(t m.Tally) (float64, bool) {
	if t.CoveredFailed == 0 {
		return 0, false
	}

	den := math.Sqrt(float64((t.CoveredFailed + t.UncoveredFailed) * (t.CoveredFailed + t.CoveredPassed)))

	return float64(t.CoveredFailed) / den, true
}

// DStar emphasises failure evidence with a squared numerator.
type DStar struct{}

func (DStar) Name() string { return DStarName }

func (DStar) Score(t m.Tally) (float64, bool) {
	if t.CoveredFailed == 0 {
		return 0, false
	}

	num := math.Pow(float64(t.CoveredFailed), dStarExponent)

	den := t.CoveredPassed + t.UncoveredFailed
	if den == 0 {
		return math.Inf(1), true
	}

	return num / float64(den), true
}

// Op2 rewards failing coverage and lightly penalises passing coverage.
type Op2 struct{}

func (Op2) Name() string { return Op2Name }

func (Op2) Score(t m.Tally) (float64, bool) {
	if t.CoveredFailed == 0 {
		return 0, false
	}

	penalty := float64(t.CoveredPassed) / float64(t.CoveredPassed+t.UncoveredPassed+1)

	return float64(t.CoveredFailed) - penalty, true
}

// Jaccard is the set-overlap metric.
type Jaccard struct{}

func (Jaccard) Name() string { return JaccardName }

func (Jaccard) Score(t m.Tally) (float64, bool) {
	if t.CoveredFailed == 0 {
		return 0, false
	}

	return float64(t.CoveredFailed) / float64(t.CoveredFailed+t.UncoveredFailed+t.CoveredPassed), true
}
