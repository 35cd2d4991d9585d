// Package credit implements the multi-factor credit scoring engine used to
// evaluate farmers applying for agricultural financing.
//
// The engine is a pure function of an ApplicantProfile: it reads no clock,
// performs no I/O and holds no state between calls, so a single Engine may be
// shared by any number of goroutines.
package credit

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred       = decimal.NewFromInt(100)
	defaultEngine = NewEngine()
)

// Engine scores applicants against a fixed weight table.
type Engine struct {
	weights Weights
}

// NewEngine returns an engine using DefaultWeights. It panics if the table is
// invalid, which can only happen if the source table is edited incorrectly.
func NewEngine() *Engine {
	w := DefaultWeights()
	if err := w.Validate(); err != nil {
		panic("credit: " + err.Error())
	}
	return &Engine{weights: w}
}

// Score evaluates a profile with the default engine.
func Score(p ApplicantProfile) ScoreResult {
	return defaultEngine.Score(p)
}

// Score maps the profile to factor scores, folds them against the weight
// table and derives the tier decision. It never fails: absent optional data
// scores as the factor baseline.
func (e *Engine) Score(p ApplicantProfile) ScoreResult {
	factors := ScoreFactors(p)
	creditScore := Aggregate(factors, e.weights)
	tier := Classify(creditScore)

	return ScoreResult{
		CreditScore:     creditScore,
		RiskCategory:    tier.Category,
		FactorScores:    factors,
		Recommendations: tier.Recommendations,
		Eligibility:     tier.Eligibility(),
	}
}

// Weights returns a copy of the engine's weight table.
func (e *Engine) Weights() Weights {
	out := make(Weights, len(e.weights))
	for f, w := range e.weights {
		out[f] = w
	}
	return out
}

// Aggregate computes round(100 × Σ(score × weight) / Σ(100 × weight)).
//
// The fold runs in exact decimal arithmetic and rounds once, half-up, at the
// end; per-factor results are never rounded. The result is clamped to
// [0,100]. Factors missing from scores count as zero; NaN counts as zero and
// infinities are clamped to the factor range.
func Aggregate(scores FactorScores, weights Weights) int {
	weighted := decimal.Zero
	maxPossible := decimal.Zero
	for _, f := range Factors {
		w := weights[f]
		weighted = weighted.Add(decimal.NewFromFloat(finiteScore(scores[f])).Mul(w))
		maxPossible = maxPossible.Add(hundred.Mul(w))
	}
	if !maxPossible.IsPositive() {
		return 0
	}

	normalized := weighted.Mul(hundred).Div(maxPossible).Round(0).IntPart()
	switch {
	case normalized < 0:
		return 0
	case normalized > 100:
		return 100
	default:
		return int(normalized)
	}
}

func finiteScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if math.IsInf(v, 0) {
		return clamp(v)
	}
	return v
}
