package credit

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Weights assigns each factor its share of the final score. The shares of a
// valid table sum to exactly one.
type Weights map[Factor]decimal.Decimal

// DefaultWeights returns the production weight table. A fresh map is built
// on every call so callers cannot alter the engine's table.
func DefaultWeights() Weights {
	return Weights{
		FactorFarmSize:            decimal.RequireFromString("0.20"),
		FactorExperience:          decimal.RequireFromString("0.15"),
		FactorFinancialHistory:    decimal.RequireFromString("0.25"),
		FactorCropDiversification: decimal.RequireFromString("0.10"),
		FactorMarketAccess:        decimal.RequireFromString("0.15"),
		FactorTechnologyAdoption:  decimal.RequireFromString("0.10"),
		FactorInsuranceCoverage:   decimal.RequireFromString("0.05"),
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, f := range Factors {
		total = total.Add(w[f])
	}
	return total
}

// Validate checks that every factor has a non-negative weight and that the
// weights sum to exactly one.
func (w Weights) Validate() error {
	for _, f := range Factors {
		v, ok := w[f]
		if !ok {
			return fmt.Errorf("missing weight for factor %s", f)
		}
		if v.IsNegative() {
			return fmt.Errorf("negative weight for factor %s: %s", f, v)
		}
	}
	if sum := w.Sum(); !sum.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("weights sum to %s, must sum to 1", sum)
	}
	return nil
}

// Float returns the weight of f as a float64, for display.
func (w Weights) Float(f Factor) float64 {
	return w[f].InexactFloat64()
}
