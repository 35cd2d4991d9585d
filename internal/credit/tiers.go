package credit

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Tier is one row of the risk classification table.
type Tier struct {
	Category               RiskCategory
	MinScore               int
	Approved               bool
	MaxLoanAmount          decimal.Decimal
	InterestRateAdjustment int
	Recommendations        []string
}

// tierIndex orders the tier table from best to worst.
type tierIndex int

const (
	tierLow tierIndex = iota
	tierMedium
	tierModerate
	tierHigh
	tierCount
)

// tiers is evaluated top to bottom; the first tier whose MinScore the score
// reaches wins. The HighRisk row must stay last with MinScore 0.
var tiers = [tierCount]Tier{
	tierLow: {
		Category:               RiskLow,
		MinScore:               80,
		Approved:               true,
		MaxLoanAmount:          decimal.NewFromInt(5_000_000),
		InterestRateAdjustment: -2,
		Recommendations: []string{
			"Eligible for premium loan products with preferential interest rates",
			"Consider expanding operations with long-term capital investment",
			"Explore export market opportunities to further diversify revenue",
			"Maintain current financial documentation and insurance coverage",
		},
	},
	tierMedium: {
		Category:               RiskMedium,
		MinScore:               65,
		Approved:               true,
		MaxLoanAmount:          decimal.NewFromInt(2_000_000),
		InterestRateAdjustment: -1,
		Recommendations: []string{
			"Eligible for standard loan products with a reduced interest rate",
			"Increase crop diversification to strengthen your risk profile",
			"Adopt additional modern farming technologies to improve productivity",
			"Consider comprehensive insurance coverage for crops and equipment",
		},
	},
	tierModerate: {
		Category:               RiskModerate,
		MinScore:               50,
		Approved:               true,
		MaxLoanAmount:          decimal.NewFromInt(500_000),
		InterestRateAdjustment: 0,
		Recommendations: []string{
			"Eligible for basic loan products at the standard interest rate",
			"Build a stronger financial history by keeping complete records",
			"Join a farmer cooperative to improve market access",
			"Invest in irrigation and sustainable farming practices",
		},
	},
	tierHigh: {
		Category:               RiskHigh,
		MinScore:               0,
		Approved:               false,
		MaxLoanAmount:          decimal.Zero,
		InterestRateAdjustment: 2,
		Recommendations: []string{
			"Focus on building a credit history through smaller microfinance loans",
			"Prepare bank statements, financial statements and tax returns",
			"Secure market contracts before reapplying for financing",
			"Obtain crop insurance to reduce lending risk",
		},
	},
}

// Classify maps a credit score to its tier. Scores below every threshold,
// including negative ones, fall into HighRisk.
func Classify(creditScore int) Tier {
	for i := tierLow; i < tierHigh; i++ {
		if creditScore >= tiers[i].MinScore {
			return tiers[i].clone()
		}
	}
	return tiers[tierHigh].clone()
}

// Tiers returns a copy of the classification table, best tier first.
func Tiers() []Tier {
	out := make([]Tier, 0, tierCount)
	for i := tierLow; i < tierCount; i++ {
		out = append(out, tiers[i].clone())
	}
	return out
}

// Eligibility returns the loan decision carried by the tier.
func (t Tier) Eligibility() Eligibility {
	return Eligibility{
		Approved:               t.Approved,
		MaxLoanAmount:          t.MaxLoanAmount,
		InterestRateAdjustment: t.InterestRateAdjustment,
	}
}

func (t Tier) clone() Tier {
	t.Recommendations = slices.Clone(t.Recommendations)
	return t
}
