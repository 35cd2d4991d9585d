package credit

import (
	"math"

	"github.com/shopspring/decimal"

	platformstrings "agrifin/pkg/platform/strings"
)

const maxFactorScore = 100.0

// ScoreFactors computes the normalized sub-score of every factor for the
// profile. This is pure domain logic: no I/O, no clock, no randomness.
func ScoreFactors(p ApplicantProfile) FactorScores {
	return FactorScores{
		FactorFarmSize:            scoreFarmSize(p.FarmSize),
		FactorExperience:          scoreExperience(p.Experience),
		FactorFinancialHistory:    scoreFinancialHistory(p),
		FactorCropDiversification: scoreCropDiversification(p.Crops),
		FactorMarketAccess:        scoreMarketAccess(p),
		FactorTechnologyAdoption:  scoreTechnologyAdoption(p),
		FactorInsuranceCoverage:   scoreInsuranceCoverage(p),
	}
}

// scoreFarmSize is a step function over hectares.
func scoreFarmSize(hectares float64) float64 {
	switch {
	case hectares >= 100:
		return 100
	case hectares >= 50:
		return 80
	case hectares >= 20:
		return 60
	case hectares >= 10:
		return 40
	case hectares >= 5:
		return 20
	default:
		return 10
	}
}

// scoreExperience gives ten points per year, capped at 100. The product is
// taken in decimal so that 0.7 years scores 7, not 7.000000000000001.
func scoreExperience(years float64) float64 {
	switch {
	case math.IsNaN(years) || years <= 0:
		return 0
	case years >= maxFactorScore/10:
		return maxFactorScore
	}
	return decimal.NewFromFloat(years).Mul(decimal.NewFromInt(10)).InexactFloat64()
}

// scoreFinancialHistory starts from a neutral 50. A loan history replaces the
// baseline with the repayment percentage; each supporting document adds 10.
func scoreFinancialHistory(p ApplicantProfile) float64 {
	score := 50.0
	if total := len(p.PreviousLoans); total > 0 {
		repaid := 0
		for _, loan := range p.PreviousLoans {
			if loan.Status == LoanStatusRepaid {
				repaid++
			}
		}
		score = 100 * float64(repaid) / float64(total)
	}
	score += bonus(p.BankStatements, 10)
	score += bonus(p.FinancialStatements, 10)
	score += bonus(p.TaxReturns, 10)
	return clamp(score)
}

// scoreCropDiversification counts distinct, non-blank crop identifiers.
func scoreCropDiversification(crops []string) float64 {
	switch n := len(platformstrings.DedupeFold(crops)); {
	case n >= 5:
		return 100
	case n >= 3:
		return 80
	case n >= 2:
		return 60
	case n >= 1:
		return 40
	default:
		return 20
	}
}

func scoreMarketAccess(p ApplicantProfile) float64 {
	score := 30.0
	score += bonus(p.MarketContracts, 20)
	score += bonus(p.ExportLicense, 15)
	score += bonus(p.CooperativeMembership, 15)
	score += bonus(p.DirectMarketAccess, 20)
	return clamp(score)
}

func scoreTechnologyAdoption(p ApplicantProfile) float64 {
	score := 20.0
	score += bonus(p.IrrigationSystem, 15)
	score += bonus(p.ModernEquipment, 15)
	score += bonus(p.PrecisionFarming, 15)
	score += bonus(p.DigitalTools, 15)
	score += bonus(p.SustainablePractices, 20)
	return clamp(score)
}

// scoreInsuranceCoverage has no baseline: an uninsured farm scores 0.
func scoreInsuranceCoverage(p ApplicantProfile) float64 {
	score := 0.0
	score += bonus(p.CropInsurance, 40)
	score += bonus(p.EquipmentInsurance, 30)
	score += bonus(p.LiabilityInsurance, 30)
	return clamp(score)
}

func bonus(present bool, points float64) float64 {
	if present {
		return points
	}
	return 0
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(score, maxFactorScore))
}
