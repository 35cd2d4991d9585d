package credit

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// LoanStatusRepaid is the only previous-loan status that counts toward the
// repayment ratio. Any other status (defaulted, active, written off) counts
// against it.
const LoanStatusRepaid = "repaid"

// LoanRecord is one entry of an applicant's borrowing history.
type LoanRecord struct {
	Status string `json:"status" yaml:"status"`
}

// ApplicantProfile describes a farmer applying for agricultural financing.
//
// FarmSize and Experience are mandatory and must be validated by the caller.
// Every other field is optional: its zero value means "not present" and
// scores as the factor baseline.
type ApplicantProfile struct {
	FarmSize   float64 `json:"farmSize" yaml:"farmSize"`
	Experience float64 `json:"experience" yaml:"experience"`

	PreviousLoans       []LoanRecord `json:"previousLoans,omitempty" yaml:"previousLoans,omitempty"`
	BankStatements      bool         `json:"bankStatements,omitempty" yaml:"bankStatements,omitempty"`
	FinancialStatements bool         `json:"financialStatements,omitempty" yaml:"financialStatements,omitempty"`
	TaxReturns          bool         `json:"taxReturns,omitempty" yaml:"taxReturns,omitempty"`

	Crops []string `json:"crops,omitempty" yaml:"crops,omitempty"`

	MarketContracts       bool `json:"marketContracts,omitempty" yaml:"marketContracts,omitempty"`
	ExportLicense         bool `json:"exportLicense,omitempty" yaml:"exportLicense,omitempty"`
	CooperativeMembership bool `json:"cooperativeMembership,omitempty" yaml:"cooperativeMembership,omitempty"`
	DirectMarketAccess    bool `json:"directMarketAccess,omitempty" yaml:"directMarketAccess,omitempty"`

	IrrigationSystem     bool `json:"irrigationSystem,omitempty" yaml:"irrigationSystem,omitempty"`
	ModernEquipment      bool `json:"modernEquipment,omitempty" yaml:"modernEquipment,omitempty"`
	PrecisionFarming     bool `json:"precisionFarming,omitempty" yaml:"precisionFarming,omitempty"`
	DigitalTools         bool `json:"digitalTools,omitempty" yaml:"digitalTools,omitempty"`
	SustainablePractices bool `json:"sustainablePractices,omitempty" yaml:"sustainablePractices,omitempty"`

	CropInsurance      bool `json:"cropInsurance,omitempty" yaml:"cropInsurance,omitempty"`
	EquipmentInsurance bool `json:"equipmentInsurance,omitempty" yaml:"equipmentInsurance,omitempty"`
	LiabilityInsurance bool `json:"liabilityInsurance,omitempty" yaml:"liabilityInsurance,omitempty"`
}

// Factor names one scoring dimension.
type Factor string

const (
	FactorFarmSize            Factor = "farmSize"
	FactorExperience          Factor = "experience"
	FactorFinancialHistory    Factor = "financialHistory"
	FactorCropDiversification Factor = "cropDiversification"
	FactorMarketAccess        Factor = "marketAccess"
	FactorTechnologyAdoption  Factor = "technologyAdoption"
	FactorInsuranceCoverage   Factor = "insuranceCoverage"
)

// Factors lists every scoring dimension in evaluation order.
var Factors = []Factor{
	FactorFarmSize,
	FactorExperience,
	FactorFinancialHistory,
	FactorCropDiversification,
	FactorMarketAccess,
	FactorTechnologyAdoption,
	FactorInsuranceCoverage,
}

// FactorScores maps each factor to its normalized sub-score in [0,100].
type FactorScores map[Factor]float64

// RiskCategory is the discrete classification of a credit score.
type RiskCategory string

const (
	RiskLow      RiskCategory = "LowRisk"
	RiskMedium   RiskCategory = "MediumRisk"
	RiskModerate RiskCategory = "ModerateRisk"
	RiskHigh     RiskCategory = "HighRisk"
)

// String returns the category name.
func (c RiskCategory) String() string {
	return string(c)
}

// Eligibility is the loan decision derived from the risk tier.
type Eligibility struct {
	Approved bool
	// MaxLoanAmount is the loan ceiling in the platform currency.
	MaxLoanAmount decimal.Decimal
	// InterestRateAdjustment is a signed delta in percentage points applied
	// to the base rate.
	InterestRateAdjustment int
}

// eligibilityWire is the serialized form of Eligibility. The loan ceiling is
// written as a plain JSON number rather than decimal's quoted string.
type eligibilityWire struct {
	Approved               bool        `json:"approved"`
	MaxLoanAmount          json.Number `json:"maxLoanAmount"`
	InterestRateAdjustment int         `json:"interestRateAdjustment"`
}

func (e Eligibility) wire() eligibilityWire {
	return eligibilityWire{
		Approved:               e.Approved,
		MaxLoanAmount:          json.Number(e.MaxLoanAmount.String()),
		InterestRateAdjustment: e.InterestRateAdjustment,
	}
}

// MarshalJSON implements json.Marshaler.
func (e Eligibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

// MarshalYAML implements yaml.Marshaler.
func (e Eligibility) MarshalYAML() (any, error) {
	return struct {
		Approved               bool    `yaml:"approved"`
		MaxLoanAmount          float64 `yaml:"maxLoanAmount"`
		InterestRateAdjustment int     `yaml:"interestRateAdjustment"`
	}{
		Approved:               e.Approved,
		MaxLoanAmount:          e.MaxLoanAmount.InexactFloat64(),
		InterestRateAdjustment: e.InterestRateAdjustment,
	}, nil
}

// ScoreResult is the outcome of scoring one applicant. A result is built
// fresh per call and shares no memory with the engine's static tables.
type ScoreResult struct {
	CreditScore     int          `json:"creditScore" yaml:"creditScore"`
	RiskCategory    RiskCategory `json:"riskCategory" yaml:"riskCategory"`
	FactorScores    FactorScores `json:"factorScores" yaml:"factorScores"`
	Recommendations []string     `json:"recommendations" yaml:"recommendations"`
	Eligibility     Eligibility  `json:"eligibility" yaml:"eligibility"`
}
