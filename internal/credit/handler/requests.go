package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"agrifin/internal/credit"
	dErrors "agrifin/pkg/domain-errors"
)

// Number is a numeric field that may arrive as a JSON number or a string.
// Strings that do not parse as a real number coerce to 0. Absent, null and
// blank values are "not present".
type Number struct {
	Value   float64
	Present bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*n = Number{}
	case float64:
		*n = Number{Value: v, Present: true}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			*n = Number{}
			return nil
		}
		// Out-of-range values keep the ±Inf ParseFloat returns for them.
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			f = 0
		}
		*n = Number{Value: f, Present: true}
	default:
		*n = Number{Present: true}
	}
	return nil
}

// Flag is an optional boolean. Booleans are taken as-is, strings go through
// strconv.ParseBool and numbers are true when non-zero. Anything else reads
// as absent.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*f = Flag(v)
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		*f = Flag(err == nil && parsed)
	case float64:
		*f = v != 0
	default:
		*f = false
	}
	return nil
}

// CropList keeps the string entries of a JSON array. A non-array value reads
// as no crops.
type CropList []string

func (c *CropList) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	items, ok := raw.([]any)
	if !ok {
		*c = nil
		return nil
	}
	crops := make(CropList, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			crops = append(crops, s)
		}
	}
	*c = crops
	return nil
}

// LoanHistory reads previous loans. Every array element counts as a loan;
// one without a string status can never count as repaid. A non-array value
// reads as no history.
type LoanHistory []credit.LoanRecord

func (l *LoanHistory) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	items, ok := raw.([]any)
	if !ok {
		*l = nil
		return nil
	}
	loans := make(LoanHistory, 0, len(items))
	for _, item := range items {
		var rec credit.LoanRecord
		if obj, ok := item.(map[string]any); ok {
			if status, ok := obj["status"].(string); ok {
				rec.Status = status
			}
		}
		loans = append(loans, rec)
	}
	*l = loans
	return nil
}

// ScoreRequest is the untrusted applicant payload.
type ScoreRequest struct {
	FarmSize   Number `json:"farmSize"`
	Experience Number `json:"experience"`

	PreviousLoans       LoanHistory `json:"previousLoans"`
	BankStatements      Flag        `json:"bankStatements"`
	FinancialStatements Flag        `json:"financialStatements"`
	TaxReturns          Flag        `json:"taxReturns"`

	Crops CropList `json:"crops"`

	MarketContracts       Flag `json:"marketContracts"`
	ExportLicense         Flag `json:"exportLicense"`
	CooperativeMembership Flag `json:"cooperativeMembership"`
	DirectMarketAccess    Flag `json:"directMarketAccess"`

	IrrigationSystem     Flag `json:"irrigationSystem"`
	ModernEquipment      Flag `json:"modernEquipment"`
	PrecisionFarming     Flag `json:"precisionFarming"`
	DigitalTools         Flag `json:"digitalTools"`
	SustainablePractices Flag `json:"sustainablePractices"`

	CropInsurance      Flag `json:"cropInsurance"`
	EquipmentInsurance Flag `json:"equipmentInsurance"`
	LiabilityInsurance Flag `json:"liabilityInsurance"`
}

// MissingFields lists the mandatory fields that are not present, in a fixed
// order.
func (r *ScoreRequest) MissingFields() []string {
	var missing []string
	if !r.FarmSize.Present {
		missing = append(missing, "farmSize")
	}
	if !r.Experience.Present {
		missing = append(missing, "experience")
	}
	return missing
}

// Validate rejects a request missing farmSize or experience.
func (r *ScoreRequest) Validate() error {
	if missing := r.MissingFields(); len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "Missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}

// ToProfile converts a validated request into the engine's typed input.
func (r *ScoreRequest) ToProfile() credit.ApplicantProfile {
	return credit.ApplicantProfile{
		FarmSize:              r.FarmSize.Value,
		Experience:            r.Experience.Value,
		PreviousLoans:         []credit.LoanRecord(r.PreviousLoans),
		BankStatements:        bool(r.BankStatements),
		FinancialStatements:   bool(r.FinancialStatements),
		TaxReturns:            bool(r.TaxReturns),
		Crops:                 []string(r.Crops),
		MarketContracts:       bool(r.MarketContracts),
		ExportLicense:         bool(r.ExportLicense),
		CooperativeMembership: bool(r.CooperativeMembership),
		DirectMarketAccess:    bool(r.DirectMarketAccess),
		IrrigationSystem:      bool(r.IrrigationSystem),
		ModernEquipment:       bool(r.ModernEquipment),
		PrecisionFarming:      bool(r.PrecisionFarming),
		DigitalTools:          bool(r.DigitalTools),
		SustainablePractices:  bool(r.SustainablePractices),
		CropInsurance:         bool(r.CropInsurance),
		EquipmentInsurance:    bool(r.EquipmentInsurance),
		LiabilityInsurance:    bool(r.LiabilityInsurance),
	}
}

// BatchScoreRequest carries several applicants scored in one call.
type BatchScoreRequest struct {
	Applicants []ScoreRequest `json:"applicants"`
}

// Validate rejects an empty batch and names the first applicant missing a
// mandatory field by its zero-based index.
func (r *BatchScoreRequest) Validate() error {
	if len(r.Applicants) == 0 {
		return dErrors.New(dErrors.CodeValidation, "applicants must not be empty")
	}
	for i := range r.Applicants {
		if err := r.Applicants[i].Validate(); err != nil {
			de, _ := dErrors.As(err)
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("applicant %d: %s", i, de.Message))
		}
	}
	return nil
}

func (r *BatchScoreRequest) ToProfiles() []credit.ApplicantProfile {
	profiles := make([]credit.ApplicantProfile, len(r.Applicants))
	for i := range r.Applicants {
		profiles[i] = r.Applicants[i].ToProfile()
	}
	return profiles
}
