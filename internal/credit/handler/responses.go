package handler

import (
	"encoding/json"

	"agrifin/internal/credit"
)

// Envelope wraps every scoring response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ModelResponse exposes the weights and tier table behind every score.
type ModelResponse struct {
	Weights map[credit.Factor]json.Number `json:"weights"`
	Tiers   []TierResponse                `json:"tiers"`
}

type TierResponse struct {
	RiskCategory           credit.RiskCategory `json:"riskCategory"`
	MinScore               int                 `json:"minScore"`
	Approved               bool                `json:"approved"`
	MaxLoanAmount          json.Number         `json:"maxLoanAmount"`
	InterestRateAdjustment int                 `json:"interestRateAdjustment"`
	Recommendations        []string            `json:"recommendations"`
}

func toModelResponse(weights credit.Weights, tiers []credit.Tier) *ModelResponse {
	resp := &ModelResponse{
		Weights: make(map[credit.Factor]json.Number, len(weights)),
		Tiers:   make([]TierResponse, 0, len(tiers)),
	}
	for f, w := range weights {
		resp.Weights[f] = json.Number(w.String())
	}
	for _, t := range tiers {
		resp.Tiers = append(resp.Tiers, TierResponse{
			RiskCategory:           t.Category,
			MinScore:               t.MinScore,
			Approved:               t.Approved,
			MaxLoanAmount:          json.Number(t.MaxLoanAmount.String()),
			InterestRateAdjustment: t.InterestRateAdjustment,
			Recommendations:        t.Recommendations,
		})
	}
	return resp
}
