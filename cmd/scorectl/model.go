package main

import (
	"github.com/spf13/cobra"

	"agrifin/internal/credit"
)

type tierView struct {
	RiskCategory           credit.RiskCategory `json:"riskCategory" yaml:"riskCategory"`
	MinScore               int                 `json:"minScore" yaml:"minScore"`
	Approved               bool                `json:"approved" yaml:"approved"`
	MaxLoanAmount          float64             `json:"maxLoanAmount" yaml:"maxLoanAmount"`
	InterestRateAdjustment int                 `json:"interestRateAdjustment" yaml:"interestRateAdjustment"`
	Recommendations        []string            `json:"recommendations" yaml:"recommendations"`
}

type modelView struct {
	Weights map[credit.Factor]float64 `json:"weights" yaml:"weights"`
	Tiers   []tierView                `json:"tiers" yaml:"tiers"`
}

func newModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Print the factor weights and risk tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), format, buildModelView(credit.NewEngine()))
		},
	}
}

func buildModelView(engine *credit.Engine) modelView {
	weights := engine.Weights()
	view := modelView{Weights: make(map[credit.Factor]float64, len(weights))}
	for _, f := range credit.Factors {
		view.Weights[f] = weights.Float(f)
	}
	for _, t := range credit.Tiers() {
		view.Tiers = append(view.Tiers, tierView{
			RiskCategory:           t.Category,
			MinScore:               t.MinScore,
			Approved:               t.Approved,
			MaxLoanAmount:          t.MaxLoanAmount.InexactFloat64(),
			InterestRateAdjustment: t.InterestRateAdjustment,
			Recommendations:        t.Recommendations,
		})
	}
	return view
}
