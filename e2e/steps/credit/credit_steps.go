package credit

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTRaw(path, body string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers credit scoring step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &creditSteps{tc: tc}

	ctx.Step(`^I score the applicant:$`, steps.scoreApplicant)
	ctx.Step(`^I score the batch:$`, steps.scoreBatch)
	ctx.Step(`^I request the scoring model$`, steps.requestModel)
	ctx.Step(`^the credit score should be (\d+)$`, steps.creditScoreShouldBe)
	ctx.Step(`^the risk category should be "([^"]*)"$`, steps.riskCategoryShouldBe)
	ctx.Step(`^the applicant should be approved$`, steps.approved(true))
	ctx.Step(`^the applicant should be declined$`, steps.approved(false))
	ctx.Step(`^there should be (\d+) recommendations$`, steps.recommendationCount)
	ctx.Step(`^the factor "([^"]*)" should score (\d+(?:\.\d+)?)$`, steps.factorShouldScore)
}

type creditSteps struct {
	tc TestContext
}

func (s *creditSteps) scoreApplicant(body *godog.DocString) error {
	return s.tc.POSTRaw("/credit/score", body.Content)
}

func (s *creditSteps) scoreBatch(body *godog.DocString) error {
	return s.tc.POSTRaw("/credit/score/batch", body.Content)
}

func (s *creditSteps) requestModel() error {
	return s.tc.GET("/credit/model", nil)
}

func (s *creditSteps) creditScoreShouldBe(want int) error {
	return s.numberShouldBe("data.creditScore", float64(want))
}

func (s *creditSteps) riskCategoryShouldBe(want string) error {
	v, err := s.tc.GetResponseField("data.riskCategory")
	if err != nil {
		return err
	}
	if v != want {
		return fmt.Errorf("risk category = %v, want %s", v, want)
	}
	return nil
}

func (s *creditSteps) approved(want bool) func() error {
	return func() error {
		v, err := s.tc.GetResponseField("data.eligibility.approved")
		if err != nil {
			return err
		}
		if v != want {
			return fmt.Errorf("approved = %v, want %v", v, want)
		}
		return nil
	}
}

func (s *creditSteps) recommendationCount(want int) error {
	v, err := s.tc.GetResponseField("data.recommendations")
	if err != nil {
		return err
	}
	recs, ok := v.([]any)
	if !ok || len(recs) != want {
		return fmt.Errorf("recommendations = %v, want %d entries", v, want)
	}
	return nil
}

func (s *creditSteps) factorShouldScore(factor string, want float64) error {
	return s.numberShouldBe("data.factorScores."+factor, want)
}

func (s *creditSteps) numberShouldBe(field string, want float64) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got, ok := v.(float64); !ok || got != want {
		return fmt.Errorf("%s = %v, want %v", field, v, want)
	}
	return nil
}
