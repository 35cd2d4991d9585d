package e2e

import (
	"github.com/cucumber/godog"

	"agrifin/e2e/steps/common"
	"agrifin/e2e/steps/credit"
	"agrifin/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	credit.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
}
