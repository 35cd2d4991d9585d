package e2e

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the feature files against a live server. Set
// E2E_BASE_URL (and E2E_ADMIN_TOKEN for audit scenarios) to enable. Client
// IPs are sent as X-Forwarded-For, so the server must list the runner's
// address in RATE_LIMIT_TRUSTED_PROXIES (127.0.0.1 for a local server).
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("E2E_BASE_URL")
	if baseURL == "" {
		t.Skip("E2E_BASE_URL not set")
	}
	tc := NewTestContext(baseURL, os.Getenv("E2E_ADMIN_TOKEN"))

	suite := godog.TestSuite{
		Name: "agrifin",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature tests failed")
	}
}
