package ratelimit

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTRaw(path, body string) error
	AdminGET(path string) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetLastHeader(key string) string
}

// RegisterSteps registers per-IP rate limiting step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I send (\d+) scoring requests$`, steps.sendScoringRequests)
	ctx.Step(`^all of them should succeed$`, steps.allShouldSucceed)
	ctx.Step(`^the next scoring request should be rate limited$`, steps.nextShouldBeLimited)
	ctx.Step(`^the response should include a Retry-After header$`, steps.retryAfterPresent)
	ctx.Step(`^the audit trail of request "([^"]*)" should contain "([^"]*)"$`, steps.auditTrailContains)
}

const minimalApplicant = `{"farmSize": 10, "experience": 2}`

type ratelimitSteps struct {
	tc       TestContext
	statuses []int
}

func (s *ratelimitSteps) sendScoringRequests(n int) error {
	s.statuses = s.statuses[:0]
	for range n {
		if err := s.tc.POSTRaw("/credit/score", minimalApplicant); err != nil {
			return err
		}
		s.statuses = append(s.statuses, s.tc.GetLastResponseStatus())
	}
	return nil
}

func (s *ratelimitSteps) allShouldSucceed() error {
	for i, status := range s.statuses {
		if status != 200 {
			return fmt.Errorf("request %d returned %d", i+1, status)
		}
	}
	return nil
}

func (s *ratelimitSteps) nextShouldBeLimited() error {
	if err := s.tc.POSTRaw("/credit/score", minimalApplicant); err != nil {
		return err
	}
	if got := s.tc.GetLastResponseStatus(); got != 429 {
		return fmt.Errorf("status = %d, want 429: %s", got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *ratelimitSteps) retryAfterPresent() error {
	if s.tc.GetLastHeader("Retry-After") == "" {
		return fmt.Errorf("missing Retry-After header")
	}
	return nil
}

func (s *ratelimitSteps) auditTrailContains(requestID, action string) error {
	if err := s.tc.AdminGET("/admin/audit?request_id=" + requestID); err != nil {
		return err
	}
	if got := s.tc.GetLastResponseStatus(); got != 200 {
		return fmt.Errorf("audit lookup returned %d: %s", got, s.tc.GetLastResponseBody())
	}
	if !strings.Contains(string(s.tc.GetLastResponseBody()), `"action":"`+action+`"`) {
		return fmt.Errorf("audit trail of %s has no %s: %s", requestID, action, s.tc.GetLastResponseBody())
	}
	return nil
}
