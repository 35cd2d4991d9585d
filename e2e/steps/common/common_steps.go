package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Reset()
	SetClientIP(ip string)
	SetRequestID(id string)
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers the background and assertion steps shared by all
// features.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.Reset()
		return ctx, nil
	})

	ctx.Step(`^requests come from IP "([^"]*)"$`, steps.requestsComeFromIP)
	ctx.Step(`^the request ID is "([^"]*)"$`, steps.requestIDIs)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response should be successful$`, steps.responseShouldBeSuccessful)
	ctx.Step(`^the response error should be "([^"]*)"$`, steps.errorShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) requestsComeFromIP(ip string) error {
	s.tc.SetClientIP(ip)
	return nil
}

func (s *commonSteps) requestIDIs(id string) error {
	s.tc.SetRequestID(id)
	return nil
}

func (s *commonSteps) statusShouldBe(want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("status = %d, want %d: %s", got, want, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseShouldBeSuccessful() error {
	if err := s.statusShouldBe(200); err != nil {
		return err
	}
	return s.fieldShouldBe("success", "true")
}

func (s *commonSteps) errorShouldBe(want string) error {
	if err := s.fieldShouldBe("success", "false"); err != nil {
		return err
	}
	return s.fieldShouldBe("error", want)
}

// fieldShouldBe compares the textual form of a JSON value, so numbers,
// booleans and strings can all be written plainly in feature files.
func (s *commonSteps) fieldShouldBe(field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	var got string
	switch x := v.(type) {
	case string:
		got = x
	case float64:
		got = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		got = strconv.FormatBool(x)
	default:
		got = fmt.Sprint(x)
	}
	if got != want {
		return fmt.Errorf("field %q = %q, want %q", field, got, want)
	}
	return nil
}
