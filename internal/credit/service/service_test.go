package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"agrifin/internal/credit"
	"agrifin/internal/credit/metrics"
	"agrifin/internal/credit/service/mocks"
	dErrors "agrifin/pkg/domain-errors"
	"agrifin/pkg/platform/audit"
	"agrifin/pkg/platform/audit/publisher"
	"agrifin/pkg/platform/audit/store/memory"
	"agrifin/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AuditPublisher

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	metrics  *metrics.Metrics
	spans    *tracetest.SpanRecorder
	store    *memory.InMemoryStore
	pub      *publisher.Publisher
	service  *Service
	worked   credit.ApplicantProfile
	declined credit.ApplicantProfile
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-1")
	s.ctx = requestcontext.WithClientIP(s.ctx, "192.0.2.5")
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.spans = tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(s.spans))
	s.store = memory.NewInMemoryStore()
	s.pub = publisher.NewPublisher(s.store)
	s.T().Cleanup(s.pub.Close)

	s.service = New(credit.NewEngine(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithTracer(tp.Tracer("test")),
		WithAuditPublisher(s.pub),
		WithBatchLimits(4, 2),
	)

	s.worked = credit.ApplicantProfile{
		FarmSize:         50,
		Experience:       5,
		PreviousLoans:    []credit.LoanRecord{{Status: "repaid"}},
		BankStatements:   true,
		MarketContracts:  true,
		IrrigationSystem: true,
		CropInsurance:    true,
	}
	s.declined = credit.ApplicantProfile{FarmSize: 2}
}

func (s *ServiceSuite) TestScore() {
	result, err := s.service.Score(s.ctx, s.worked)
	s.Require().NoError(err)
	s.Equal(64, result.CreditScore)
	s.Equal(credit.RiskModerate, result.RiskCategory)

	s.Run("records metrics", func() {
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Decisions.WithLabelValues("ModerateRisk", "true")))
	})

	s.Run("records a span", func() {
		ended := s.spans.Ended()
		s.Require().Len(ended, 1)
		s.Equal("credit.Score", ended[0].Name())
		s.Require().Len(ended[0].Events(), 1)
		s.Equal("credit.scored", ended[0].Events()[0].Name)
	})

	s.Run("emits an audit event", func() {
		events, err := s.pub.List(s.ctx, "req-1")
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		e := events[0]
		s.Equal(string(audit.EventCreditScored), e.Action)
		s.Equal(audit.CategoryCompliance, e.Category)
		s.Equal("ModerateRisk", e.Decision)
		s.Equal("approved", e.Reason)
		s.Equal("192.0.2.5", e.ClientIP)
		s.Require().NotNil(e.Score)
		s.Equal(64, *e.Score)
	})
}

func (s *ServiceSuite) TestScore_CancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.service.Score(ctx, s.worked)
	s.ErrorIs(err, context.Canceled)
	s.Empty(s.spans.Ended())
}

func (s *ServiceSuite) TestScore_AuditFailureDoesNotFailScoring() {
	ctrl := gomock.NewController(s.T())
	failing := mocks.NewMockAuditPublisher(ctrl)
	failing.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("kafka down"))

	svc := New(credit.NewEngine(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(failing),
	)
	result, err := svc.Score(s.ctx, s.declined)
	s.Require().NoError(err)
	s.Equal(credit.RiskHigh, result.RiskCategory)
}

func (s *ServiceSuite) TestScoreBatch_PreservesOrder() {
	profiles := []credit.ApplicantProfile{s.declined, s.worked, s.declined, s.worked}

	results, err := s.service.ScoreBatch(s.ctx, profiles)
	s.Require().NoError(err)
	s.Require().Len(results, len(profiles))
	for i, p := range profiles {
		s.Equal(credit.Score(p), results[i], "applicant %d", i)
	}

	events, err := s.pub.List(s.ctx, "req-1")
	s.Require().NoError(err)
	s.Len(events, len(profiles)+1)
	last := events[len(events)-1]
	s.Equal(string(audit.EventBatchScored), last.Action)
	s.Equal("2/4 approved", last.Decision)

	subjects := map[string]bool{}
	for _, e := range events[:len(profiles)] {
		subjects[e.Subject] = true
	}
	s.Equal(map[string]bool{
		"applicant[0]": true, "applicant[1]": true, "applicant[2]": true, "applicant[3]": true,
	}, subjects)
}

func (s *ServiceSuite) TestScoreBatch_Limits() {
	_, err := s.service.ScoreBatch(s.ctx, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.ScoreBatch(s.ctx, make([]credit.ApplicantProfile, 5))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.ErrorContains(err, "batch exceeds 4 applicants")
}

func (s *ServiceSuite) TestScoreBatch_CancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.service.ScoreBatch(ctx, []credit.ApplicantProfile{s.worked, s.declined})
	s.ErrorIs(err, context.Canceled)
}

func (s *ServiceSuite) TestScoreBatch_Concurrent() {
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			results, err := s.service.ScoreBatch(s.ctx, []credit.ApplicantProfile{s.worked, s.declined})
			s.NoError(err)
			s.Len(results, 2)
		})
	}
	wg.Wait()
}

func (s *ServiceSuite) TestModel() {
	weights, tiers := s.service.Model(s.ctx)
	s.NoError(weights.Validate())
	s.Len(tiers, 4)

	events, err := s.pub.List(s.ctx, "req-1")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.CategoryOperations, events[0].Category)
}
