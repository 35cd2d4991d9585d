package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"agrifin/internal/ratelimit/metrics"
	"agrifin/internal/ratelimit/models"
	"agrifin/internal/ratelimit/service/mocks"
	"agrifin/pkg/platform/audit"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks BucketStore,AuditPublisher

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	buckets   *mocks.MockBucketStore
	publisher *mocks.MockAuditPublisher
	metrics   *metrics.Metrics
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.buckets = mocks.NewMockBucketStore(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.ctx = context.Background()

	svc, err := New(s.buckets, 5, time.Minute,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.publisher),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TestNewValidation() {
	_, err := New(nil, 5, time.Minute)
	s.ErrorContains(err, "buckets store is required")

	_, err = New(s.buckets, 0, time.Minute)
	s.ErrorContains(err, "limit must be positive")

	_, err = New(s.buckets, 5, 0)
	s.ErrorContains(err, "window must be positive")
}

func (s *ServiceSuite) TestCheckIP_Allowed() {
	s.buckets.EXPECT().Allow(gomock.Any(), "rl:ip:192.0.2.1", 5, time.Minute).
		Return(&models.RateLimitResult{Allowed: true, Limit: 5, Remaining: 4}, nil)

	result, err := s.service.CheckIP(s.ctx, "192.0.2.1")
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Decisions.WithLabelValues("allowed")))
}

func (s *ServiceSuite) TestCheckIP_DeniedEmitsAudit() {
	s.buckets.EXPECT().Allow(gomock.Any(), "rl:ip:192.0.2.1", 5, time.Minute).
		Return(&models.RateLimitResult{Allowed: false, Limit: 5, RetryAfter: 12}, nil)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventRateLimitExceeded), e.Action)
		s.Equal("192.0.2.1", e.ClientIP)
		s.Equal("192.0.2.0/24", e.Subject)
		s.Equal("denied", e.Decision)
		return nil
	})

	result, err := s.service.CheckIP(s.ctx, "192.0.2.1")
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Decisions.WithLabelValues("denied")))
}

func (s *ServiceSuite) TestCheckIP_AuditFailureIsNotFatal() {
	s.buckets.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.RateLimitResult{Allowed: false, Limit: 5}, nil)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("sink down"))

	result, err := s.service.CheckIP(s.ctx, "192.0.2.1")
	s.Require().NoError(err)
	s.False(result.Allowed)
}

func (s *ServiceSuite) TestCheckIP_StoreError() {
	s.buckets.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis down"))

	_, err := s.service.CheckIP(s.ctx, "192.0.2.1")
	s.ErrorContains(err, "redis down")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.StoreErrors))
}

func (s *ServiceSuite) TestResetAndCount() {
	s.buckets.EXPECT().GetCurrentCount(gomock.Any(), "rl:ip:192.0.2.1").Return(3, nil)
	s.buckets.EXPECT().Reset(gomock.Any(), "rl:ip:192.0.2.1").Return(nil)

	n, err := s.service.CurrentCount(s.ctx, "192.0.2.1")
	s.Require().NoError(err)
	s.Equal(3, n)
	s.NoError(s.service.ResetIP(s.ctx, "192.0.2.1"))
}
