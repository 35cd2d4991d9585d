// Package service applies the per-client-IP request limit in front of the
// scoring endpoints.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agrifin/internal/ratelimit/metrics"
	"agrifin/internal/ratelimit/models"
	"agrifin/pkg/platform/audit"
	"agrifin/pkg/platform/privacy"
)

type Service struct {
	buckets        BucketStore
	limit          int
	window         time.Duration
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(buckets BucketStore, limit int, window time.Duration, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("buckets store is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}

	svc := &Service{
		buckets: buckets,
		limit:   limit,
		window:  window,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckIP consumes one request from the bucket of ip.
func (s *Service) CheckIP(ctx context.Context, ip string) (*models.RateLimitResult, error) {
	result, err := s.buckets.Allow(ctx, models.IPKey(ip), s.limit, s.window)
	if err != nil {
		s.metrics.IncrementStoreErrors()
		return nil, fmt.Errorf("check ip rate limit: %w", err)
	}

	s.metrics.RecordDecision(result.Allowed)
	if !result.Allowed {
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"ip_prefix", privacy.AnonymizeIP(ip),
			"limit", result.Limit,
			"retry_after", result.RetryAfter,
		)
		s.emitViolation(ctx, ip, result)
	}
	return result, nil
}

// ResetIP clears the bucket of ip.
func (s *Service) ResetIP(ctx context.Context, ip string) error {
	return s.buckets.Reset(ctx, models.IPKey(ip))
}

// CurrentCount reports how many requests ip has made in the current window.
func (s *Service) CurrentCount(ctx context.Context, ip string) (int, error) {
	return s.buckets.GetCurrentCount(ctx, models.IPKey(ip))
}

func (s *Service) emitViolation(ctx context.Context, ip string, result *models.RateLimitResult) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:   string(audit.EventRateLimitExceeded),
		Subject:  privacy.AnonymizeIP(ip),
		ClientIP: ip,
		Decision: "denied",
		Reason:   fmt.Sprintf("limit %d per %s", result.Limit, s.window),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit rate limit audit event", "error", err)
	}
}
