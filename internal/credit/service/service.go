// Package service is the caller-side collaborator of the scoring engine: it
// runs the engine per applicant, fans batches out, and records metrics,
// spans and audit events around each decision.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"agrifin/internal/credit"
	"agrifin/internal/credit/metrics"
	dErrors "agrifin/pkg/domain-errors"
	"agrifin/pkg/platform/audit"
	"agrifin/pkg/requestcontext"
)

const (
	tracerName = "agrifin/internal/credit/service"

	defaultBatchMax         = 500
	defaultBatchConcurrency = 8
)

// AuditPublisher defines the interface for publishing audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	engine           *credit.Engine
	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           trace.Tracer
	auditPublisher   AuditPublisher
	batchMax         int
	batchConcurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithBatchLimits bounds batch size and the number of applicants scored at
// once. Non-positive values keep the defaults.
func WithBatchLimits(maxSize, concurrency int) Option {
	return func(s *Service) {
		if maxSize > 0 {
			s.batchMax = maxSize
		}
		if concurrency > 0 {
			s.batchConcurrency = concurrency
		}
	}
}

func New(engine *credit.Engine, opts ...Option) *Service {
	s := &Service{
		engine:           engine,
		logger:           slog.Default(),
		tracer:           otel.Tracer(tracerName),
		batchMax:         defaultBatchMax,
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score evaluates one applicant. The engine cannot fail; the only error is
// a cancelled context.
func (s *Service) Score(ctx context.Context, profile credit.ApplicantProfile) (*credit.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "credit.Score")
	defer span.End()

	result := s.evaluate(ctx, span, profile, "applicant")
	s.logger.InfoContext(ctx, "applicant scored",
		"request_id", requestcontext.RequestID(ctx),
		"credit_score", result.CreditScore,
		"risk_category", result.RiskCategory.String(),
		"approved", result.Eligibility.Approved,
	)
	return &result, nil
}

// ScoreBatch evaluates applicants concurrently and returns results in input
// order. Cancelling ctx aborts the batch with the context error.
func (s *Service) ScoreBatch(ctx context.Context, profiles []credit.ApplicantProfile) ([]credit.ScoreResult, error) {
	if len(profiles) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "applicants must not be empty")
	}
	if len(profiles) > s.batchMax {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("batch exceeds %d applicants", s.batchMax))
	}

	ctx, span := s.tracer.Start(ctx, "credit.ScoreBatch", trace.WithAttributes(
		attribute.Int("credit.batch_size", len(profiles)),
	))
	defer span.End()
	s.metrics.ObserveBatch(len(profiles))

	results := make([]credit.ScoreResult, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, profile := range profiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.evaluate(gctx, span, profile, "applicant["+strconv.Itoa(i)+"]")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch aborted")
		return nil, err
	}

	approved := 0
	for _, r := range results {
		if r.Eligibility.Approved {
			approved++
		}
	}
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventBatchScored),
		Subject:  "batch",
		Decision: fmt.Sprintf("%d/%d approved", approved, len(results)),
	})
	s.logger.InfoContext(ctx, "batch scored",
		"request_id", requestcontext.RequestID(ctx),
		"applicants", len(results),
		"approved", approved,
	)
	return results, nil
}

// Model returns the weight and tier tables the engine scores against.
func (s *Service) Model(ctx context.Context) (credit.Weights, []credit.Tier) {
	s.emit(ctx, audit.Event{Action: string(audit.EventModelViewed), Subject: "model"})
	return s.engine.Weights(), credit.Tiers()
}

func (s *Service) evaluate(ctx context.Context, span trace.Span, profile credit.ApplicantProfile, subject string) credit.ScoreResult {
	start := time.Now()
	result := s.engine.Score(profile)
	s.metrics.ObserveEvaluate(time.Since(start))
	s.metrics.ObserveDecision(result.RiskCategory.String(), result.Eligibility.Approved, result.CreditScore)

	span.AddEvent("credit.scored", trace.WithAttributes(
		attribute.String("credit.subject", subject),
		attribute.Int("credit.score", result.CreditScore),
		attribute.String("credit.risk_category", result.RiskCategory.String()),
		attribute.Bool("credit.approved", result.Eligibility.Approved),
	))

	score := result.CreditScore
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventCreditScored),
		Subject:  subject,
		Decision: result.RiskCategory.String(),
		Reason:   approvalReason(result.Eligibility.Approved),
		Score:    &score,
	})
	return result
}

// emit never fails the caller: audit outages are logged.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", event.Action,
			"error", err,
		)
	}
}

func approvalReason(approved bool) string {
	if approved {
		return "approved"
	}
	return "declined"
}
