package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"agrifin/internal/ratelimit/models"
	"agrifin/pkg/platform/circuit"
	"agrifin/pkg/platform/httputil"
	metadata "agrifin/pkg/platform/middleware/metadata"
	"agrifin/pkg/platform/privacy"
	"agrifin/pkg/requestcontext"
)

// StatusHeader is set to "degraded" while the fallback limiter is serving.
const StatusHeader = "X-RateLimit-Status"

type RateLimiter interface {
	CheckIP(ctx context.Context, ip string) (*models.RateLimitResult, error)
}

type Middleware struct {
	limiter  RateLimiter
	fallback RateLimiter
	breaker  *circuit.Breaker
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback serves checks from fallback while the primary limiter keeps
// failing. The breaker decides when to switch over and back.
func WithFallback(fallback RateLimiter, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = fallback
		m.breaker = breaker
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fallback != nil && m.breaker == nil {
		m.breaker = circuit.New("ratelimit")
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit limits requests per client IP. Limiter failures fail open.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		if ip == "" {
			ip = metadata.RemoteIP(r)
		}

		result, degraded, err := m.check(ctx, ip)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check IP rate limit",
				"error", err,
				"ip_prefix", privacy.AnonymizeIP(ip),
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		if degraded {
			w.Header().Set(StatusHeader, "degraded")
		}
		addRateLimitHeaders(w, result)

		if !result.Allowed {
			writeRateLimitExceeded(w, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) check(ctx context.Context, ip string) (*models.RateLimitResult, bool, error) {
	result, err := m.limiter.CheckIP(ctx, ip)
	if m.fallback == nil {
		return result, false, err
	}

	if err != nil {
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit store unavailable, switching to in-memory fallback",
				"breaker", m.breaker.Name(),
				"error", err,
			)
		}
		if !useFallback {
			return nil, false, err
		}
		return m.checkFallback(ctx, ip)
	}

	usePrimary, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit store recovered", "breaker", m.breaker.Name())
	}
	if !usePrimary {
		return m.checkFallback(ctx, ip)
	}
	return result, false, nil
}

func (m *Middleware) checkFallback(ctx context.Context, ip string) (*models.RateLimitResult, bool, error) {
	result, err := m.fallback.CheckIP(ctx, ip)
	return result, true, err
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(max(result.RetryAfter, 1)))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Success: false,
		Error:   "rate limit exceeded",
	})
}
