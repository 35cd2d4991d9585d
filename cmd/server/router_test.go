package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"agrifin/internal/credit"
	creditmetrics "agrifin/internal/credit/metrics"
	creditservice "agrifin/internal/credit/service"
	"agrifin/internal/platform/config"
	"agrifin/internal/platform/metrics"
	"agrifin/internal/platform/middleware"
	rlmetrics "agrifin/internal/ratelimit/metrics"
	"agrifin/pkg/platform/audit/publisher"
	"agrifin/pkg/platform/audit/store/memory"
	adminmw "agrifin/pkg/platform/middleware/admin"
	"agrifin/pkg/platform/middleware/metadata"
)

type stubHealth struct{ err error }

func (s stubHealth) Health(context.Context) error { return s.err }

type RouterSuite struct {
	suite.Suite
	logger *slog.Logger
	pub    *publisher.Publisher
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.pub = publisher.NewPublisher(memory.NewInMemoryStore())
	s.T().Cleanup(s.pub.Close)
}

func (s *RouterSuite) router(cfg config.Config, health healthChecker) http.Handler {
	reg := prometheus.NewRegistry()
	rl, err := buildRateLimiter(cfg.RateLimit, nil, s.pub, rlmetrics.New(reg), s.logger)
	s.Require().NoError(err)

	creditMx := creditmetrics.New(reg)
	return newRouter(routerDeps{
		cfg:         cfg,
		logger:      s.logger,
		registry:    reg,
		httpMetrics: metrics.New(reg),
		credit:      creditservice.New(credit.NewEngine(), creditservice.WithMetrics(creditMx), creditservice.WithAuditPublisher(s.pub)),
		creditMx:    creditMx,
		rateLimit:   rl,
		audit:       s.pub,
		redis:       health,
	})
}

func (s *RouterSuite) config() config.Config {
	return config.Config{
		RateLimit: config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute, PruneSchedule: "@every 5m"},
		Admin:     config.AdminConfig{Token: "ops"},
	}
}

func (s *RouterSuite) score(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/credit/score", strings.NewReader(`{"farmSize":50,"experience":5}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-"+ip)
	req.RemoteAddr = ip + ":5000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func (s *RouterSuite) TestScoreIsRateLimitedPerIP() {
	h := s.router(s.config(), nil)

	s.Equal(http.StatusOK, s.score(h, "198.51.100.1").Code)
	s.Equal(http.StatusOK, s.score(h, "198.51.100.1").Code)
	denied := s.score(h, "198.51.100.1")
	s.Equal(http.StatusTooManyRequests, denied.Code)
	s.NotEmpty(denied.Header().Get("Retry-After"))

	s.Equal(http.StatusOK, s.score(h, "198.51.100.2").Code)
}

func (s *RouterSuite) scoreVia(h http.Handler, peer, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/credit/score", strings.NewReader(`{"farmSize":50,"experience":5}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = peer + ":5000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func (s *RouterSuite) TestForwardedForFromUntrustedPeerIsIgnored() {
	h := s.router(s.config(), nil)

	served := 0
	for i := range 20 {
		if s.scoreVia(h, "203.0.113.9", fmt.Sprintf("198.18.0.%d", i)).Code == http.StatusOK {
			served++
		}
	}
	s.Equal(2, served)
}

func (s *RouterSuite) TestForwardedForFromTrustedProxyNamesClient() {
	cfg := s.config()
	trusted, err := metadata.ParseTrustedProxies([]string{"10.0.0.0/8"})
	s.Require().NoError(err)
	cfg.RateLimit.TrustedProxies = trusted
	h := s.router(cfg, nil)

	s.Equal(http.StatusOK, s.scoreVia(h, "10.0.0.5", "198.18.0.1").Code)
	s.Equal(http.StatusOK, s.scoreVia(h, "10.0.0.5", "198.18.0.1").Code)
	s.Equal(http.StatusTooManyRequests, s.scoreVia(h, "10.0.0.5", "198.18.0.1").Code)
	s.Equal(http.StatusOK, s.scoreVia(h, "10.0.0.5", "198.18.0.2").Code)
}

func (s *RouterSuite) TestModelIsNotRateLimited() {
	h := s.router(s.config(), nil)
	for range 5 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/credit/model", nil))
		s.Equal(http.StatusOK, rr.Code)
	}
}

func (s *RouterSuite) TestRequestIDIsEchoed() {
	rr := s.score(s.router(s.config(), nil), "198.51.100.7")
	s.Equal("req-198.51.100.7", rr.Header().Get(middleware.RequestIDHeader))
}

func (s *RouterSuite) TestAdminRoutes() {
	h := s.router(s.config(), nil)
	s.score(h, "198.51.100.3")

	s.Run("token required", func() {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/audit?request_id=req-198.51.100.3", nil))
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("audit trail of a scored request", func() {
		req := httptest.NewRequest(http.MethodGet, "/admin/audit?request_id=req-198.51.100.3", nil)
		req.Header.Set(adminmw.TokenHeader, "ops")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		s.Equal(http.StatusOK, rr.Code)
		s.Contains(rr.Body.String(), `"action":"credit_scored"`)
		s.Contains(rr.Body.String(), `"client_ip":"198.51.100.3"`)
	})

	s.Run("rate limit usage", func() {
		req := httptest.NewRequest(http.MethodGet, "/admin/rate-limit/ip/198.51.100.3", nil)
		req.Header.Set(adminmw.TokenHeader, "ops")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		s.Equal(http.StatusOK, rr.Code)
		s.Contains(rr.Body.String(), `"requests":1`)
	})
}

func (s *RouterSuite) TestAdminRoutesUnmountedWithoutToken() {
	cfg := s.config()
	cfg.Admin.Token = ""
	rr := httptest.NewRecorder()
	s.router(cfg, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/audit?request_id=x", nil))
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *RouterSuite) TestHealth() {
	tests := []struct {
		name   string
		health healthChecker
		status int
		body   string
	}{
		{"no redis", nil, http.StatusOK, `{"status":"ok"}`},
		{"redis up", stubHealth{}, http.StatusOK, `{"status":"ok","redis":"ok"}`},
		{"redis down", stubHealth{err: errors.New("dial tcp")}, http.StatusServiceUnavailable, `{"status":"degraded","redis":"unreachable"}`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rr := httptest.NewRecorder()
			s.router(s.config(), tt.health).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			s.Equal(tt.status, rr.Code)
			s.JSONEq(tt.body, rr.Body.String())
		})
	}
}

func (s *RouterSuite) TestMetricsEndpoint() {
	h := s.router(s.config(), nil)
	s.score(h, "198.51.100.9")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "agrifin_credit_decisions_total")
}

func (s *RouterSuite) TestMemoryAuditStoreIsBounded() {
	store, closeStore, err := buildAuditStore(context.Background(), config.AuditConfig{MemoryMaxEvents: 3}, s.logger)
	s.Require().NoError(err)
	defer closeStore()

	pub := publisher.NewPublisher(store)
	defer pub.Close()
	cfg := s.config()
	cfg.RateLimit.Enabled = false
	reg := prometheus.NewRegistry()
	h := newRouter(routerDeps{
		cfg:         cfg,
		logger:      s.logger,
		registry:    reg,
		httpMetrics: metrics.New(reg),
		credit:      creditservice.New(credit.NewEngine(), creditservice.WithAuditPublisher(pub)),
		audit:       pub,
	})

	for i := range 10 {
		s.Equal(http.StatusOK, s.score(h, fmt.Sprintf("198.51.100.%d", 10+i)).Code)
	}

	mem, ok := store.(*memory.InMemoryStore)
	s.Require().True(ok)
	s.Equal(3, mem.Len())
	recent, err := pub.Recent(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 3)
	s.Equal("req-198.51.100.19", recent[2].RequestID)
}
