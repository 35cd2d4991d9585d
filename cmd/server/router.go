package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auditadmin "agrifin/internal/audit"
	credithandler "agrifin/internal/credit/handler"
	creditmetrics "agrifin/internal/credit/metrics"
	"agrifin/internal/platform/config"
	"agrifin/internal/platform/metrics"
	"agrifin/internal/platform/middleware"
	rlhandler "agrifin/internal/ratelimit/handler"
	"agrifin/pkg/platform/httputil"
	adminmw "agrifin/pkg/platform/middleware/admin"
	"agrifin/pkg/platform/middleware/metadata"
	"agrifin/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

type healthChecker interface {
	Health(ctx context.Context) error
}

type routerDeps struct {
	cfg         config.Config
	logger      *slog.Logger
	registry    *prometheus.Registry
	httpMetrics *metrics.Metrics
	credit      credithandler.Service
	creditMx    *creditmetrics.Metrics
	rateLimit   *rateLimiting
	audit       auditadmin.Lister
	// redis is nil when Redis is not configured.
	redis healthChecker
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.logger))
	r.Use(metadata.ClientMetadata(d.cfg.RateLimit.TrustedProxies))
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Latency(d.httpMetrics))

	r.Get("/health", healthHandler(d.redis))
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry}))

	var guards []func(http.Handler) http.Handler
	if d.rateLimit != nil {
		guards = append(guards, d.rateLimit.middleware.RateLimit)
	}
	credithandler.New(d.credit, d.logger, d.creditMx).Register(r, guards...)

	if d.cfg.Admin.Token != "" {
		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(d.cfg.Admin.Token, d.logger))
			auditadmin.NewHandler(d.audit, d.logger).RegisterAdmin(r)
			if d.rateLimit != nil {
				rlhandler.New(d.rateLimit.service, d.logger).RegisterAdmin(r)
			}
		})
	}
	return r
}

func healthHandler(redis healthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		if redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := redis.Health(ctx); err != nil {
				status["status"] = "degraded"
				status["redis"] = "unreachable"
				httputil.WriteJSON(w, http.StatusServiceUnavailable, status)
				return
			}
			status["redis"] = "ok"
		}
		httputil.WriteJSON(w, http.StatusOK, status)
	}
}
