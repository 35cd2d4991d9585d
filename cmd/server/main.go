package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"agrifin/internal/credit"
	creditmetrics "agrifin/internal/credit/metrics"
	creditservice "agrifin/internal/credit/service"
	"agrifin/internal/platform/config"
	"agrifin/internal/platform/httpserver"
	"agrifin/internal/platform/logger"
	"agrifin/internal/platform/metrics"
	platformredis "agrifin/internal/platform/redis"
	rlmetrics "agrifin/internal/ratelimit/metrics"
	rlmiddleware "agrifin/internal/ratelimit/middleware"
	"agrifin/internal/ratelimit/pruner"
	rlservice "agrifin/internal/ratelimit/service"
	"agrifin/internal/ratelimit/store/bucket"
	"agrifin/pkg/platform/audit"
	"agrifin/pkg/platform/audit/publisher"
	kafkasink "agrifin/pkg/platform/audit/store/kafka"
	"agrifin/pkg/platform/audit/sampling"
	"agrifin/pkg/platform/audit/store/memory"
	"agrifin/pkg/platform/circuit"
)

const pruneIdle = 10 * time.Minute

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	auditStore, closeStore, err := buildAuditStore(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeStore()
	sampler := sampling.NewSampler(cfg.Audit.OpsSampleRate)
	for action, rate := range cfg.Audit.OpsActionRates {
		sampler.SetRate(action, rate)
	}
	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
		publisher.WithLogger(log),
		publisher.WithSampler(sampler),
	)
	defer auditPublisher.Close()

	creditMx := creditmetrics.New(reg)
	creditSvc := creditservice.New(credit.NewEngine(),
		creditservice.WithLogger(log),
		creditservice.WithMetrics(creditMx),
		creditservice.WithAuditPublisher(auditPublisher),
		creditservice.WithBatchLimits(cfg.Scoring.BatchMax, cfg.Scoring.BatchConcurrency),
	)

	rl, err := buildRateLimiter(cfg.RateLimit, redisClient, auditPublisher, rlmetrics.New(reg), log)
	if err != nil {
		return err
	}
	rl.pruner.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		rl.pruner.Stop(stopCtx)
	}()

	deps := routerDeps{
		cfg:         cfg,
		logger:      log,
		registry:    reg,
		httpMetrics: metrics.New(reg),
		credit:      creditSvc,
		creditMx:    creditMx,
		rateLimit:   rl,
		audit:       auditPublisher,
	}
	if redisClient != nil {
		deps.redis = redisClient
	}
	srv := httpserver.New(cfg.Server.Addr, newRouter(deps))

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting agrifin", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildAuditStore selects the Kafka sink when brokers are configured and the
// in-memory store otherwise.
func buildAuditStore(ctx context.Context, cfg config.AuditConfig, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("audit events kept in memory", "max_events", cfg.MemoryMaxEvents)
		return memory.NewInMemoryStore(memory.WithMaxEvents(cfg.MemoryMaxEvents)), func() {}, nil
	}
	sink, err := kafkasink.NewSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, err
	}
	log.Info("audit events published to kafka", "topic", cfg.KafkaTopic)
	return sink, sink.Close, nil
}

// rateLimiting bundles the scoring rate limiter with the service operators
// inspect and the pruner of the local buckets.
type rateLimiting struct {
	middleware *rlmiddleware.Middleware
	service    *rlservice.Service
	pruner     *pruner.Scheduler
}

// buildRateLimiter wires per-IP rate limiting. With Redis the shared fixed
// window is primary and a local sliding window takes over while Redis is
// failing. Without Redis only the local window is used.
func buildRateLimiter(
	cfg config.RateLimitConfig,
	redisClient *platformredis.Client,
	auditPublisher rlservice.AuditPublisher,
	m *rlmetrics.Metrics,
	log *slog.Logger,
) (*rateLimiting, error) {
	opts := []rlservice.Option{
		rlservice.WithLogger(log),
		rlservice.WithMetrics(m),
		rlservice.WithAuditPublisher(auditPublisher),
	}

	local := bucket.NewInMemoryBucketStore()
	localSvc, err := rlservice.New(local, cfg.Requests, cfg.Window, opts...)
	if err != nil {
		return nil, err
	}
	sched, err := pruner.New(local, cfg.PruneSchedule, pruneIdle, log, m)
	if err != nil {
		return nil, err
	}

	if redisClient == nil {
		return &rateLimiting{
			middleware: rlmiddleware.New(localSvc, log, rlmiddleware.WithDisabled(!cfg.Enabled)),
			service:    localSvc,
			pruner:     sched,
		}, nil
	}

	sharedSvc, err := rlservice.New(bucket.NewRedisBucketStore(redisClient), cfg.Requests, cfg.Window, opts...)
	if err != nil {
		return nil, err
	}
	return &rateLimiting{
		middleware: rlmiddleware.New(sharedSvc, log,
			rlmiddleware.WithDisabled(!cfg.Enabled),
			rlmiddleware.WithFallback(localSvc, circuit.New("ratelimit-redis",
				circuit.WithFailureThreshold(cfg.BreakerFailures),
				circuit.WithSuccessThreshold(cfg.BreakerRecoveries),
			)),
		),
		service: sharedSvc,
		pruner:  sched,
	}, nil
}
