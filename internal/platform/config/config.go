package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"agrifin/pkg/platform/middleware/metadata"
)

// Config is the full service configuration, read once at startup.
type Config struct {
	Server    Server
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Scoring   ScoringConfig
	Audit     AuditConfig
	Admin     AdminConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional Redis client. An empty URL disables
// Redis and the in-memory rate limiter is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig bounds scoring requests per client IP.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	// PruneSchedule is the cron expression for dropping idle in-memory buckets.
	PruneSchedule string
	// TrustedProxies are the peers allowed to name the client through
	// X-Forwarded-For or X-Real-IP. Empty means the TCP peer is the client.
	TrustedProxies metadata.TrustedProxies
	// BreakerFailures consecutive Redis errors switch to the local limiter;
	// BreakerRecoveries consecutive successes switch back.
	BreakerFailures   int
	BreakerRecoveries int
}

// ScoringConfig bounds batch scoring.
type ScoringConfig struct {
	BatchMax         int
	BatchConcurrency int
}

// AuditConfig selects the audit sink. With no brokers, events are kept in
// memory.
type AuditConfig struct {
	AsyncBuffer  int
	KafkaBrokers []string
	KafkaTopic   string

	// OpsSampleRate is the share of operations events kept, in [0,1].
	// Compliance and security events are always kept.
	OpsSampleRate float64
	// OpsActionRates overrides OpsSampleRate for individual actions.
	OpsActionRates map[string]float64
	// MemoryMaxEvents bounds the in-memory store; the oldest events are
	// dropped first.
	MemoryMaxEvents int
}

// AdminConfig guards the operator endpoints. An empty token leaves them
// unmounted.
type AdminConfig struct {
	Token string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	r := envReader{}
	cfg := Config{
		Server: Server{
			Addr:            r.string("AGRIFIN_ADDR", ":8080"),
			LogLevel:        r.string("LOG_LEVEL", "info"),
			ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          r.string("REDIS_URL", ""),
			PoolSize:     r.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:           r.bool("RATE_LIMIT_ENABLED", true),
			Requests:          r.int("RATE_LIMIT_REQUESTS", 60),
			Window:            r.duration("RATE_LIMIT_WINDOW", time.Minute),
			PruneSchedule:     r.string("RATE_LIMIT_PRUNE_SCHEDULE", "@every 5m"),
			TrustedProxies:    r.proxies("RATE_LIMIT_TRUSTED_PROXIES"),
			BreakerFailures:   r.int("RATE_LIMIT_BREAKER_FAILURES", 5),
			BreakerRecoveries: r.int("RATE_LIMIT_BREAKER_RECOVERIES", 3),
		},
		Scoring: ScoringConfig{
			BatchMax:         r.int("SCORE_BATCH_MAX", 500),
			BatchConcurrency: r.int("SCORE_BATCH_CONCURRENCY", 8),
		},
		Audit: AuditConfig{
			AsyncBuffer:     r.int("AUDIT_ASYNC_BUFFER", 1024),
			KafkaBrokers:    r.list("KAFKA_BROKERS"),
			KafkaTopic:      r.string("AUDIT_KAFKA_TOPIC", "agrifin.credit.decisions"),
			OpsSampleRate:   r.float("AUDIT_OPS_SAMPLE_RATE", 1),
			OpsActionRates:  r.rates("AUDIT_OPS_ACTION_RATES"),
			MemoryMaxEvents: r.int("AUDIT_MEMORY_MAX_EVENTS", 10000),
		},
		Admin: AdminConfig{
			Token: r.string("ADMIN_API_TOKEN", ""),
		},
	}
	if len(r.errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(r.errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.RateLimit.Requests <= 0:
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	case c.RateLimit.Window <= 0:
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	case c.Scoring.BatchMax <= 0:
		return fmt.Errorf("SCORE_BATCH_MAX must be positive")
	case c.Scoring.BatchConcurrency <= 0:
		return fmt.Errorf("SCORE_BATCH_CONCURRENCY must be positive")
	case c.RateLimit.BreakerFailures <= 0 || c.RateLimit.BreakerRecoveries <= 0:
		return fmt.Errorf("RATE_LIMIT_BREAKER_FAILURES and RATE_LIMIT_BREAKER_RECOVERIES must be positive")
	case c.Audit.OpsSampleRate < 0 || c.Audit.OpsSampleRate > 1:
		return fmt.Errorf("AUDIT_OPS_SAMPLE_RATE must be between 0 and 1")
	case c.Audit.MemoryMaxEvents <= 0:
		return fmt.Errorf("AUDIT_MEMORY_MAX_EVENTS must be positive")
	}
	for action, rate := range c.Audit.OpsActionRates {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("AUDIT_OPS_ACTION_RATES: rate of %s must be between 0 and 1", action)
		}
	}
	return nil
}

// envReader collects parse failures so every bad variable is reported at once.
type envReader struct {
	errs []string
}

func (r *envReader) string(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (r *envReader) bool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (r *envReader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *envReader) proxies(key string) metadata.TrustedProxies {
	trusted, err := metadata.ParseTrustedProxies(r.list(key))
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return nil
	}
	return trusted
}

// rates parses "action=rate" pairs separated by commas.
func (r *envReader) rates(key string) map[string]float64 {
	out := map[string]float64{}
	for _, pair := range r.list(key) {
		action, raw, ok := strings.Cut(pair, "=")
		action = strings.TrimSpace(action)
		rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if !ok || action == "" || err != nil {
			r.errs = append(r.errs, fmt.Sprintf("%s: %q is not action=rate", key, pair))
			continue
		}
		out[action] = rate
	}
	return out
}
