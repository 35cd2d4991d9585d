package service

import (
	"context"
	"time"

	"agrifin/internal/ratelimit/models"
	"agrifin/pkg/platform/audit"
)

// BucketStore defines the persistence interface for rate limit counters.
// Keys are plain strings built by models.IPKey.
type BucketStore interface {
	// Allow checks if a request is allowed and increments the counter.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)

	// Reset clears the rate limit counter for a key.
	Reset(ctx context.Context, key string) error

	// GetCurrentCount returns the current request count for a key.
	GetCurrentCount(ctx context.Context, key string) (int, error)
}

// AuditPublisher defines the interface for publishing audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
