package pruner

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrifin/internal/ratelimit/metrics"
	"agrifin/internal/ratelimit/store/bucket"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New(bucket.NewInMemoryBucketStore(), "not a schedule", time.Minute, discardLogger(), nil)
	assert.ErrorContains(t, err, "register prune job")
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store := bucket.NewInMemoryBucketStore(bucket.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := store.Allow(ctx, "rl:ip:a", 10, time.Minute)
	require.NoError(t, err)
	_, err = store.Allow(ctx, "rl:ip:b", 10, time.Minute)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	s, err := New(store, "@every 5m", 5*time.Minute, discardLogger(), m)
	require.NoError(t, err)

	assert.Equal(t, 0, s.RunOnce())

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 2, s.RunOnce())
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PrunedBuckets))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TrackedBuckets))
}

func TestStartStop(t *testing.T) {
	s, err := New(bucket.NewInMemoryBucketStore(), "@every 1h", time.Minute, discardLogger(), nil)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
