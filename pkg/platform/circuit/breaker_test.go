package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_InitialState(t *testing.T) {
	b := New("redis")
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.Equal(t, "redis", b.Name())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("redis", WithFailureThreshold(3))

	for range 2 {
		useFallback, change := b.RecordFailure()
		assert.False(t, useFallback)
		assert.False(t, change.Opened)
	}

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, "open", b.State().String())

	// Already open: fallback, but no new transition.
	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestBreaker_ClosesAfterSuccessThreshold(t *testing.T) {
	b := New("redis", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)
	assert.Equal(t, StateOpen, b.State())

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_CountersResetEachOther(t *testing.T) {
	t.Run("success clears failures while closed", func(t *testing.T) {
		b := New("redis", WithFailureThreshold(3))
		b.RecordFailure()
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordFailure()
		assert.Equal(t, StateClosed, b.State())
		b.RecordFailure()
		assert.Equal(t, StateOpen, b.State())
	})

	t.Run("failure clears successes while open", func(t *testing.T) {
		b := New("redis", WithFailureThreshold(1), WithSuccessThreshold(3))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordSuccess()
		assert.Equal(t, StateOpen, b.State())
		b.RecordSuccess()
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreaker_IgnoresNonPositiveThresholds(t *testing.T) {
	b := New("redis", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for range 4 {
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State(), "default threshold of 5 still applies")
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
}
