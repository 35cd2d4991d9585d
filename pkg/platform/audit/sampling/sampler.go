// Package sampling thins out high-volume operations audit events. Compliance
// and security events are never sampled.
package sampling

import (
	"math/rand/v2"
	"sync"

	audit "agrifin/pkg/platform/audit"
)

// Sampler keeps operations events with a configurable probability.
type Sampler struct {
	mu           sync.RWMutex
	defaultRate  float64
	rateByAction map[string]float64
	random       func() float64
}

type Option func(*Sampler)

// WithRandom replaces the source of uniform values in [0,1).
func WithRandom(random func() float64) Option {
	return func(s *Sampler) {
		s.random = random
	}
}

// NewSampler creates a sampler keeping operations events at defaultRate,
// clamped to [0,1].
func NewSampler(defaultRate float64, opts ...Option) *Sampler {
	s := &Sampler{
		defaultRate:  clampRate(defaultRate),
		rateByAction: make(map[string]float64),
		random:       rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keep reports whether event should be recorded.
func (s *Sampler) Keep(event audit.Event) bool {
	if event.Category != audit.CategoryOperations {
		return true
	}
	rate := s.rateFor(event.Action)
	switch rate {
	case 0:
		return false
	case 1:
		return true
	}
	return s.random() < rate
}

// SetRate overrides the rate of one action.
func (s *Sampler) SetRate(action string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateByAction[action] = clampRate(rate)
}

func (s *Sampler) rateFor(action string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rate, ok := s.rateByAction[action]; ok {
		return rate
	}
	return s.defaultRate
}

func clampRate(rate float64) float64 {
	switch {
	case rate < 0:
		return 0
	case rate > 1:
		return 1
	}
	return rate
}
