package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions      *prometheus.CounterVec
	StoreErrors    prometheus.Counter
	PrunedBuckets  prometheus.Counter
	TrackedBuckets prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agrifin_ratelimit_decisions_total",
			Help: "Rate limit checks by outcome",
		}, []string{"outcome"}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "agrifin_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed open because the bucket store errored",
		}),
		PrunedBuckets: f.NewCounter(prometheus.CounterOpts{
			Name: "agrifin_ratelimit_pruned_buckets_total",
			Help: "Idle in-memory rate limit buckets removed by the pruner",
		}),
		TrackedBuckets: f.NewGauge(prometheus.GaugeOpts{
			Name: "agrifin_ratelimit_tracked_buckets",
			Help: "In-memory rate limit buckets after the last prune",
		}),
	}
}

func (m *Metrics) RecordDecision(allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.Decisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementStoreErrors() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}

func (m *Metrics) RecordPrune(removed, remaining int) {
	if m == nil {
		return
	}
	m.PrunedBuckets.Add(float64(removed))
	m.TrackedBuckets.Set(float64(remaining))
}
