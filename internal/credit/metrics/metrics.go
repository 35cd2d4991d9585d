package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds credit scoring metrics.
type Metrics struct {
	Decisions       *prometheus.CounterVec
	Scores          prometheus.Histogram
	EvaluateLatency prometheus.Histogram
	BatchSize       prometheus.Histogram
	Rejected        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agrifin_credit_decisions_total",
			Help: "Scored applicants by risk category and approval",
		}, []string{"risk_category", "approved"}),
		Scores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "agrifin_credit_score",
			Help:    "Distribution of credit scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		EvaluateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "agrifin_credit_evaluate_duration_seconds",
			Help:    "Time spent scoring one applicant",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "agrifin_credit_batch_size",
			Help:    "Applicants per batch request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agrifin_credit_rejected_requests_total",
			Help: "Scoring requests rejected before reaching the engine",
		}, []string{"reason"}),
	}
}

func (m *Metrics) ObserveDecision(riskCategory string, approved bool, score int) {
	if m == nil {
		return
	}
	approvedLabel := "false"
	if approved {
		approvedLabel = "true"
	}
	m.Decisions.WithLabelValues(riskCategory, approvedLabel).Inc()
	m.Scores.Observe(float64(score))
}

func (m *Metrics) ObserveEvaluate(d time.Duration) {
	if m == nil {
		return
	}
	m.EvaluateLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveBatch(size int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
}

func (m *Metrics) IncrementRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}
