package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the question engine.
//
// All metrics are prefixed with "askroute_":
//   - askroute_questions_total{source} - answered questions by routed source
//   - askroute_questions_rejected_total - questions failing validation
//   - askroute_answer_duration_seconds{source} - time spent routing and matching
//   - askroute_cache_hits_total / askroute_cache_misses_total - answer cache
//   - askroute_snapshot_reloads_total{outcome} - record store loads
//   - askroute_snapshot_records{source} - records in the current snapshot
//   - askroute_rate_limited_total - HTTP requests rejected by the rate limiter
type Metrics struct {
	QuestionsTotal   *prometheus.CounterVec
	RejectedTotal    prometheus.Counter
	AnswerDuration   *prometheus.HistogramVec
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	ReloadsTotal     *prometheus.CounterVec
	SnapshotRecords  *prometheus.GaugeVec
	RateLimitedTotal prometheus.Counter
}

// New creates the collectors and registers them with reg. Each registry
// may only be passed once.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QuestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "askroute_questions_total",
				Help: "Total number of answered questions by routed source",
			},
			[]string{"source"},
		),
		RejectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "askroute_questions_rejected_total",
			Help: "Total number of questions rejected by validation",
		}),
		AnswerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "askroute_answer_duration_seconds",
				Help:    "Time spent routing and matching a question",
				Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
			},
			[]string{"source"},
		),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "askroute_cache_hits_total",
			Help: "Total number of answer cache hits",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "askroute_cache_misses_total",
			Help: "Total number of answer cache misses",
		}),
		ReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "askroute_snapshot_reloads_total",
				Help: "Total number of record snapshot loads by outcome",
			},
			[]string{"outcome"}, // "success" or "failure"
		),
		SnapshotRecords: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "askroute_snapshot_records",
				Help: "Number of records in the current snapshot",
			},
			[]string{"source"},
		),
		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "askroute_rate_limited_total",
			Help: "Total number of HTTP requests rejected by the rate limiter",
		}),
	}
}

// NewUnregistered creates collectors on a private registry, for tests and
// commands that never expose metrics
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
