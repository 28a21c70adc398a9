// Package prometheus adapts recgo.MetricsCollector to Prometheus.
package prometheus

import (
	"time"

	"github.com/hupe1980/recgo"
	"github.com/prometheus/client_golang/prometheus"
)

var _ recgo.MetricsCollector = (*Collector)(nil)

// Collector records engine metrics in Prometheus collectors.
type Collector struct {
	calls      *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	rows       prometheus.Counter
	queries    prometheus.Counter
	candidates prometheus.Histogram
	queryTime  prometheus.Histogram
	evaluated  prometheus.Counter
}

// New creates a Collector and registers it with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recgo_calls_total",
			Help: "Batch calls by operation and status",
		}, []string{"op", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recgo_call_duration_seconds",
			Help:    "Latency of batch calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recgo_result_rows_total",
			Help: "Recommendation rows produced",
		}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recgo_queries_total",
			Help: "Query entities processed",
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recgo_query_candidates",
			Help:    "Candidates scored per query entity",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		queryTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recgo_query_duration_seconds",
			Help:    "Per-entity scoring and selection latency",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recgo_evaluated_entities_total",
			Help: "Entities covered by precision/recall evaluation",
		}),
	}

	reg.MustRegister(c.calls, c.latency, c.rows, c.queries, c.candidates, c.queryTime, c.evaluated)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordRecommend implements recgo.MetricsCollector.
func (c *Collector) RecordRecommend(_, rows int, d time.Duration, err error) {
	c.calls.WithLabelValues("recommend", status(err)).Inc()
	c.latency.WithLabelValues("recommend").Observe(d.Seconds())
	if err == nil {
		c.rows.Add(float64(rows))
	}
}

// RecordQuery implements recgo.MetricsCollector.
func (c *Collector) RecordQuery(candidates int, d time.Duration) {
	c.queries.Inc()
	c.candidates.Observe(float64(candidates))
	c.queryTime.Observe(d.Seconds())
}

// RecordEvaluate implements recgo.MetricsCollector.
func (c *Collector) RecordEvaluate(entities int, d time.Duration, err error) {
	c.calls.WithLabelValues("evaluate", status(err)).Inc()
	c.latency.WithLabelValues("evaluate").Observe(d.Seconds())
	if err == nil {
		c.evaluated.Add(float64(entities))
	}
}
