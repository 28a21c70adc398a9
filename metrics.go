package recgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// metrics/prometheus ships a Prometheus adapter.
type MetricsCollector interface {
	// RecordRecommend is called after each batch call.
	// queries is the number of queries planned, rows the number of rows
	// produced, err is nil if successful.
	RecordRecommend(queries, rows int, duration time.Duration, err error)

	// RecordQuery is called after each query entity with the number of
	// candidates that were scored.
	RecordQuery(candidates int, duration time.Duration)

	// RecordEvaluate is called after each precision/recall evaluation.
	RecordEvaluate(entities int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRecommend(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration)                 {}
func (NoopMetricsCollector) RecordEvaluate(int, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RecommendCount      atomic.Int64
	RecommendErrors     atomic.Int64
	RecommendTotalNanos atomic.Int64
	RowCount            atomic.Int64
	QueryCount          atomic.Int64
	QueryTotalNanos     atomic.Int64
	CandidateCount      atomic.Int64
	EvaluateCount       atomic.Int64
	EvaluateErrors      atomic.Int64
}

// RecordRecommend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecommend(_, rows int, duration time.Duration, err error) {
	b.RecommendCount.Add(1)
	b.RecommendTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RecommendErrors.Add(1)
		return
	}
	b.RowCount.Add(int64(rows))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(candidates int, duration time.Duration) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.CandidateCount.Add(int64(candidates))
}

// RecordEvaluate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluate(_ int, _ time.Duration, err error) {
	b.EvaluateCount.Add(1)
	if err != nil {
		b.EvaluateErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RecommendCount:    b.RecommendCount.Load(),
		RecommendErrors:   b.RecommendErrors.Load(),
		RecommendAvgNanos: avg(b.RecommendTotalNanos.Load(), b.RecommendCount.Load()),
		RowCount:          b.RowCount.Load(),
		QueryCount:        b.QueryCount.Load(),
		QueryAvgNanos:     avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		CandidateCount:    b.CandidateCount.Load(),
		EvaluateCount:     b.EvaluateCount.Load(),
		EvaluateErrors:    b.EvaluateErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RecommendCount    int64
	RecommendErrors   int64
	RecommendAvgNanos int64
	RowCount          int64
	QueryCount        int64
	QueryAvgNanos     int64
	CandidateCount    int64
	EvaluateCount     int64
	EvaluateErrors    int64
}
