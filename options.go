package recgo

import (
	"log/slog"
	"sync/atomic"
)

// DefaultProgressEvery is the number of completed queries between progress
// log lines.
const DefaultProgressEvery = 1000

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	workers          int
	progressEvery    uint64
	progress         *atomic.Uint64
	debugChecks      bool
	memoryLimit      int64
	maxCalls         int64
}

// Option configures the Engine.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring calls.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &recgo.BasicMetricsCollector{}
//	eng, _ := recgo.New(m, recgo.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Calls: %d, Rows: %d\n", stats.RecommendCount, stats.RowCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for calls.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := recgo.NewJSONLogger(slog.LevelInfo)
//	eng, _ := recgo.New(m, recgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithWorkers sets the number of workers per call.
// If n <= 0, GOMAXPROCS is used.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithProgressEvery sets how many completed queries separate progress log
// lines. Zero disables progress logging.
func WithProgressEvery(n uint64) Option {
	return func(o *options) {
		o.progressEvery = n
	}
}

// WithProgressCounter injects the counter incremented once per completed
// query. It may be shared between engines and read concurrently for
// observability.
func WithProgressCounter(c *atomic.Uint64) Option {
	return func(o *options) {
		o.progress = c
	}
}

// WithDebugChecks enables internal consistency checks in the diversity
// re-ranker. A failing check aborts the call.
func WithDebugChecks(enabled bool) Option {
	return func(o *options) {
		o.debugChecks = enabled
	}
}

// WithMemoryLimit caps the estimated bytes of output buffered by concurrent
// calls. A call whose estimate does not fit fails with ErrMemoryLimitExceeded.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMaxConcurrentCalls bounds the number of Recommend calls running at once.
// Further calls wait for a slot or for their context to end.
func WithMaxConcurrentCalls(n int64) Option {
	return func(o *options) {
		o.maxCalls = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		progressEvery:    DefaultProgressEvery,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.progress == nil {
		o.progress = new(atomic.Uint64)
	}
	return o
}
