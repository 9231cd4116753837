package pme

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/hupe1980/pme/pack"
)

type options struct {
	build            BuildConfig
	metricsCollector MetricsCollector
	logger           *Logger
	memoryLimit      int64
	ioWorkers        int64
	ioLimit          int64
	modelID          uuid.UUID
	compression      pack.Compression
}

// Option configures Engine construction and Load.
type Option func(*options)

// WithBuildConfig sets the engine-wide limits.
// Defaults to DefaultBuildConfig.
func WithBuildConfig(cfg BuildConfig) Option {
	return func(o *options) {
		o.build = cfg
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pme.BasicMetricsCollector{}
//	e, _ := pme.New(table, pme.WithMetricsCollector(metrics))
//	// ... use e ...
//	stats := metrics.GetStats()
//	fmt.Printf("Submits: %d, unknown: %d\n", stats.SubmitCount, stats.ClassifyUnknown)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
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

// WithMemoryLimit caps the bytes held by pattern stores, learning scores,
// the result arena and the DTW workspace. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit caps knowledge pack transfer throughput in bytes per second
// and the number of concurrent blob transfers.
func WithIOLimit(bytesPerSec int64, workers int) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
		o.ioWorkers = int64(workers)
	}
}

// WithModelID sets the model identity recorded in saved packs.
// A random id is generated otherwise.
func WithModelID(id uuid.UUID) Option {
	return func(o *options) {
		o.modelID = id
	}
}

// WithPackCompression selects the body compression of saved knowledge packs.
// Defaults to LZ4.
func WithPackCompression(c pack.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(opts []Option) options {
	o := options{
		build:       DefaultBuildConfig(),
		compression: pack.CompressionLZ4,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.modelID == uuid.Nil {
		o.modelID = uuid.New()
	}
	return o
}
