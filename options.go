package framecast

import (
	"github.com/hupe1980/framecast/chunkstore"
)

type options struct {
	compression     chunkstore.Compression
	chunkCacheBytes int64
	metrics         MetricsCollector
	logger          *Logger
}

// Option configures Service constructor behavior.
type Option func(*options)

// WithCompression selects the chunk payload compression for writers created
// through the service. Stored payloads decompress to identical bytes.
func WithCompression(c chunkstore.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithChunkCacheBytes sets the capacity of the decoded-chunk cache. Zero
// disables caching.
func WithChunkCacheBytes(n int64) Option {
	return func(o *options) {
		o.chunkCacheBytes = n
	}
}

// WithMetricsCollector configures operational metrics collection.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithLogger configures structured logging.
//
// If nil is passed, NoopLogger() is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}
