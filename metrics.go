package framecast

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordManifest is called after each manifest lookup.
	RecordManifest(duration time.Duration, err error)

	// RecordFrameQuery is called after each range query. frames and bytes
	// describe the returned payload; both are zero on error.
	RecordFrameQuery(frames, bytes int, duration time.Duration, err error)

	// RecordChunk is called after each single-chunk fetch.
	RecordChunk(duration time.Duration, err error)

	// RecordEvents is called after each event timeline lookup.
	RecordEvents(count int, duration time.Duration, err error)

	// RecordDelete is called after each analysis deletion.
	RecordDelete(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordManifest(time.Duration, error)             {}
func (NoopMetricsCollector) RecordFrameQuery(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordChunk(time.Duration, error)                {}
func (NoopMetricsCollector) RecordEvents(int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)               {}

// AtomicMetricsCollector counts operations and errors with atomic counters.
// Useful for tests and lightweight in-process monitoring.
type AtomicMetricsCollector struct {
	Manifests    atomic.Int64
	FrameQueries atomic.Int64
	FramesServed atomic.Int64
	BytesServed  atomic.Int64
	Chunks       atomic.Int64
	Events       atomic.Int64
	Deletes      atomic.Int64
	Errors       atomic.Int64
}

func (c *AtomicMetricsCollector) RecordManifest(_ time.Duration, err error) {
	c.Manifests.Add(1)
	c.countError(err)
}

func (c *AtomicMetricsCollector) RecordFrameQuery(frames, bytes int, _ time.Duration, err error) {
	c.FrameQueries.Add(1)
	c.FramesServed.Add(int64(frames))
	c.BytesServed.Add(int64(bytes))
	c.countError(err)
}

func (c *AtomicMetricsCollector) RecordChunk(_ time.Duration, err error) {
	c.Chunks.Add(1)
	c.countError(err)
}

func (c *AtomicMetricsCollector) RecordEvents(count int, _ time.Duration, err error) {
	c.Events.Add(int64(count))
	c.countError(err)
}

func (c *AtomicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	c.Deletes.Add(1)
	c.countError(err)
}

func (c *AtomicMetricsCollector) countError(err error) {
	if err != nil {
		c.Errors.Add(1)
	}
}
