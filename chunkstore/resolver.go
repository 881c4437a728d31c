package chunkstore

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/framecast/frame"
	"github.com/hupe1980/framecast/manifest"
)

// TimeRange is a half-open time span in milliseconds.
type TimeRange struct {
	FromMS int `json:"from_ms"`
	ToMS   int `json:"to_ms"`
}

// RangeResult is the answer to one range query: the chunks that cover the
// requested span, edge chunks trimmed to frame boundaries, together with the
// exact span the returned frames represent.
type RangeResult struct {
	Manifest    *manifest.Manifest
	Requested   TimeRange
	Actual      TimeRange
	Chunks      []*Chunk
	TotalFrames int
	TotalBytes  int
}

// Resolver turns millisecond ranges into trimmed chunk sets. The same query
// against the same committed analysis always yields byte-identical payloads.
type Resolver struct {
	store *Store
}

// NewResolver creates a Resolver on top of a Store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve fetches the chunks covering [fromMS, toMS) of the analysis. The
// range is clamped to the analysis duration before mapping to frames; a range
// that is empty after clamping fails with ErrInvalidRange. If bands is
// non-empty, payloads are repacked to carry only the named bands, in manifest
// order.
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID, fromMS, toMS int, bands []string) (*RangeResult, error) {
	m, err := r.store.Manifest(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, m, fromMS, toMS, bands)
}

func (r *Resolver) resolve(ctx context.Context, m *manifest.Manifest, fromMS, toMS int, bands []string) (*RangeResult, error) {
	if fromMS > toMS {
		return nil, &ErrInvalidRange{FromMS: fromMS, ToMS: toMS, Reason: "from is after to"}
	}

	from := clamp(fromMS, 0, m.DurationMS)
	to := clamp(toMS, 0, m.DurationMS)
	if to <= from {
		return nil, &ErrInvalidRange{FromMS: fromMS, ToMS: toMS, Reason: "range is empty after clamping"}
	}

	fromFrame := m.FrameForTime(from)
	toFrame := m.FrameEndForTime(to)
	if toFrame > m.FrameCount {
		toFrame = m.FrameCount
	}
	if fromFrame >= toFrame {
		return nil, &ErrInvalidRange{FromMS: fromMS, ToMS: toMS, Reason: "range covers no frames"}
	}

	view := m
	if len(bands) > 0 {
		proj, err := m.Project(bands)
		if err != nil {
			return nil, err
		}
		view = proj
	}

	firstChunk := m.ChunkForFrame(fromFrame)
	lastChunk := m.ChunkForFrame(toFrame - 1)

	chunks := make([]*Chunk, lastChunk-firstChunk+1)
	g, gctx := errgroup.WithContext(ctx)
	for i := firstChunk; i <= lastChunk; i++ {
		g.Go(func() error {
			c, err := r.store.Chunk(gctx, m, i)
			if err != nil {
				return err
			}
			chunks[i-firstChunk] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalFrames := 0
	totalBytes := 0
	for i, c := range chunks {
		trimmed, err := r.trim(c, m, view, fromFrame, toFrame)
		if err != nil {
			return nil, err
		}
		chunks[i] = trimmed
		totalFrames += trimmed.FrameCount()
		totalBytes += len(trimmed.Payload)
	}

	return &RangeResult{
		Manifest:    view,
		Requested:   TimeRange{FromMS: fromMS, ToMS: toMS},
		Actual:      TimeRange{FromMS: fromFrame * m.HopMS, ToMS: toFrame * m.HopMS},
		Chunks:      chunks,
		TotalFrames: totalFrames,
		TotalBytes:  totalBytes,
	}, nil
}

// trim cuts a chunk payload to the query's frame window and, when a band
// projection is active, repacks each frame to the projected layout. Cuts land
// only on bytes_per_frame boundaries, never inside a frame record.
func (r *Resolver) trim(c *Chunk, m, view *manifest.Manifest, fromFrame, toFrame int) (*Chunk, error) {
	start := max(c.StartFrame, fromFrame)
	end := min(c.EndFrame, toFrame)

	payload := c.Payload
	if start != c.StartFrame || end != c.EndFrame {
		lo := (start - c.StartFrame) * m.BytesPerFrame
		hi := (end - c.StartFrame) * m.BytesPerFrame
		payload = payload[lo:hi:hi]
	}

	if view != m {
		repacked, err := frame.Repack(payload, m, view)
		if err != nil {
			return nil, err
		}
		payload = repacked
	} else if start != c.StartFrame || end != c.EndFrame {
		// Detach trimmed edges from the cached backing array.
		payload = append([]byte(nil), payload...)
	}

	return &Chunk{
		ChunkIndex:  c.ChunkIndex,
		StartFrame:  start,
		EndFrame:    end,
		StartTimeMS: start * m.HopMS,
		EndTimeMS:   end * m.HopMS,
		Payload:     payload,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
