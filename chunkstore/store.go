package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/framecast/blobstore"
	"github.com/hupe1980/framecast/codec"
	"github.com/hupe1980/framecast/internal/cache"
	"github.com/hupe1980/framecast/manifest"
	"github.com/hupe1980/framecast/timeline"
)

// DefaultChunkCacheBytes is the default capacity of the decoded-chunk cache.
const DefaultChunkCacheBytes = 64 << 20

// Store reads committed (and, for manifests, in-progress) analyses from a
// blob store. Decoded chunk payloads are held in a byte-cost LRU cache, so
// repeated range queries over hot regions avoid the decode and checksum work.
// Store is safe for concurrent use.
type Store struct {
	blobs  blobstore.BlobStore
	codec  codec.Codec
	chunks *cache.LRU
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithChunkCacheBytes sets the decoded-chunk cache capacity. Zero disables
// caching.
func WithChunkCacheBytes(n int64) StoreOption {
	return func(s *Store) { s.chunks = cache.NewLRU(n) }
}

// WithStoreLogger sets a structured logger for the read path.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store backed by the given blob store.
func NewStore(blobs blobstore.BlobStore, opts ...StoreOption) *Store {
	s := &Store{
		blobs:  blobs,
		codec:  codec.Default,
		chunks: cache.NewLRU(DefaultChunkCacheBytes),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Manifest returns the manifest for the analysis. A committed analysis yields
// the completed manifest; an analysis still being written yields the staged
// in-progress one. Unknown analyses fail with blobstore.ErrNotFound.
func (s *Store) Manifest(ctx context.Context, id uuid.UUID) (*manifest.Manifest, error) {
	committed, err := blobstore.Exists(ctx, s.blobs, committedName(id))
	if err != nil {
		return nil, err
	}

	name := pendingName(id)
	if committed {
		name = manifestName(id)
	}

	data, err := blobstore.ReadAll(ctx, s.blobs, name)
	if err != nil {
		return nil, err
	}

	var m manifest.Manifest
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", id, err)
	}
	return &m, nil
}

// Chunk returns one decoded chunk. A missing chunk blob fails with
// ErrChunkNotFound, which for an in-progress analysis means the producer has
// not reached that index yet.
func (s *Store) Chunk(ctx context.Context, m *manifest.Manifest, chunkIndex int) (*Chunk, error) {
	if chunkIndex < 0 || chunkIndex >= m.TotalChunks {
		return nil, &ErrChunkNotFound{ChunkIndex: chunkIndex}
	}

	key := chunkCacheKey(m.AnalysisID, chunkIndex)
	if payload, ok := s.chunks.Get(key); ok {
		start, end := m.ChunkBounds(chunkIndex)
		return &Chunk{
			ChunkIndex:  chunkIndex,
			StartFrame:  start,
			EndFrame:    end,
			StartTimeMS: start * m.HopMS,
			EndTimeMS:   end * m.HopMS,
			Payload:     payload,
		}, nil
	}

	data, err := blobstore.ReadAll(ctx, s.blobs, chunkName(m.AnalysisID, chunkIndex))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, &ErrChunkNotFound{ChunkIndex: chunkIndex, cause: err}
		}
		return nil, err
	}

	chunk, err := decodeChunk(data, m.HopMS)
	if err != nil {
		return nil, fmt.Errorf("chunk %d of %s: %w", chunkIndex, m.AnalysisID, err)
	}
	if chunk.ChunkIndex != chunkIndex {
		return nil, fmt.Errorf("chunk blob %d of %s declares index %d", chunkIndex, m.AnalysisID, chunk.ChunkIndex)
	}
	// The CRC only covers the payload, so the frame bounds in the header must
	// agree with the layout the manifest computes for this index.
	if start, end := m.ChunkBounds(chunkIndex); chunk.StartFrame != start || chunk.EndFrame != end {
		return nil, fmt.Errorf("chunk blob %d of %s declares frames [%d,%d), manifest expects [%d,%d)",
			chunkIndex, m.AnalysisID, chunk.StartFrame, chunk.EndFrame, start, end)
	}
	if want := chunk.FrameCount() * m.BytesPerFrame; len(chunk.Payload) != want {
		return nil, &ErrChunkSizeMismatch{ChunkIndex: chunkIndex, Want: want, Got: len(chunk.Payload)}
	}

	s.chunks.Set(key, chunk.Payload)
	return chunk, nil
}

// Events returns the committed event timeline of the analysis. An analysis
// without an events blob has an empty timeline.
func (s *Store) Events(ctx context.Context, id uuid.UUID) (*timeline.List, error) {
	data, err := blobstore.ReadAll(ctx, s.blobs, eventsName(id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return timeline.NewList(nil), nil
		}
		return nil, err
	}

	var events []timeline.Event
	if err := s.codec.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode events %s: %w", id, err)
	}
	return timeline.NewList(events), nil
}

// Delete removes every blob of the analysis and drops its cached chunks.
// Deleting an unknown analysis is a no-op.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	names, err := s.blobs.List(ctx, analysisPrefix(id))
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.blobs.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}

	prefix := id.String() + "/"
	s.chunks.Invalidate(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})

	s.logger.Info("analysis deleted", "analysis_id", id, "blobs", len(names))
	return nil
}
