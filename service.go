package framecast

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/framecast/blobstore"
	"github.com/hupe1980/framecast/chunkstore"
	"github.com/hupe1980/framecast/guard"
	"github.com/hupe1980/framecast/manifest"
	"github.com/hupe1980/framecast/timeline"
)

// FrameQuery selects a half-open time span [FromMS, ToMS) and, optionally, a
// subset of bands. An empty Bands slice means all bands.
type FrameQuery struct {
	FromMS int
	ToMS   int
	Bands  []string
}

// Service is the guarded entry point for reading analysis data. Every read
// authorizes the principal against the analysis owner first; callers cannot
// distinguish an analysis that does not exist from one they do not own.
//
// Service is safe for concurrent use.
type Service struct {
	blobs    blobstore.BlobStore
	store    *chunkstore.Store
	resolver *chunkstore.Resolver
	guard    *guard.Guard
	opts     *options
}

// New creates a Service on top of a blob store and an ownership resolver.
func New(blobs blobstore.BlobStore, owners guard.OwnerResolver, opts ...Option) *Service {
	o := &options{
		compression:     chunkstore.CompressionNone,
		chunkCacheBytes: chunkstore.DefaultChunkCacheBytes,
		metrics:         NoopMetricsCollector{},
		logger:          NoopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	store := chunkstore.NewStore(blobs,
		chunkstore.WithChunkCacheBytes(o.chunkCacheBytes),
		chunkstore.WithStoreLogger(o.logger.Logger),
	)

	return &Service{
		blobs:    blobs,
		store:    store,
		resolver: chunkstore.NewResolver(store),
		guard:    guard.New(owners, guard.WithLogger(o.logger.Logger)),
		opts:     o,
	}
}

// NewWriter opens a chunk writer for a freshly built manifest. The write path
// belongs to the trusted ingest job, so no principal is involved; ownership
// is recorded by the resolver backing this service.
func (s *Service) NewWriter(ctx context.Context, m *manifest.Manifest) (*chunkstore.Writer, error) {
	w, err := chunkstore.NewWriter(ctx, s.blobs, m,
		chunkstore.WithCompression(s.opts.compression),
		chunkstore.WithWriterLogger(s.opts.logger.Logger),
	)
	if err != nil {
		return nil, translateError(err)
	}
	return w, nil
}

// Manifest returns the analysis manifest.
func (s *Service) Manifest(ctx context.Context, principal, analysisID uuid.UUID) (*manifest.Manifest, error) {
	start := time.Now()

	m, err := s.manifest(ctx, principal, analysisID)
	s.opts.metrics.RecordManifest(time.Since(start), err)
	return m, err
}

func (s *Service) manifest(ctx context.Context, principal, analysisID uuid.UUID) (*manifest.Manifest, error) {
	if _, err := s.guard.Authorize(ctx, principal, analysisID); err != nil {
		return nil, translateError(err)
	}
	m, err := s.store.Manifest(ctx, analysisID)
	if err != nil {
		return nil, translateError(err)
	}
	return m, nil
}

// Frames resolves a range query into trimmed chunks. The result carries both
// the requested span and the exact span the returned frames cover.
func (s *Service) Frames(ctx context.Context, principal, analysisID uuid.UUID, q FrameQuery) (*chunkstore.RangeResult, error) {
	start := time.Now()

	res, err := s.frames(ctx, principal, analysisID, q)

	frames, bytes := 0, 0
	if res != nil {
		frames, bytes = res.TotalFrames, res.TotalBytes
	}
	s.opts.metrics.RecordFrameQuery(frames, bytes, time.Since(start), err)
	s.opts.logger.WithAnalysis(analysisID).WithPrincipal(principal).LogFrameQuery(ctx, q.FromMS, q.ToMS, len(chunksOf(res)), err)
	return res, err
}

func (s *Service) frames(ctx context.Context, principal, analysisID uuid.UUID, q FrameQuery) (*chunkstore.RangeResult, error) {
	if _, err := s.guard.Authorize(ctx, principal, analysisID); err != nil {
		return nil, translateError(err)
	}
	res, err := s.resolver.Resolve(ctx, analysisID, q.FromMS, q.ToMS, q.Bands)
	if err != nil {
		return nil, translateError(err)
	}
	return res, nil
}

func chunksOf(res *chunkstore.RangeResult) []*chunkstore.Chunk {
	if res == nil {
		return nil
	}
	return res.Chunks
}

// Chunk returns one decoded chunk without trimming.
func (s *Service) Chunk(ctx context.Context, principal, analysisID uuid.UUID, chunkIndex int) (*chunkstore.Chunk, error) {
	start := time.Now()

	c, err := s.chunk(ctx, principal, analysisID, chunkIndex)
	s.opts.metrics.RecordChunk(time.Since(start), err)
	return c, err
}

func (s *Service) chunk(ctx context.Context, principal, analysisID uuid.UUID, chunkIndex int) (*chunkstore.Chunk, error) {
	if _, err := s.guard.Authorize(ctx, principal, analysisID); err != nil {
		return nil, translateError(err)
	}
	m, err := s.store.Manifest(ctx, analysisID)
	if err != nil {
		return nil, translateError(err)
	}
	c, err := s.store.Chunk(ctx, m, chunkIndex)
	if err != nil {
		return nil, translateError(err)
	}
	return c, nil
}

// Events returns the analysis timeline filtered by the query. Bounds are
// inclusive; nil pointers leave a bound open.
func (s *Service) Events(ctx context.Context, principal, analysisID uuid.UUID, q timeline.Query) ([]timeline.Event, error) {
	start := time.Now()

	events, err := s.events(ctx, principal, analysisID, q)
	s.opts.metrics.RecordEvents(len(events), time.Since(start), err)
	return events, err
}

func (s *Service) events(ctx context.Context, principal, analysisID uuid.UUID, q timeline.Query) ([]timeline.Event, error) {
	if _, err := s.guard.Authorize(ctx, principal, analysisID); err != nil {
		return nil, translateError(err)
	}
	list, err := s.store.Events(ctx, analysisID)
	if err != nil {
		return nil, translateError(err)
	}
	return list.Select(q), nil
}

// DeleteAnalysis removes every blob of the analysis. Only the owner may
// delete; for everyone else the analysis does not exist.
func (s *Service) DeleteAnalysis(ctx context.Context, principal, analysisID uuid.UUID) error {
	start := time.Now()

	err := s.deleteAnalysis(ctx, principal, analysisID)
	s.opts.metrics.RecordDelete(time.Since(start), err)
	s.opts.logger.LogDelete(ctx, analysisID, err)
	return err
}

func (s *Service) deleteAnalysis(ctx context.Context, principal, analysisID uuid.UUID) error {
	if _, err := s.guard.Authorize(ctx, principal, analysisID); err != nil {
		return translateError(err)
	}
	return translateError(s.store.Delete(ctx, analysisID))
}
