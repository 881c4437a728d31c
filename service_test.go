package framecast_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/framecast"
	"github.com/hupe1980/framecast/blobstore"
	"github.com/hupe1980/framecast/chunkstore"
	"github.com/hupe1980/framecast/frame"
	"github.com/hupe1980/framecast/guard"
	"github.com/hupe1980/framecast/manifest"
	"github.com/hupe1980/framecast/timeline"
)

type memOwners struct {
	refs map[uuid.UUID]guard.OwnerRef
}

func (o *memOwners) AnalysisOwner(_ context.Context, analysisID uuid.UUID) (guard.OwnerRef, error) {
	ref, ok := o.refs[analysisID]
	if !ok {
		return guard.OwnerRef{}, guard.ErrNotFound
	}
	return ref, nil
}

type fixture struct {
	svc        *framecast.Service
	owner      uuid.UUID
	analysisID uuid.UUID
	m          *manifest.Manifest
}

// newFixture commits a full analysis: 100 frames of 10ms in chunks of 40,
// one float32 band carrying the frame index, plus a few events.
func newFixture(t *testing.T, opts ...framecast.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	m, err := manifest.Build(manifest.Params{
		AnalysisID:      uuid.New(),
		HopMS:           10,
		DurationMS:      1000,
		ChunkSizeFrames: 40,
		Bands: []manifest.Band{
			{Name: "rms", DataType: manifest.Float32, Size: 1},
		},
		Fingerprint: guard.Fingerprint(guard.FingerprintInput{
			ContentHash:     "deadbeef",
			AnalyzerVersion: "1.0.0",
			Params:          map[string]string{"hop_ms": "10"},
		}),
	})
	require.NoError(t, err)

	owner := uuid.New()
	owners := &memOwners{refs: map[uuid.UUID]guard.OwnerRef{
		m.AnalysisID: {TrackID: uuid.New(), OwnerID: owner},
	}}

	svc := framecast.New(blobstore.NewMemoryStore(), owners, opts...)

	w, err := svc.NewWriter(ctx, m)
	require.NoError(t, err)

	packer, err := frame.NewPacker(m)
	require.NoError(t, err)
	for i := 0; i < m.TotalChunks; i++ {
		start, end := m.ChunkBounds(i)
		var payload []byte
		for f := start; f < end; f++ {
			payload, err = packer.AppendFrame(payload, frame.Values{"rms": {float64(f)}})
			require.NoError(t, err)
		}
		require.NoError(t, w.WriteChunk(ctx, i, payload))
	}
	require.NoError(t, w.AppendEvent(timeline.Event{Type: timeline.Beat, TimeMS: 480}))
	require.NoError(t, w.Commit(ctx))

	return &fixture{svc: svc, owner: owner, analysisID: m.AnalysisID, m: m}
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	t.Run("manifest", func(t *testing.T) {
		m, err := fx.svc.Manifest(ctx, fx.owner, fx.analysisID)
		require.NoError(t, err)
		assert.Equal(t, manifest.StatusCompleted, m.Status)
		assert.Equal(t, 100, m.FrameCount)
	})

	t.Run("frames", func(t *testing.T) {
		res, err := fx.svc.Frames(ctx, fx.owner, fx.analysisID, framecast.FrameQuery{FromMS: 350, ToMS: 450})
		require.NoError(t, err)
		assert.Equal(t, 10, res.TotalFrames)
		assert.Len(t, res.Chunks, 2)
		assert.Equal(t, 350, res.Actual.FromMS)
		assert.Equal(t, 450, res.Actual.ToMS)
	})

	t.Run("chunk", func(t *testing.T) {
		c, err := fx.svc.Chunk(ctx, fx.owner, fx.analysisID, 2)
		require.NoError(t, err)
		assert.Equal(t, 80, c.StartFrame)
		assert.Equal(t, 100, c.EndFrame)
	})

	t.Run("events", func(t *testing.T) {
		events, err := fx.svc.Events(ctx, fx.owner, fx.analysisID, timeline.Query{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, timeline.Beat, events[0].Type)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := fx.svc.Frames(ctx, fx.owner, fx.analysisID, framecast.FrameQuery{FromMS: 600, ToMS: 100})
		var ir *framecast.ErrInvalidRange
		require.ErrorAs(t, err, &ir)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, fx.svc.DeleteAnalysis(ctx, fx.owner, fx.analysisID))
		_, err := fx.svc.Manifest(ctx, fx.owner, fx.analysisID)
		require.ErrorIs(t, err, framecast.ErrNotFound)
	})
}

func TestServiceDeniesStrangers(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	stranger := uuid.New()

	// Every read surface answers identically for a stranger and for a
	// nonexistent analysis.
	_, errForeign := fx.svc.Manifest(ctx, stranger, fx.analysisID)
	_, errUnknown := fx.svc.Manifest(ctx, fx.owner, uuid.New())
	require.ErrorIs(t, errForeign, framecast.ErrNotFound)
	require.ErrorIs(t, errUnknown, framecast.ErrNotFound)

	_, err := fx.svc.Frames(ctx, stranger, fx.analysisID, framecast.FrameQuery{FromMS: 0, ToMS: 100})
	require.ErrorIs(t, err, framecast.ErrNotFound)

	_, err = fx.svc.Events(ctx, stranger, fx.analysisID, timeline.Query{})
	require.ErrorIs(t, err, framecast.ErrNotFound)

	err = fx.svc.DeleteAnalysis(ctx, stranger, fx.analysisID)
	require.ErrorIs(t, err, framecast.ErrNotFound)

	// Nothing was deleted by the denied call.
	_, err = fx.svc.Manifest(ctx, fx.owner, fx.analysisID)
	require.NoError(t, err)
}

func TestServiceChunkNotFoundKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.svc.Chunk(ctx, fx.owner, fx.analysisID, 99)
	var cnf *framecast.ErrChunkNotFound
	require.ErrorAs(t, err, &cnf)
	assert.Equal(t, 99, cnf.ChunkIndex)

	// A missing chunk is not the uniform not-found: the analysis itself is
	// visible to its owner.
	assert.NotErrorIs(t, err, framecast.ErrNotFound)
}

func TestServiceMetrics(t *testing.T) {
	ctx := context.Background()
	collector := &framecast.AtomicMetricsCollector{}
	fx := newFixture(t, framecast.WithMetricsCollector(collector))

	_, err := fx.svc.Frames(ctx, fx.owner, fx.analysisID, framecast.FrameQuery{FromMS: 0, ToMS: 1000})
	require.NoError(t, err)
	_, err = fx.svc.Frames(ctx, fx.owner, fx.analysisID, framecast.FrameQuery{FromMS: 500, ToMS: 100})
	require.Error(t, err)

	assert.Equal(t, int64(2), collector.FrameQueries.Load())
	assert.Equal(t, int64(100), collector.FramesServed.Load())
	assert.Equal(t, int64(1), collector.Errors.Load())
}

func TestServiceFrameQueryLogging(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := framecast.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	fx := newFixture(t, framecast.WithLogger(logger))
	buf.Reset()

	_, err := fx.svc.Frames(ctx, fx.owner, fx.analysisID, framecast.FrameQuery{FromMS: 0, ToMS: 100})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "frame query completed", entry["msg"])
	assert.Equal(t, fx.analysisID.String(), entry["analysis_id"])
	assert.Equal(t, fx.owner.String(), entry["principal"])
}

func TestServiceCompression(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, framecast.WithCompression(chunkstore.CompressionZstd))

	res, err := fx.svc.Frames(ctx, fx.owner, fx.analysisID, framecast.FrameQuery{FromMS: 0, ToMS: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, res.TotalFrames)
	assert.Equal(t, 400, res.TotalBytes)
}
