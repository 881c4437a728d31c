package chunkstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/framecast/blobstore"
	"github.com/hupe1980/framecast/codec"
	"github.com/hupe1980/framecast/manifest"
	"github.com/hupe1980/framecast/timeline"
)

// Writer produces the chunk set of one analysis run. It is single-writer and
// strictly sequential: chunks must arrive in increasing index order, and
// nothing becomes visible to readers until Commit writes the COMMITTED
// pointer. A Writer is not safe for concurrent use.
type Writer struct {
	blobs       blobstore.BlobStore
	m           *manifest.Manifest
	compression Compression
	codec       codec.Codec
	logger      *slog.Logger

	written *roaring.Bitmap
	next    int
	events  []timeline.Event
	closed  bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression selects the payload codec for all chunks of this run.
func WithCompression(c Compression) WriterOption {
	return func(w *Writer) { w.compression = c }
}

// WithWriterLogger sets a structured logger for the write path.
func WithWriterLogger(l *slog.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// NewWriter opens a writer for a freshly built manifest and stages it as
// in-progress. Fails with ErrAnalysisExists if the analysis id already has a
// committed chunk set.
func NewWriter(ctx context.Context, blobs blobstore.BlobStore, m *manifest.Manifest, opts ...WriterOption) (*Writer, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	committed, err := blobstore.Exists(ctx, blobs, committedName(m.AnalysisID))
	if err != nil {
		return nil, err
	}
	if committed {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisExists, m.AnalysisID)
	}

	w := &Writer{
		blobs:       blobs,
		m:           m,
		compression: CompressionNone,
		codec:       codec.Default,
		logger:      slog.New(slog.DiscardHandler),
		written:     roaring.New(),
	}
	for _, opt := range opts {
		opt(w)
	}

	// Stage the manifest as in-progress so readers that opt into partial
	// visibility can see the schema while chunks are still arriving.
	pending := *m
	pending.Status = manifest.StatusInProgress
	data, err := w.codec.Marshal(&pending)
	if err != nil {
		return nil, err
	}
	if err := blobs.Put(ctx, pendingName(m.AnalysisID), data); err != nil {
		return nil, err
	}

	w.logger.Info("analysis staged",
		"analysis_id", m.AnalysisID,
		"frame_count", m.FrameCount,
		"total_chunks", m.TotalChunks,
		"bytes_per_frame", m.BytesPerFrame,
	)
	return w, nil
}

// Manifest returns the manifest this writer produces chunks for.
func (w *Writer) Manifest() *manifest.Manifest { return w.m }

// NextChunkIndex returns the index WriteChunk expects next.
func (w *Writer) NextChunkIndex() int { return w.next }

// WriteChunk stages the payload for the given chunk index. Indices must
// arrive strictly in order starting at 0, and the payload length must equal
// the chunk's frame span times bytes_per_frame.
func (w *Writer) WriteChunk(ctx context.Context, chunkIndex int, payload []byte) error {
	if w.closed {
		return ErrWriterClosed
	}
	if chunkIndex != w.next {
		return fmt.Errorf("chunk %d out of order: writer expects %d", chunkIndex, w.next)
	}
	if chunkIndex >= w.m.TotalChunks {
		return fmt.Errorf("chunk %d out of range: manifest declares %d chunks", chunkIndex, w.m.TotalChunks)
	}

	startFrame, endFrame := w.m.ChunkBounds(chunkIndex)
	want := (endFrame - startFrame) * w.m.BytesPerFrame
	if len(payload) != want {
		return &ErrChunkSizeMismatch{ChunkIndex: chunkIndex, Want: want, Got: len(payload)}
	}

	blob, err := encodeChunk(chunkIndex, startFrame, endFrame, payload, w.compression)
	if err != nil {
		return err
	}
	if err := w.blobs.Put(ctx, chunkName(w.m.AnalysisID, chunkIndex), blob); err != nil {
		return err
	}

	w.written.Add(uint32(chunkIndex))
	w.next++

	w.logger.Debug("chunk staged",
		"analysis_id", w.m.AnalysisID,
		"chunk_index", chunkIndex,
		"frames", endFrame-startFrame,
		"stored_bytes", len(blob),
	)
	return nil
}

// AppendEvent stages one timeline event. Events become visible together with
// the chunks at Commit.
func (w *Writer) AppendEvent(e timeline.Event) error {
	if w.closed {
		return ErrWriterClosed
	}
	if err := timeline.Validate(e); err != nil {
		return err
	}
	w.events = append(w.events, e)
	return nil
}

// AppendEvents stages a batch of events, rejecting the batch on the first
// invalid entry.
func (w *Writer) AppendEvents(events []timeline.Event) error {
	for _, e := range events {
		if err := timeline.Validate(e); err != nil {
			return err
		}
	}
	if w.closed {
		return ErrWriterClosed
	}
	w.events = append(w.events, w.eventsCopy(events)...)
	return nil
}

func (w *Writer) eventsCopy(events []timeline.Event) []timeline.Event {
	out := make([]timeline.Event, len(events))
	copy(out, events)
	return out
}

// Commit finalizes the analysis: every declared chunk must have been written.
// The completed manifest and the event list are written first, the COMMITTED
// pointer last. The pointer write is the single atomic visibility flip.
func (w *Writer) Commit(ctx context.Context) error {
	if w.closed {
		return ErrWriterClosed
	}
	if got := int(w.written.GetCardinality()); got != w.m.TotalChunks {
		return fmt.Errorf("commit with %d of %d chunks written", got, w.m.TotalChunks)
	}

	eventsData, err := w.codec.Marshal(timeline.NewList(w.events).All())
	if err != nil {
		return err
	}
	if err := w.blobs.Put(ctx, eventsName(w.m.AnalysisID), eventsData); err != nil {
		return err
	}

	final := *w.m
	final.Status = manifest.StatusCompleted
	manifestData, err := w.codec.Marshal(&final)
	if err != nil {
		return err
	}
	if err := w.blobs.Put(ctx, manifestName(w.m.AnalysisID), manifestData); err != nil {
		return err
	}

	if err := w.blobs.Put(ctx, committedName(w.m.AnalysisID), []byte(manifestBlob)); err != nil {
		return err
	}
	if err := w.blobs.Delete(ctx, pendingName(w.m.AnalysisID)); err != nil {
		// The COMMITTED pointer already won; a stale PENDING blob is ignored
		// by readers.
		w.logger.Warn("stale pending manifest left behind", "analysis_id", w.m.AnalysisID, "error", err)
	}

	w.closed = true
	w.m.Status = manifest.StatusCompleted

	w.logger.Info("analysis committed",
		"analysis_id", w.m.AnalysisID,
		"chunks", w.m.TotalChunks,
		"events", len(w.events),
	)
	return nil
}

// Abort removes everything this writer staged. Safe to call after a failed
// Commit; a committed analysis cannot be aborted.
func (w *Writer) Abort(ctx context.Context) error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	names, err := w.blobs.List(ctx, analysisPrefix(w.m.AnalysisID))
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := w.blobs.Delete(ctx, name); err != nil {
			return fmt.Errorf("abort: delete %s: %w", name, err)
		}
	}

	w.logger.Info("analysis aborted", "analysis_id", w.m.AnalysisID)
	return nil
}
