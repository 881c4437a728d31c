package manifest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Defaults applied by Build when the corresponding Params field is zero.
const (
	DefaultChunkSizeFrames = 1000
	DefaultSampleRate      = 44100
	DefaultAnalyzerVersion = "1.0.0"
)

// Params is the input to Build.
type Params struct {
	AnalysisID uuid.UUID
	HopMS      int
	DurationMS int
	// SampleRate is reference metadata only; defaults to 44100.
	SampleRate int
	// Bands in declaration order. The order defines the packing order.
	Bands []Band
	// ChunkSizeFrames tunes how many frames each stored chunk holds.
	// Defaults to 1000. Fixed once the manifest is built.
	ChunkSizeFrames int
	Fingerprint     string
	AnalyzerVersion string
}

// Build computes a manifest from the band list and timeline parameters.
//
// It is a pure computation: frame count is ceil(duration/hop), the frame
// layout packs band byte ranges tightly in declaration order with no padding,
// and total chunks is ceil(frame_count/chunk_size_frames). Persistence is the
// chunk store's concern.
func Build(p Params) (*Manifest, error) {
	if p.HopMS <= 0 {
		return nil, &ErrInvalidManifest{Field: "hop_ms", Reason: fmt.Sprintf("must be positive, got %d", p.HopMS)}
	}
	if p.DurationMS <= 0 {
		return nil, &ErrInvalidManifest{Field: "duration_ms", Reason: fmt.Sprintf("must be positive, got %d", p.DurationMS)}
	}
	if len(p.Bands) == 0 {
		return nil, &ErrInvalidManifest{Field: "bands", Reason: "at least one band is required"}
	}
	if p.ChunkSizeFrames < 0 {
		return nil, &ErrInvalidManifest{Field: "chunk_size_frames", Reason: fmt.Sprintf("must be positive, got %d", p.ChunkSizeFrames)}
	}

	seen := make(map[string]bool, len(p.Bands))
	for i, b := range p.Bands {
		if b.Name == "" {
			return nil, &ErrInvalidManifest{Field: "bands", Reason: fmt.Sprintf("band %d has an empty name", i)}
		}
		if seen[b.Name] {
			return nil, &ErrInvalidManifest{Field: "bands", Reason: fmt.Sprintf("duplicate band name %q", b.Name)}
		}
		seen[b.Name] = true
		if !b.DataType.Valid() {
			return nil, &ErrInvalidManifest{Field: "bands", Reason: fmt.Sprintf("band %q has unknown data type %q", b.Name, b.DataType)}
		}
		if b.Size < 1 {
			return nil, &ErrInvalidManifest{Field: "bands", Reason: fmt.Sprintf("band %q has size %d, want >= 1", b.Name, b.Size)}
		}
	}

	chunkSize := p.ChunkSizeFrames
	if chunkSize == 0 {
		chunkSize = DefaultChunkSizeFrames
	}
	sampleRate := p.SampleRate
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	analyzerVersion := p.AnalyzerVersion
	if analyzerVersion == "" {
		analyzerVersion = DefaultAnalyzerVersion
	}
	analysisID := p.AnalysisID
	if analysisID == uuid.Nil {
		analysisID = uuid.New()
	}

	frameCount := (p.DurationMS + p.HopMS - 1) / p.HopMS
	layout, bytesPerFrame := computeLayout(p.Bands)

	return &Manifest{
		Version:         SchemaVersion,
		AnalysisID:      analysisID,
		Status:          StatusInProgress,
		HopMS:           p.HopMS,
		FrameCount:      frameCount,
		DurationMS:      p.DurationMS,
		SampleRate:      sampleRate,
		Bands:           p.Bands,
		BytesPerFrame:   bytesPerFrame,
		FrameLayout:     layout,
		ByteOrder:       LittleEndian,
		Fingerprint:     p.Fingerprint,
		AnalyzerVersion: analyzerVersion,
		ChunkSizeFrames: chunkSize,
		TotalChunks:     (frameCount + chunkSize - 1) / chunkSize,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// computeLayout packs the bands tightly in declaration order.
func computeLayout(bands []Band) ([]FrameLayoutEntry, int) {
	layout := make([]FrameLayoutEntry, 0, len(bands))
	offset := 0
	for _, b := range bands {
		size := b.ByteSize()
		layout = append(layout, FrameLayoutEntry{
			BandName:   b.Name,
			ByteOffset: offset,
			ByteSize:   size,
		})
		offset += size
	}
	return layout, offset
}
