package manifest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the version of the manifest schema itself, independent of
// the analyzer version that produced the data.
//
// Version 1.0: little-endian tightly packed frame records.
const SchemaVersion = "1.0"

// Status describes the visibility state of an analysis run.
type Status string

const (
	// StatusInProgress marks an analysis whose chunks are still being written.
	// Range reads against it may fail with a chunk-not-found error for
	// not-yet-committed indices.
	StatusInProgress Status = "in_progress"
	// StatusCompleted marks a fully committed, immutable analysis.
	StatusCompleted Status = "completed"
)

// ByteOrder declares the byte order of all packed band values.
type ByteOrder string

// LittleEndian is the only byte order supported by schema version 1.0.
// Float bands are IEEE-754, integer bands two's complement.
const LittleEndian ByteOrder = "little_endian"

// DataType is the fixed-width numeric kind of a band's values.
//
// The set is closed and validated at build time; free-form strings from the
// producer are rejected rather than defaulted.
type DataType string

const (
	Float32 DataType = "float32"
	Float64 DataType = "float64"
	Int16   DataType = "int16"
	Int32   DataType = "int32"
	Uint8   DataType = "uint8"
)

// ByteSize returns the encoded width of one value, or 0 for an unknown type.
func (dt DataType) ByteSize() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64:
		return 8
	case Int16:
		return 2
	case Uint8:
		return 1
	default:
		return 0
	}
}

// Valid reports whether dt is a member of the declared type set.
func (dt DataType) Valid() bool { return dt.ByteSize() > 0 }

// Band is one named feature stream sampled once per frame.
// Unit, MinValue, MaxValue and Description are informational only.
type Band struct {
	Name        string   `json:"name"`
	DataType    DataType `json:"data_type"`
	Size        int      `json:"size"`
	Unit        string   `json:"unit,omitempty"`
	MinValue    *float64 `json:"min_value,omitempty"`
	MaxValue    *float64 `json:"max_value,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ByteSize returns the packed width of this band within one frame record.
func (b Band) ByteSize() int { return b.Size * b.DataType.ByteSize() }

// FrameLayoutEntry gives the byte range of one band within a frame record.
type FrameLayoutEntry struct {
	BandName   string `json:"band_name"`
	ByteOffset int    `json:"byte_offset"`
	ByteSize   int    `json:"byte_size"`
}

// Manifest describes one analysis run for one audio track.
//
// HopMS, the band list and the frame layout are immutable once the manifest
// is committed; re-analysis produces a new analysis id with its own manifest
// and chunk set.
type Manifest struct {
	Version         string             `json:"version"`
	AnalysisID      uuid.UUID          `json:"analysis_id"`
	Status          Status             `json:"status"`
	HopMS           int                `json:"hop_ms"`
	FrameCount      int                `json:"frame_count"`
	DurationMS      int                `json:"duration_ms"`
	SampleRate      int                `json:"sample_rate"`
	Bands           []Band             `json:"bands"`
	BytesPerFrame   int                `json:"bytes_per_frame"`
	FrameLayout     []FrameLayoutEntry `json:"frame_layout"`
	ByteOrder       ByteOrder          `json:"byte_order"`
	Fingerprint     string             `json:"fingerprint"`
	AnalyzerVersion string             `json:"analyzer_version"`
	ChunkSizeFrames int                `json:"chunk_size_frames"`
	TotalChunks     int                `json:"total_chunks"`
	CreatedAt       time.Time          `json:"created_at"`
}

// FrameForTime maps a time to the frame index covering it (floor).
func (m *Manifest) FrameForTime(ms int) int { return ms / m.HopMS }

// FrameEndForTime maps an exclusive end time to an exclusive frame bound (ceil).
func (m *Manifest) FrameEndForTime(ms int) int { return (ms + m.HopMS - 1) / m.HopMS }

// TimeForFrame maps a frame index to its start time.
func (m *Manifest) TimeForFrame(frame int) int { return frame * m.HopMS }

// ChunkForFrame maps a frame index to the chunk index containing it.
func (m *Manifest) ChunkForFrame(frame int) int { return frame / m.ChunkSizeFrames }

// ChunkBounds returns the [start,end) frame range of a chunk. The final chunk
// may be short.
func (m *Manifest) ChunkBounds(chunkIndex int) (startFrame, endFrame int) {
	startFrame = chunkIndex * m.ChunkSizeFrames
	endFrame = startFrame + m.ChunkSizeFrames
	if endFrame > m.FrameCount {
		endFrame = m.FrameCount
	}
	return startFrame, endFrame
}

// Layout returns the layout entry for a band name.
func (m *Manifest) Layout(bandName string) (FrameLayoutEntry, bool) {
	for _, e := range m.FrameLayout {
		if e.BandName == bandName {
			return e, true
		}
	}
	return FrameLayoutEntry{}, false
}

// BandByName returns the band descriptor for a name.
func (m *Manifest) BandByName(name string) (Band, bool) {
	for _, b := range m.Bands {
		if b.Name == name {
			return b, true
		}
	}
	return Band{}, false
}

// Validate re-checks the layout invariants on a manifest read back from
// storage: entries follow band declaration order, are tightly packed with no
// gaps or overlaps, and sum to BytesPerFrame.
func (m *Manifest) Validate() error {
	if len(m.FrameLayout) != len(m.Bands) {
		return &ErrInvalidManifest{Field: "frame_layout", Reason: "entry count does not match band count"}
	}
	offset := 0
	for i, e := range m.FrameLayout {
		b := m.Bands[i]
		if e.BandName != b.Name {
			return &ErrInvalidManifest{Field: "frame_layout", Reason: fmt.Sprintf("entry %d is %q, band order declares %q", i, e.BandName, b.Name)}
		}
		if e.ByteOffset != offset {
			return &ErrInvalidManifest{Field: "frame_layout", Reason: fmt.Sprintf("band %q at offset %d, expected %d", e.BandName, e.ByteOffset, offset)}
		}
		if e.ByteSize != b.ByteSize() {
			return &ErrInvalidManifest{Field: "frame_layout", Reason: fmt.Sprintf("band %q size %d, declaration implies %d", e.BandName, e.ByteSize, b.ByteSize())}
		}
		offset += e.ByteSize
	}
	if offset != m.BytesPerFrame {
		return &ErrInvalidManifest{Field: "bytes_per_frame", Reason: fmt.Sprintf("layout totals %d bytes, manifest declares %d", offset, m.BytesPerFrame)}
	}
	if m.ByteOrder != LittleEndian {
		return &ErrInvalidManifest{Field: "byte_order", Reason: fmt.Sprintf("unsupported byte order %q", m.ByteOrder)}
	}
	return nil
}

// Project returns a derived manifest view covering only the named bands, in
// the parent's declaration order, with a freshly packed tight layout.
//
// The projection shares the parent's timeline parameters, so frame and chunk
// arithmetic is unchanged; only BytesPerFrame and the layout differ. Unknown
// band names are rejected.
func (m *Manifest) Project(bandNames []string) (*Manifest, error) {
	if len(bandNames) == 0 {
		return m, nil
	}
	want := make(map[string]bool, len(bandNames))
	for _, name := range bandNames {
		if _, ok := m.BandByName(name); !ok {
			return nil, &ErrInvalidManifest{Field: "bands", Reason: fmt.Sprintf("unknown band %q", name)}
		}
		want[name] = true
	}

	proj := *m
	proj.Bands = nil
	for _, b := range m.Bands {
		if want[b.Name] {
			proj.Bands = append(proj.Bands, b)
		}
	}
	proj.FrameLayout, proj.BytesPerFrame = computeLayout(proj.Bands)
	return &proj, nil
}

// ErrInvalidManifest indicates malformed band or layout input. It signals a
// defect in the upstream producer, never end-user input.
type ErrInvalidManifest struct {
	Field  string
	Reason string
}

func (e *ErrInvalidManifest) Error() string {
	return fmt.Sprintf("invalid manifest: %s: %s", e.Field, e.Reason)
}
