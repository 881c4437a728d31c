// Package frame serializes per-band value arrays into the fixed-size binary
// records described by a manifest's frame layout, and back.
//
// Packing order is determined solely by the layout, never by caller-supplied
// order; a record is rejected in full if any band fails to pack. All values
// are encoded little-endian as declared by the manifest's byte order field.
package frame

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/framecast/manifest"
)

// Values holds one frame's band values keyed by band name. Every declared
// band must be present with exactly its declared number of values.
//
// float64 is the interchange type for all band kinds; integer bands are
// truncated to their declared width on pack, so values already representable
// in the band's data type round-trip bit-exactly.
type Values map[string][]float64

// ErrBandSizeMismatch indicates a supplied band array whose length does not
// match the declared band size, or a band missing from the input entirely.
// It signals a defect in the upstream analyzer.
type ErrBandSizeMismatch struct {
	Band string
	Want int
	Got  int
}

func (e *ErrBandSizeMismatch) Error() string {
	if e.Got < 0 {
		return fmt.Sprintf("band %q: missing from frame input (want %d values)", e.Band, e.Want)
	}
	return fmt.Sprintf("band %q: got %d values, layout declares %d", e.Band, e.Got, e.Want)
}

// Packer serializes frames for one manifest. Safe for concurrent use.
type Packer struct {
	m *manifest.Manifest
}

// NewPacker binds a packer to a manifest, re-validating the layout first.
func NewPacker(m *manifest.Manifest) (*Packer, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Packer{m: m}, nil
}

// BytesPerFrame returns the fixed record size.
func (p *Packer) BytesPerFrame() int { return p.m.BytesPerFrame }

// AppendFrame packs one frame record onto buf and returns the extended slice.
// buf is unchanged on error.
func (p *Packer) AppendFrame(buf []byte, values Values) ([]byte, error) {
	// Validate everything before touching buf: no partial records.
	for _, b := range p.m.Bands {
		vals, ok := values[b.Name]
		if !ok {
			return buf, &ErrBandSizeMismatch{Band: b.Name, Want: b.Size, Got: -1}
		}
		if len(vals) != b.Size {
			return buf, &ErrBandSizeMismatch{Band: b.Name, Want: b.Size, Got: len(vals)}
		}
	}

	for _, b := range p.m.Bands {
		buf = appendBand(buf, b.DataType, values[b.Name])
	}
	return buf, nil
}

// Pack packs one frame into a freshly allocated record.
func (p *Packer) Pack(values Values) ([]byte, error) {
	return p.AppendFrame(make([]byte, 0, p.m.BytesPerFrame), values)
}

// Unpack decodes one frame record. The record length must be exactly
// BytesPerFrame.
func (p *Packer) Unpack(record []byte) (Values, error) {
	if len(record) != p.m.BytesPerFrame {
		return nil, fmt.Errorf("frame record is %d bytes, layout declares %d", len(record), p.m.BytesPerFrame)
	}
	out := make(Values, len(p.m.Bands))
	for i, e := range p.m.FrameLayout {
		b := p.m.Bands[i]
		out[b.Name] = decodeBand(record[e.ByteOffset:e.ByteOffset+e.ByteSize], b.DataType, b.Size)
	}
	return out, nil
}

// UnpackAt decodes frame i out of a multi-frame payload.
func (p *Packer) UnpackAt(payload []byte, i int) (Values, error) {
	bpf := p.m.BytesPerFrame
	off := i * bpf
	if i < 0 || off+bpf > len(payload) {
		return nil, fmt.Errorf("frame %d out of payload bounds (%d bytes)", i, len(payload))
	}
	return p.Unpack(payload[off : off+bpf])
}

func appendBand(buf []byte, dt manifest.DataType, vals []float64) []byte {
	switch dt {
	case manifest.Float32:
		for _, v := range vals {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
		}
	case manifest.Float64:
		for _, v := range vals {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	case manifest.Int16:
		for _, v := range vals {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(v)))
		}
	case manifest.Int32:
		for _, v := range vals {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(v)))
		}
	case manifest.Uint8:
		for _, v := range vals {
			buf = append(buf, uint8(v))
		}
	}
	return buf
}

func decodeBand(b []byte, dt manifest.DataType, size int) []float64 {
	vals := make([]float64, size)
	switch dt {
	case manifest.Float32:
		for i := range vals {
			vals[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
		}
	case manifest.Float64:
		for i := range vals {
			vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
		}
	case manifest.Int16:
		for i := range vals {
			vals[i] = float64(int16(binary.LittleEndian.Uint16(b[i*2:])))
		}
	case manifest.Int32:
		for i := range vals {
			vals[i] = float64(int32(binary.LittleEndian.Uint32(b[i*4:])))
		}
	case manifest.Uint8:
		for i := range vals {
			vals[i] = float64(b[i])
		}
	}
	return vals
}
