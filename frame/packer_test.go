package frame_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/framecast/frame"
	"github.com/hupe1980/framecast/manifest"
)

func allTypesManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Build(manifest.Params{
		HopMS:      10,
		DurationMS: 1000,
		Bands: []manifest.Band{
			{Name: "f32", DataType: manifest.Float32, Size: 3},
			{Name: "f64", DataType: manifest.Float64, Size: 2},
			{Name: "i16", DataType: manifest.Int16, Size: 2},
			{Name: "i32", DataType: manifest.Int32, Size: 1},
			{Name: "u8", DataType: manifest.Uint8, Size: 4},
		},
	})
	require.NoError(t, err)
	return m
}

func TestPackUnpackRoundTrip(t *testing.T) {
	p, err := frame.NewPacker(allTypesManifest(t))
	require.NoError(t, err)

	in := frame.Values{
		"f32": {1.5, -2.25, 0},
		"f64": {math.Pi, -1e-9},
		"i16": {-32768, 32767},
		"i32": {-123456},
		"u8":  {0, 1, 128, 255},
	}

	record, err := p.Pack(in)
	require.NoError(t, err)
	require.Len(t, record, p.BytesPerFrame())

	out, err := p.Unpack(record)
	require.NoError(t, err)

	assert.Equal(t, []float64{1.5, -2.25, 0}, out["f32"])
	assert.InDelta(t, math.Pi, out["f64"][0], 0)
	assert.Equal(t, -1e-9, out["f64"][1])
	assert.Equal(t, []float64{-32768, 32767}, out["i16"])
	assert.Equal(t, []float64{-123456}, out["i32"])
	assert.Equal(t, []float64{0, 1, 128, 255}, out["u8"])
}

func TestPackIsLittleEndianLayoutOrder(t *testing.T) {
	m, err := manifest.Build(manifest.Params{
		HopMS:      10,
		DurationMS: 100,
		Bands: []manifest.Band{
			{Name: "a", DataType: manifest.Float32, Size: 1},
			{Name: "b", DataType: manifest.Int16, Size: 1},
		},
	})
	require.NoError(t, err)

	p, err := frame.NewPacker(m)
	require.NoError(t, err)

	record, err := p.Pack(frame.Values{"a": {1.0}, "b": {258}})
	require.NoError(t, err)
	require.Len(t, record, 6)

	assert.Equal(t, math.Float32bits(1.0), binary.LittleEndian.Uint32(record[0:4]))
	assert.Equal(t, []byte{0x02, 0x01}, record[4:6])
}

func TestPackRejectsBadInput(t *testing.T) {
	p, err := frame.NewPacker(allTypesManifest(t))
	require.NoError(t, err)

	valid := frame.Values{
		"f32": {1, 2, 3},
		"f64": {1, 2},
		"i16": {1, 2},
		"i32": {1},
		"u8":  {1, 2, 3, 4},
	}

	t.Run("missing band", func(t *testing.T) {
		in := frame.Values{}
		for k, v := range valid {
			in[k] = v
		}
		delete(in, "i32")

		buf, err := p.AppendFrame(nil, in)
		var bm *frame.ErrBandSizeMismatch
		require.ErrorAs(t, err, &bm)
		assert.Equal(t, "i32", bm.Band)
		assert.Empty(t, buf)
	})

	t.Run("wrong length", func(t *testing.T) {
		in := frame.Values{}
		for k, v := range valid {
			in[k] = v
		}
		in["u8"] = []float64{1, 2}

		_, err := p.AppendFrame(nil, in)
		var bm *frame.ErrBandSizeMismatch
		require.ErrorAs(t, err, &bm)
		assert.Equal(t, 4, bm.Want)
		assert.Equal(t, 2, bm.Got)
	})
}

func TestUnpackAt(t *testing.T) {
	p, err := frame.NewPacker(allTypesManifest(t))
	require.NoError(t, err)

	var payload []byte
	for i := 0; i < 3; i++ {
		payload, err = p.AppendFrame(payload, frame.Values{
			"f32": {float64(i), 0, 0},
			"f64": {0, 0},
			"i16": {int16Val(i), 0},
			"i32": {0},
			"u8":  {float64(i), 0, 0, 0},
		})
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		vals, err := p.UnpackAt(payload, i)
		require.NoError(t, err)
		assert.Equal(t, float64(i), vals["f32"][0])
		assert.Equal(t, float64(i), vals["u8"][0])
	}

	_, err = p.UnpackAt(payload, 3)
	require.Error(t, err)
	_, err = p.UnpackAt(payload, -1)
	require.Error(t, err)
}

func int16Val(i int) float64 { return float64(int16(i)) }

func TestRepackProjection(t *testing.T) {
	m := allTypesManifest(t)
	p, err := frame.NewPacker(m)
	require.NoError(t, err)

	var payload []byte
	for i := 0; i < 4; i++ {
		payload, err = p.AppendFrame(payload, frame.Values{
			"f32": {float64(i), float64(i) + 0.5, -float64(i)},
			"f64": {float64(i) * 10, 0},
			"i16": {float64(i), -1},
			"i32": {float64(i * 1000)},
			"u8":  {float64(i), 2, 3, 4},
		})
		require.NoError(t, err)
	}

	proj, err := m.Project([]string{"f32", "u8"})
	require.NoError(t, err)

	repacked, err := frame.Repack(payload, m, proj)
	require.NoError(t, err)
	require.Len(t, repacked, 4*proj.BytesPerFrame)

	pp, err := frame.NewPacker(proj)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		vals, err := pp.UnpackAt(repacked, i)
		require.NoError(t, err)
		assert.Equal(t, []float64{float64(i), float64(i) + 0.5, -float64(i)}, vals["f32"])
		assert.Equal(t, []float64{float64(i), 2, 3, 4}, vals["u8"])
	}

	t.Run("partial frame payload rejected", func(t *testing.T) {
		_, err := frame.Repack(payload[:len(payload)-1], m, proj)
		require.Error(t, err)
	})

	t.Run("full projection is identity", func(t *testing.T) {
		out, err := frame.Repack(payload, m, m)
		require.NoError(t, err)
		assert.Equal(t, payload, out)
	})
}
