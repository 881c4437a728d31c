package manifest_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/framecast/manifest"
)

func buildTestManifest(t *testing.T, hopMS, durationMS, chunkSize int) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Build(manifest.Params{
		AnalysisID:      uuid.New(),
		HopMS:           hopMS,
		DurationMS:      durationMS,
		ChunkSizeFrames: chunkSize,
		Bands: []manifest.Band{
			{Name: "rms", DataType: manifest.Float32, Size: 1},
			{Name: "spectrum", DataType: manifest.Float32, Size: 32},
			{Name: "onsets", DataType: manifest.Uint8, Size: 4},
		},
	})
	require.NoError(t, err)
	return m
}

func TestBuildDefaults(t *testing.T) {
	m, err := manifest.Build(manifest.Params{
		HopMS:      10,
		DurationMS: 1000,
		Bands: []manifest.Band{
			{Name: "rms", DataType: manifest.Float32, Size: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, manifest.SchemaVersion, m.Version)
	assert.NotEqual(t, uuid.Nil, m.AnalysisID)
	assert.Equal(t, manifest.StatusInProgress, m.Status)
	assert.Equal(t, manifest.DefaultChunkSizeFrames, m.ChunkSizeFrames)
	assert.Equal(t, manifest.DefaultSampleRate, m.SampleRate)
	assert.Equal(t, manifest.DefaultAnalyzerVersion, m.AnalyzerVersion)
	assert.Equal(t, manifest.LittleEndian, m.ByteOrder)
	assert.Equal(t, 100, m.FrameCount)
	assert.Equal(t, 1, m.TotalChunks)
}

func TestBuildLayout(t *testing.T) {
	m := buildTestManifest(t, 10, 1000, 40)

	// float32*1 + float32*32 + uint8*4
	assert.Equal(t, 4+128+4, m.BytesPerFrame)

	require.Len(t, m.FrameLayout, 3)
	assert.Equal(t, manifest.FrameLayoutEntry{BandName: "rms", ByteOffset: 0, ByteSize: 4}, m.FrameLayout[0])
	assert.Equal(t, manifest.FrameLayoutEntry{BandName: "spectrum", ByteOffset: 4, ByteSize: 128}, m.FrameLayout[1])
	assert.Equal(t, manifest.FrameLayoutEntry{BandName: "onsets", ByteOffset: 132, ByteSize: 4}, m.FrameLayout[2])

	require.NoError(t, m.Validate())
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	base := manifest.Params{
		HopMS:      10,
		DurationMS: 1000,
		Bands:      []manifest.Band{{Name: "rms", DataType: manifest.Float32, Size: 1}},
	}

	tests := []struct {
		name   string
		mutate func(*manifest.Params)
	}{
		{"zero hop", func(p *manifest.Params) { p.HopMS = 0 }},
		{"negative duration", func(p *manifest.Params) { p.DurationMS = -1 }},
		{"no bands", func(p *manifest.Params) { p.Bands = nil }},
		{"empty band name", func(p *manifest.Params) { p.Bands = []manifest.Band{{DataType: manifest.Float32, Size: 1}} }},
		{"duplicate band name", func(p *manifest.Params) {
			p.Bands = []manifest.Band{
				{Name: "rms", DataType: manifest.Float32, Size: 1},
				{Name: "rms", DataType: manifest.Float64, Size: 1},
			}
		}},
		{"unknown data type", func(p *manifest.Params) { p.Bands = []manifest.Band{{Name: "rms", DataType: "float16", Size: 1}} }},
		{"zero band size", func(p *manifest.Params) { p.Bands = []manifest.Band{{Name: "rms", DataType: manifest.Float32, Size: 0}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			_, err := manifest.Build(p)

			var im *manifest.ErrInvalidManifest
			require.ErrorAs(t, err, &im)
		})
	}
}

func TestFrameCountIsCeil(t *testing.T) {
	tests := []struct {
		hopMS, durationMS, want int
	}{
		{10, 1000, 100},
		{10, 1001, 101},
		{10, 1009, 101},
		{10, 10, 1},
		{10, 1, 1},
		{441, 180000, 409}, // 180000/441 = 408.16...
	}
	for _, tt := range tests {
		m := buildTestManifest(t, tt.hopMS, tt.durationMS, 0)
		assert.Equal(t, tt.want, m.FrameCount, "hop=%d duration=%d", tt.hopMS, tt.durationMS)
	}
}

func TestTimeMapping(t *testing.T) {
	m := buildTestManifest(t, 10, 1000, 40)

	// Floor on the start side, ceil on the exclusive end side.
	assert.Equal(t, 0, m.FrameForTime(0))
	assert.Equal(t, 0, m.FrameForTime(9))
	assert.Equal(t, 1, m.FrameForTime(10))
	assert.Equal(t, 2, m.FrameForTime(25))

	assert.Equal(t, 1, m.FrameEndForTime(10))
	assert.Equal(t, 3, m.FrameEndForTime(25))
	assert.Equal(t, 3, m.FrameEndForTime(30))

	assert.Equal(t, 250, m.TimeForFrame(25))

	// With hop 10, [5, 25) maps to frames [0, 3).
	assert.Equal(t, 0, m.FrameForTime(5))
	assert.Equal(t, 3, m.FrameEndForTime(25))
}

func TestChunkMapping(t *testing.T) {
	m := buildTestManifest(t, 10, 1000, 40) // 100 frames, chunks of 40

	assert.Equal(t, 3, m.TotalChunks)
	assert.Equal(t, 0, m.ChunkForFrame(39))
	assert.Equal(t, 1, m.ChunkForFrame(40))
	assert.Equal(t, 2, m.ChunkForFrame(99))

	start, end := m.ChunkBounds(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 40, end)

	// Final chunk is short.
	start, end = m.ChunkBounds(2)
	assert.Equal(t, 80, start)
	assert.Equal(t, 100, end)
}

func TestValidateDetectsCorruptLayout(t *testing.T) {
	t.Run("gap", func(t *testing.T) {
		m := buildTestManifest(t, 10, 1000, 40)
		m.FrameLayout[1].ByteOffset++
		var im *manifest.ErrInvalidManifest
		require.ErrorAs(t, m.Validate(), &im)
	})

	t.Run("order mismatch", func(t *testing.T) {
		m := buildTestManifest(t, 10, 1000, 40)
		m.FrameLayout[0].BandName, m.FrameLayout[1].BandName = m.FrameLayout[1].BandName, m.FrameLayout[0].BandName
		var im *manifest.ErrInvalidManifest
		require.ErrorAs(t, m.Validate(), &im)
	})

	t.Run("total mismatch", func(t *testing.T) {
		m := buildTestManifest(t, 10, 1000, 40)
		m.BytesPerFrame += 8
		var im *manifest.ErrInvalidManifest
		require.ErrorAs(t, m.Validate(), &im)
	})

	t.Run("byte order", func(t *testing.T) {
		m := buildTestManifest(t, 10, 1000, 40)
		m.ByteOrder = "big_endian"
		var im *manifest.ErrInvalidManifest
		require.ErrorAs(t, m.Validate(), &im)
	})
}

func TestProject(t *testing.T) {
	m := buildTestManifest(t, 10, 1000, 40)

	proj, err := m.Project([]string{"onsets", "rms"})
	require.NoError(t, err)

	// Parent declaration order wins, not request order.
	require.Len(t, proj.Bands, 2)
	assert.Equal(t, "rms", proj.Bands[0].Name)
	assert.Equal(t, "onsets", proj.Bands[1].Name)

	assert.Equal(t, 8, proj.BytesPerFrame)
	assert.Equal(t, 0, proj.FrameLayout[0].ByteOffset)
	assert.Equal(t, 4, proj.FrameLayout[1].ByteOffset)
	require.NoError(t, proj.Validate())

	// Timeline arithmetic is untouched.
	assert.Equal(t, m.FrameCount, proj.FrameCount)
	assert.Equal(t, m.ChunkSizeFrames, proj.ChunkSizeFrames)

	t.Run("unknown band", func(t *testing.T) {
		_, err := m.Project([]string{"rms", "nope"})
		var im *manifest.ErrInvalidManifest
		require.ErrorAs(t, err, &im)
	})

	t.Run("empty selection returns parent", func(t *testing.T) {
		proj, err := m.Project(nil)
		require.NoError(t, err)
		assert.Same(t, m, proj)
	})
}
