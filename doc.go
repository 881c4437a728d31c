// Package framecast stores and serves time-indexed audio analysis frames.
//
// An analysis run produces fixed-size binary frames at a regular hop
// interval. Framecast packs those frames into chunked blobs, describes their
// layout in a manifest, and answers millisecond range queries with trimmed,
// byte-exact chunk sets:
//
//   - Manifest-driven layout: every band's type, size, and offset is declared
//     up front, so payloads decode without per-frame framing bytes
//   - Deterministic time mapping: frame = floor(ms / hop_ms), identical on
//     the write and read path
//   - Atomic visibility: an analysis appears to readers only after its
//     COMMITTED pointer is written, never half-finished
//   - Pluggable blob backends: in-memory, local filesystem, MinIO, S3
//   - Ownership guard: every read is authorized, and unknown vs. foreign
//     analyses are indistinguishable to the caller
//
// # Quick Start
//
// Write an analysis:
//
//	m, err := manifest.Build(manifest.Params{
//	    AnalysisID: analysisID,
//	    HopMS:      10,
//	    DurationMS: 180_000,
//	    Bands: []manifest.Band{
//	        {Name: "rms", DataType: manifest.Float32, Size: 1},
//	        {Name: "spectrum", DataType: manifest.Float32, Size: 128},
//	    },
//	})
//	w, err := chunkstore.NewWriter(ctx, blobs, m)
//	for i := 0; i < m.TotalChunks; i++ {
//	    w.WriteChunk(ctx, i, payloads[i])
//	}
//	err = w.Commit(ctx)
//
// Serve range queries through the guarded facade:
//
//	svc := framecast.New(blobs, owners)
//	res, err := svc.Frames(ctx, principal, analysisID, framecast.FrameQuery{
//	    FromMS: 30_000,
//	    ToMS:   60_000,
//	    Bands:  []string{"rms"},
//	})
package framecast
