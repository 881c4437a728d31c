package chunkstore

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the per-chunk payload codec. The choice is recorded in
// every chunk header, so mixed-codec chunk sets decode correctly and the
// setting can change between analyses without a format break.
type Compression string

const (
	// CompressionNone stores payloads verbatim.
	CompressionNone Compression = "none"
	// CompressionLZ4 favors decode speed; a good default for interactive
	// visualizer scrubbing.
	CompressionLZ4 Compression = "lz4"
	// CompressionZstd favors ratio; a good fit for cold object storage.
	CompressionZstd Compression = "zstd"
)

// Wire codec bytes. Append-only: never renumber.
const (
	codecRaw  uint8 = 0
	codecLZ4  uint8 = 1
	codecZstd uint8 = 2
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
)

// compress encodes raw with the selected codec and returns the stored bytes
// plus the codec byte actually used. Incompressible payloads fall back to raw
// storage so a stored chunk is never larger than its payload.
func compress(c Compression, raw []byte) ([]byte, uint8, error) {
	switch c {
	case "", CompressionNone:
		return raw, codecRaw, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		var compressor lz4.Compressor
		n, err := compressor.CompressBlock(raw, dst)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(raw) {
			return raw, codecRaw, nil
		}
		return dst[:n], codecLZ4, nil
	case CompressionZstd:
		dst := zstdEncoder.EncodeAll(raw, nil)
		if len(dst) >= len(raw) {
			return raw, codecRaw, nil
		}
		return dst, codecZstd, nil
	default:
		return nil, 0, fmt.Errorf("unknown compression %q", c)
	}
}

// decompress decodes stored bytes back to exactly rawSize payload bytes.
func decompress(codec uint8, stored []byte, rawSize int) ([]byte, error) {
	switch codec {
	case codecRaw:
		if len(stored) != rawSize {
			return nil, fmt.Errorf("raw chunk is %d bytes, header declares %d", len(stored), rawSize)
		}
		return stored, nil
	case codecLZ4:
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(stored, raw)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if n != rawSize {
			return nil, fmt.Errorf("lz4 chunk decompressed to %d bytes, header declares %d", n, rawSize)
		}
		return raw, nil
	case codecZstd:
		raw, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(raw) != rawSize {
			return nil, fmt.Errorf("zstd chunk decompressed to %d bytes, header declares %d", len(raw), rawSize)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown chunk codec byte %d", codec)
	}
}
