package chunkstore

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/framecast/internal/hash"
)

// Chunk is a contiguous, non-overlapping slice of frames with its decoded
// payload. Payload length is always exactly (EndFrame-StartFrame) *
// bytes_per_frame of the owning manifest.
type Chunk struct {
	ChunkIndex  int
	StartFrame  int
	EndFrame    int // exclusive
	StartTimeMS int
	EndTimeMS   int
	Payload     []byte
}

// FrameCount returns the number of frames in the chunk.
func (c *Chunk) FrameCount() int { return c.EndFrame - c.StartFrame }

// Chunk blob format:
//
//	Magic       (4 bytes) "FCHK"
//	Version     (4 bytes)
//	Codec       (4 bytes) - low byte is the compression codec
//	ChunkIndex  (4 bytes)
//	StartFrame  (4 bytes)
//	EndFrame    (4 bytes)
//	RawSize     (4 bytes) - payload bytes before compression
//	StoredSize  (4 bytes) - payload bytes as stored
//	Checksum    (4 bytes) - CRC32C of the raw payload
//	Stored payload
//
// All header fields little-endian, matching the declared byte order of the
// frame payload itself.
const (
	chunkMagic      = 0x4643484B // "FCHK"
	chunkVersion    = 1
	chunkHeaderSize = 36
)

// encodeChunk frames a raw payload for storage.
func encodeChunk(index, startFrame, endFrame int, raw []byte, compression Compression) ([]byte, error) {
	stored, codec, err := compress(compression, raw)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, chunkHeaderSize, chunkHeaderSize+len(stored))
	binary.LittleEndian.PutUint32(buf[0:4], chunkMagic)
	binary.LittleEndian.PutUint32(buf[4:8], chunkVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(codec))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(index))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(startFrame))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(endFrame))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(raw)))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(len(stored)))
	binary.LittleEndian.PutUint32(buf[32:36], hash.CRC32C(raw))
	return append(buf, stored...), nil
}

// decodeChunk parses and verifies a stored chunk blob, returning the chunk
// with its decompressed payload. hopMS fills in the derived time bounds.
func decodeChunk(data []byte, hopMS int) (*Chunk, error) {
	if len(data) < chunkHeaderSize {
		return nil, fmt.Errorf("chunk blob is %d bytes, want at least %d", len(data), chunkHeaderSize)
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != chunkMagic {
		return nil, fmt.Errorf("invalid chunk magic: %#x", magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != chunkVersion {
		return nil, fmt.Errorf("unsupported chunk version: %d", version)
	}

	codec := uint8(binary.LittleEndian.Uint32(data[8:12]))
	index := int(binary.LittleEndian.Uint32(data[12:16]))
	startFrame := int(binary.LittleEndian.Uint32(data[16:20]))
	endFrame := int(binary.LittleEndian.Uint32(data[20:24]))
	rawSize := int(binary.LittleEndian.Uint32(data[24:28]))
	storedSize := int(binary.LittleEndian.Uint32(data[28:32]))
	checksum := binary.LittleEndian.Uint32(data[32:36])

	if len(data)-chunkHeaderSize != storedSize {
		return nil, fmt.Errorf("chunk blob carries %d payload bytes, header declares %d", len(data)-chunkHeaderSize, storedSize)
	}

	raw, err := decompress(codec, data[chunkHeaderSize:], rawSize)
	if err != nil {
		return nil, err
	}
	if hash.CRC32C(raw) != checksum {
		return nil, fmt.Errorf("chunk %d payload checksum mismatch", index)
	}

	return &Chunk{
		ChunkIndex:  index,
		StartFrame:  startFrame,
		EndFrame:    endFrame,
		StartTimeMS: startFrame * hopMS,
		EndTimeMS:   endFrame * hopMS,
		Payload:     raw,
	}, nil
}
