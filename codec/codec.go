// Package codec centralizes metadata encoding for manifests and event lists.
//
// Codec selection is a breaking-change boundary: persisted blobs created by
// one codec may not decode under another. Frame chunk payloads never pass
// through a codec: their byte layout is declared by the manifest and must
// survive bit-exact.
package codec

import "fmt"

// Codec encodes/decodes values. Implementations must be safe for concurrent
// use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
