package frame

import (
	"fmt"

	"github.com/hupe1980/framecast/manifest"
)

// Repack projects a multi-frame payload packed with the parent manifest's
// layout onto a derived projection manifest (see [manifest.Manifest.Project]).
//
// Copying happens at layout-entry boundaries only, so band values survive
// byte-exact; a frame record is never split. The payload length must be a
// whole number of parent frames.
func Repack(payload []byte, parent, proj *manifest.Manifest) ([]byte, error) {
	if parent.BytesPerFrame == proj.BytesPerFrame && len(parent.Bands) == len(proj.Bands) {
		// Full projection; nothing to move.
		return payload, nil
	}
	if len(payload)%parent.BytesPerFrame != 0 {
		return nil, fmt.Errorf("payload is %d bytes, not a multiple of %d bytes per frame", len(payload), parent.BytesPerFrame)
	}
	frames := len(payload) / parent.BytesPerFrame

	// Source byte range per projected band, in projection order.
	src := make([]manifest.FrameLayoutEntry, len(proj.Bands))
	for i, b := range proj.Bands {
		e, ok := parent.Layout(b.Name)
		if !ok {
			return nil, fmt.Errorf("band %q not present in parent layout", b.Name)
		}
		src[i] = e
	}

	out := make([]byte, 0, frames*proj.BytesPerFrame)
	for f := 0; f < frames; f++ {
		base := f * parent.BytesPerFrame
		for _, e := range src {
			out = append(out, payload[base+e.ByteOffset:base+e.ByteOffset+e.ByteSize]...)
		}
	}
	return out, nil
}
