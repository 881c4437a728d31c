package guard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/framecast/guard"
)

func TestFingerprintDeterministic(t *testing.T) {
	in := guard.FingerprintInput{
		ContentHash:     "abc123",
		AnalyzerVersion: "1.0.0",
		Params:          map[string]string{"hop_ms": "10", "bands": "rms,spectrum"},
	}

	first := guard.Fingerprint(in)
	require.Len(t, first, 64)

	// Map iteration order never shows through.
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, guard.Fingerprint(guard.FingerprintInput{
			ContentHash:     "abc123",
			AnalyzerVersion: "1.0.0",
			Params:          map[string]string{"bands": "rms,spectrum", "hop_ms": "10"},
		}))
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := guard.FingerprintInput{
		ContentHash:     "abc123",
		AnalyzerVersion: "1.0.0",
		Params:          map[string]string{"hop_ms": "10"},
	}
	ref := guard.Fingerprint(base)

	tests := []struct {
		name   string
		mutate func(*guard.FingerprintInput)
	}{
		{"content hash", func(in *guard.FingerprintInput) { in.ContentHash = "abc124" }},
		{"analyzer version", func(in *guard.FingerprintInput) { in.AnalyzerVersion = "1.0.1" }},
		{"param value", func(in *guard.FingerprintInput) { in.Params = map[string]string{"hop_ms": "20"} }},
		{"extra param", func(in *guard.FingerprintInput) {
			in.Params = map[string]string{"hop_ms": "10", "window": "hann"}
		}},
		{"no params", func(in *guard.FingerprintInput) { in.Params = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			assert.NotEqual(t, ref, guard.Fingerprint(in))
		})
	}
}

type staticOwners map[uuid.UUID]guard.OwnerRef

func (s staticOwners) AnalysisOwner(_ context.Context, analysisID uuid.UUID) (guard.OwnerRef, error) {
	ref, ok := s[analysisID]
	if !ok {
		return guard.OwnerRef{}, guard.ErrNotFound
	}
	return ref, nil
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()
	analysisID := uuid.New()
	trackID := uuid.New()

	g := guard.New(staticOwners{
		analysisID: {TrackID: trackID, OwnerID: owner},
	})

	t.Run("owner passes", func(t *testing.T) {
		ref, err := g.Authorize(ctx, owner, analysisID)
		require.NoError(t, err)
		assert.Equal(t, trackID, ref.TrackID)
		assert.Equal(t, owner, ref.OwnerID)
	})

	t.Run("unknown and foreign are indistinguishable", func(t *testing.T) {
		_, errForeign := g.Authorize(ctx, stranger, analysisID)
		_, errUnknown := g.Authorize(ctx, owner, uuid.New())

		require.ErrorIs(t, errForeign, guard.ErrNotFound)
		require.ErrorIs(t, errUnknown, guard.ErrNotFound)
		assert.Equal(t, errForeign.Error(), errUnknown.Error())
	})
}

func TestAuthorizeInfrastructureError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	g := guard.New(guard.OwnerResolverFunc(func(context.Context, uuid.UUID) (guard.OwnerRef, error) {
		return guard.OwnerRef{}, boom
	}))

	_, err := g.Authorize(ctx, uuid.New(), uuid.New())
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, guard.ErrNotFound)
}
