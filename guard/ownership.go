package guard

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// ErrNotFound is returned for every denied access, whether the analysis does
// not exist or belongs to someone else. Callers must not be able to tell the
// two apart, so existence of other people's analyses cannot be probed by id.
var ErrNotFound = errors.New("analysis not found")

// OwnerRef links an analysis to the track it was computed from and the
// account that owns that track.
type OwnerRef struct {
	TrackID uuid.UUID
	OwnerID uuid.UUID
}

// OwnerResolver looks up the ownership chain of an analysis. Implementations
// return ErrNotFound for unknown analyses; any other error is treated as an
// infrastructure failure, not a denial.
type OwnerResolver interface {
	AnalysisOwner(ctx context.Context, analysisID uuid.UUID) (OwnerRef, error)
}

// OwnerResolverFunc adapts a function to the OwnerResolver interface.
type OwnerResolverFunc func(ctx context.Context, analysisID uuid.UUID) (OwnerRef, error)

func (f OwnerResolverFunc) AnalysisOwner(ctx context.Context, analysisID uuid.UUID) (OwnerRef, error) {
	return f(ctx, analysisID)
}

// Guard enforces ownership on analysis reads.
type Guard struct {
	owners OwnerResolver
	logger *slog.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLogger sets a structured logger. Denial causes are logged at debug
// level only; they never reach the caller.
func WithLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) { g.logger = l }
}

// New creates a Guard on top of an ownership resolver.
func New(owners OwnerResolver, opts ...GuardOption) *Guard {
	g := &Guard{
		owners: owners,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize checks that the principal owns the analysis. Unknown analysis and
// foreign analysis both fail with ErrNotFound; the real cause is only logged.
func (g *Guard) Authorize(ctx context.Context, principal, analysisID uuid.UUID) (OwnerRef, error) {
	ref, err := g.owners.AnalysisOwner(ctx, analysisID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			g.logger.DebugContext(ctx, "access denied",
				"analysis_id", analysisID,
				"principal", principal,
				"cause", "unknown analysis",
			)
			return OwnerRef{}, ErrNotFound
		}
		return OwnerRef{}, err
	}

	if ref.OwnerID != principal {
		g.logger.DebugContext(ctx, "access denied",
			"analysis_id", analysisID,
			"principal", principal,
			"cause", "not the owner",
		)
		return OwnerRef{}, ErrNotFound
	}

	return ref, nil
}
