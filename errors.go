package framecast

import (
	"errors"
	"fmt"

	"github.com/hupe1980/framecast/blobstore"
	"github.com/hupe1980/framecast/chunkstore"
	"github.com/hupe1980/framecast/guard"
)

var (
	// ErrNotFound is returned when an analysis does not exist or the caller
	// is not allowed to see it. The two cases are deliberately merged.
	ErrNotFound = errors.New("not found")
)

// ErrInvalidRange indicates a range query that covers no frames.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidRange struct {
	FromMS int
	ToMS   int
	cause  error
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid range [%d, %d)", e.FromMS, e.ToMS)
}

func (e *ErrInvalidRange) Unwrap() error { return e.cause }

// ErrChunkNotFound indicates a chunk that has not been written yet.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrChunkNotFound struct {
	ChunkIndex int
	cause      error
}

func (e *ErrChunkNotFound) Error() string {
	return fmt.Sprintf("chunk not found: %d", e.ChunkIndex)
}

func (e *ErrChunkNotFound) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// A missing chunk keeps its identity; it wraps blobstore.ErrNotFound, so
	// it must be recognized before the generic unification below.
	var cnf *chunkstore.ErrChunkNotFound
	if errors.As(err, &cnf) {
		return &ErrChunkNotFound{ChunkIndex: cnf.ChunkIndex, cause: err}
	}

	// Not found unification. Denied access, missing analysis, and missing
	// blobs all collapse into the same caller-visible error.
	if errors.Is(err, guard.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var ir *chunkstore.ErrInvalidRange
	if errors.As(err, &ir) {
		return &ErrInvalidRange{FromMS: ir.FromMS, ToMS: ir.ToMS, cause: err}
	}

	return err
}
