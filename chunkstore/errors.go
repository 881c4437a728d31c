package chunkstore

import (
	"errors"
	"fmt"
)

// ErrAnalysisExists is returned when opening a writer for an analysis id that
// already has a committed chunk set. Committed analyses are immutable;
// re-analysis must use a fresh id.
var ErrAnalysisExists = errors.New("analysis already committed")

// ErrWriterClosed is returned on writes after Commit or Abort.
var ErrWriterClosed = errors.New("writer is closed")

// ErrChunkNotFound indicates a chunk index the manifest declares but the
// store has not (yet) committed. Distinct from a missing analysis: it can
// occur only when reading an in-progress analysis or an out-of-range index.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrChunkNotFound struct {
	ChunkIndex int
	cause      error
}

func (e *ErrChunkNotFound) Error() string {
	return fmt.Sprintf("chunk %d not found", e.ChunkIndex)
}

func (e *ErrChunkNotFound) Unwrap() error { return e.cause }

// ErrInvalidRange indicates a caller-supplied time window that is empty or
// entirely outside the analysis after clamping. Surfaced as a request-level
// validation failure, never retried.
type ErrInvalidRange struct {
	FromMS int
	ToMS   int
	Reason string
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid range [%d,%d): %s", e.FromMS, e.ToMS, e.Reason)
}

// ErrChunkSizeMismatch indicates a writer payload whose length does not match
// the chunk's declared frame span. A defect in the producing job; the job
// must be failed, not retried.
type ErrChunkSizeMismatch struct {
	ChunkIndex int
	Want       int
	Got        int
}

func (e *ErrChunkSizeMismatch) Error() string {
	return fmt.Sprintf("chunk %d payload is %d bytes, layout requires %d", e.ChunkIndex, e.Got, e.Want)
}
