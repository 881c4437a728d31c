// Package chunkstore persists and serves the binary frame chunks of an
// analysis run.
//
// The write path is a single sequential job: a [Writer] stages the manifest,
// produces chunks in increasing index order, and flips visibility atomically
// on Commit by writing a pointer blob last. Committed chunks are immutable;
// re-analysis creates a new analysis id with its own chunk set.
//
// The read path is lock-free: [Store] returns the exact stored bytes, and
// [Resolver] maps a caller's time window to the minimal covering chunk set,
// trimming edge chunks to frame boundaries.
package chunkstore
