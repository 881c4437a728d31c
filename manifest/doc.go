// Package manifest models the schema of one analysis run: the declared
// bands, the deterministic time↔frame mapping, the packed frame layout and
// the chunking parameters.
//
// A manifest is built once by the analysis job (see [Build]) and is immutable
// after the job commits. Every consumer of frame data resolves byte offsets
// through the manifest's frame layout; nothing about the binary format is
// implicit or ambient. In particular the byte order is a declared manifest
// field, not an environment convention, so a future format change can never
// silently corrupt previously stored chunks.
package manifest
