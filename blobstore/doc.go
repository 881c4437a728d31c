// Package blobstore abstracts where analysis blobs live: chunk payloads,
// manifests, event lists and commit pointers are all opaque named byte blobs
// to this layer.
//
// Blobs written through a store are immutable by convention; the chunk store
// above enforces the append-only discipline. Implementations in this package
// cover local disk and in-memory use; the minio and s3 sub-packages cover
// S3-compatible object storage.
package blobstore
