// Package minio provides a blobstore.BlobStore backed by MinIO or any
// S3-compatible object storage, via the MinIO Go client.
//
// Analysis blobs are immutable, so no special consistency handling is
// required: a chunk object is written once by the analysis job and read
// verbatim afterwards.
package minio
