// Package s3 provides a blobstore.BlobStore backed by Amazon S3 via the AWS
// SDK v2. Large chunk uploads stream through manager.Uploader; reads use
// ranged GETs so a partial chunk fetch never downloads the whole object.
package s3
