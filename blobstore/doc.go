// Package blobstore provides the storage abstraction for model bundles,
// interaction segments and result tables.
//
// BlobStore implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests and single-process pipelines
//   - LocalStore: local filesystem with mmap reads
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible endpoints
package blobstore
