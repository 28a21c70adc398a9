// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("models/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	b, err := bundle.Load(ctx, store, "movielens")
//
// # Features
//
//   - Range reads for segment blocks
//   - Multipart uploads for large result tables
//   - CRC32C integrity checks on uploads
//   - Automatic pagination for listing
package s3
