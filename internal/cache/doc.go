// Package cache provides an LRU cache for interaction segment blocks.
//
// Segments on remote stores (S3, MinIO) are read block by block through
// ranged requests. Workers of one call, and consecutive calls against the
// same bundle, tend to touch the same blocks, so compressed blocks are kept
// in a shared ShardedLRU.
//
// Key features:
//   - 64 shards selected by xxhash of the key
//   - Per-shard mutex for minimal contention
//   - Optional accounting against a resource.Controller memory limit
package cache
