// Package interactions stores the trained (entity, item, weight) interactions
// of a model.
//
// Per-entity lists are sorted by item id with no duplicates. A Store is
// created once at training or load time and is read-only afterwards; query
// workers each obtain their own Reader before entering the hot loop.
//
// Two implementations are provided:
//
//   - Memory: a compressed-sparse-row layout built with Builder
//   - Segment: an immutable block-compressed file opened from a blob
//
// A Memory store is persisted with WriteSegment and reopened with OpenSegment.
package interactions
