package cache

import "sync/atomic"

// Key identifies one block of one opened segment.
type Key struct {
	// Segment is the process-local id assigned by NewSegmentID.
	Segment uint64
	// Offset is the byte offset of the block in the segment.
	Offset uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(key Key) (b []byte, ok bool)
	// Set caches a block. The cache retains b; callers must not modify it.
	Set(key Key, b []byte)
	// Invalidate removes every block of segment.
	Invalidate(segment uint64)
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}

var segmentIDs atomic.Uint64

// NewSegmentID returns a process-unique segment id for cache keys.
func NewSegmentID() uint64 { return segmentIDs.Add(1) }
