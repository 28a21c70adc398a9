package cache

import (
	"github.com/hupe1980/recgo/internal/hash"
	"github.com/hupe1980/recgo/internal/resource"
)

const numShards = 64

// ShardedLRU distributes blocks across 64 LRU shards to reduce lock
// contention between workers.
type ShardedLRU struct {
	shards [numShards]*LRU
}

// NewShardedLRU creates a sharded LRU cache. The capacity is divided evenly
// across all shards.
func NewShardedLRU(capacity int64, rc *resource.Controller) *ShardedLRU {
	shardCapacity := max(capacity/numShards, 1)

	s := &ShardedLRU{}
	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity, rc)
	}
	return s
}

func (s *ShardedLRU) shard(key Key) *LRU {
	return s.shards[hash.Hash64(key.Segment, key.Offset)%numShards]
}

// Get returns a cached block.
func (s *ShardedLRU) Get(key Key) ([]byte, bool) {
	return s.shard(key).Get(key)
}

// Set caches a block.
func (s *ShardedLRU) Set(key Key, b []byte) {
	s.shard(key).Set(key, b)
}

// Invalidate removes every block of segment from all shards.
func (s *ShardedLRU) Invalidate(segment uint64) {
	for _, sh := range s.shards {
		sh.Invalidate(segment)
	}
}

// Stats returns aggregated hit/miss statistics.
func (s *ShardedLRU) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the total size across all shards.
func (s *ShardedLRU) Size() int64 {
	var total int64
	for _, sh := range s.shards {
		total += sh.Size()
	}
	return total
}
