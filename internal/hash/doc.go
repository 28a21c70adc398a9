// Package hash provides the checksum and seeded hashing primitives used by
// recgo.
//
// # CRC32-Castagnoli (CRC32C)
//
// Interaction segments and result tables protect every block with CRC32C:
//
//	checksum := hash.CRC32C(data)
//
// # Seeded 64-bit hashing
//
// Diversity re-ranking draws from a deterministic stream derived from the
// caller's seed. Hash64 mixes a seed with one value; Bytes64 mixes a seed
// with a byte string (used for ROWS-mode query keys). Both are backed by
// xxHash64 and are stable across platforms and releases.
//
//	r := hash.Hash64(seed, round)
package hash
