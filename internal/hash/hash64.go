package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hash64 deterministically mixes seed and v into a 64-bit value.
func Hash64(seed, v uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], seed)
	binary.LittleEndian.PutUint64(buf[8:], v)
	return xxhash.Sum64(buf[:])
}

// Bytes64 deterministically mixes seed and b into a 64-bit value.
func Bytes64(seed uint64, b []byte) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	_, _ = d.Write(buf[:])
	_, _ = d.Write(b)
	return d.Sum64()
}
