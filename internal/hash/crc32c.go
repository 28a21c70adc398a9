package hash

import "hash/crc32"

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the CRC32-Castagnoli checksum of data. Segment blocks,
// factor files and result tables are framed with it.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}
