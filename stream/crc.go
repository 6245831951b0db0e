package stream

import (
	"hash/crc32"
)

// ComputeCRC computes CRC-32 IEEE of the given bytes.
func ComputeCRC(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// VerifyCRC verifies that the CRC matches.
func VerifyCRC(data []byte, expected uint32) bool {
	return ComputeCRC(data) == expected
}
