package hash

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/gostonefire/fileorg/internal/utils"
)

// CRC32HashAlgorithm - Alternative bucket selection algorithm implemented using crc32.ChecksumIEEE to
// create a hash value over the little endian bytes of the key and then applying bucket = hash & (actualTableSize - 1)
// to get the bucket number, where actualTableSize is the nearest bigger exponent of 2 of the requested table size.
// It spreads keys that share a common remainder, which the modulo algorithm puts in the same bucket.
type CRC32HashAlgorithm struct {
	tableSize int64
}

// NewCRC32HashAlgorithm - Returns a pointer to a new CRC32HashAlgorithm instance
func NewCRC32HashAlgorithm(tableSize int64) *CRC32HashAlgorithm {
	ha := &CRC32HashAlgorithm{}
	ha.SetTableSize(tableSize)
	return ha
}

// SetTableSize - Sets the table size for the hash algorithm.
// In this implementation it updates the table size to the nearest bigger exponent of 2 of the requested table size.
//   - tableSize is the number of main buckets the hash file will address
func (C *CRC32HashAlgorithm) SetTableSize(tableSize int64) {
	C.tableSize = utils.RoundUp2(tableSize)
}

// HashFunc1 - Given key it generates an index (bucket) between 0 and table size - 1
func (C *CRC32HashAlgorithm) HashFunc1(key int32) int64 {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(key))
	h := int64(crc32.ChecksumIEEE(buf))
	return h & (C.tableSize - 1)
}

// GetTableSize - Returns the table size the implemented hash function is supporting
func (C *CRC32HashAlgorithm) GetTableSize() int64 {
	return C.tableSize
}
