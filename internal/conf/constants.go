package conf

// BlockHeaderLength - Length of header in each page or bucket, record count (4 bytes) followed by next address (8 bytes)
const BlockHeaderLength int64 = 12

// BlockCountOffset - Block header offset to the number of records in use - 4 bytes
const BlockCountOffset int64 = 0

// BlockNextOffset - Block header offset to the address of the next block in the chain - 8 bytes
const BlockNextOffset int64 = 4

// NoNextBlock - Next address marking the end of a chain
const NoNextBlock int64 = -1

// IndexFileHeaderLength - Length of the index file header holding the entry count - 4 bytes
const IndexFileHeaderLength int64 = 4

// IndexEntryLength - Length of one index entry, key (4 bytes) followed by page offset (8 bytes)
const IndexEntryLength int64 = 12

// DefaultISAMBlockFactor - Default number of records per page in an indexed sequential file
const DefaultISAMBlockFactor int64 = 3

// DefaultMaxIndexEntries - Default capacity of the sparse index
const DefaultMaxIndexEntries int64 = 64

// DefaultHashBlockFactor - Default number of records per bucket in a static hash file
const DefaultHashBlockFactor int64 = 4

// DefaultMainBuckets - Default number of main buckets in a static hash file
const DefaultMainBuckets int64 = 10

// BlockSize - Returns the total size of a block holding blockFactor records of recordSize bytes
func BlockSize(blockFactor, recordSize int64) int64 {
	return BlockHeaderLength + blockFactor*recordSize
}

// HashHeaderLength - Length of the static hash header file
const HashHeaderLength int64 = 32
