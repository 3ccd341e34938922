package model

// Block - Represents a page or a bucket read from file
//   - Records holds the records in use, in slot order
//   - Address is the byte offset of the block in its file
//   - Next is the byte offset of the next block in the chain or conf.NoNextBlock
type Block[R any] struct {
	Records []R
	Address int64
	Next    int64
}

// NewBlock - Returns an empty block with its own freshly allocated record slice
func NewBlock[R any](address, next int64, capacity int64) Block[R] {
	return Block[R]{
		Records: make([]R, 0, capacity),
		Address: address,
		Next:    next,
	}
}

// IndexEntry - Represents one entry in a sparse index
//   - Key is the smallest key of the page at the time the entry was written
//   - Offset is the byte offset of the page in the data file
type IndexEntry struct {
	Key    int32
	Offset int64
}
