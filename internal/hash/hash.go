package hash

// ModuloHashAlgorithm - The internally used bucket selection algorithm, bucket = key mod tableSize.
// Negative keys are folded into the range as well, so the bucket number is always between 0 and tableSize - 1.
type ModuloHashAlgorithm struct {
	tableSize int64
}

// NewModuloHashAlgorithm - Returns a pointer to a new ModuloHashAlgorithm instance
func NewModuloHashAlgorithm(tableSize int64) *ModuloHashAlgorithm {
	ha := &ModuloHashAlgorithm{}
	ha.SetTableSize(tableSize)
	return ha
}

// SetTableSize - Sets the table size for the hash algorithm.
//   - tableSize is the number of main buckets the hash file will address
func (M *ModuloHashAlgorithm) SetTableSize(tableSize int64) {
	M.tableSize = tableSize
}

// HashFunc1 - Given key it generates an index (bucket) between 0 and table size - 1
func (M *ModuloHashAlgorithm) HashFunc1(key int32) int64 {
	h := int64(key) % M.tableSize
	if h < 0 {
		h += M.tableSize
	}
	return h
}

// GetTableSize - Returns the table size the implemented hash function is supporting
func (M *ModuloHashAlgorithm) GetTableSize() int64 {
	return M.tableSize
}
