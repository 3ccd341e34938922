package hashfunc

// HashAlgorithm - Interface that permits an implementation using a HashFile to supply a custom bucket
// selection algorithm suited for its particular distribution of keys.
type HashAlgorithm interface {
	// SetTableSize - Sets the table size for the hash algorithm.
	// It is called both when creating a new hash file and when opening an existing one. Hence, if a custom
	// hash algorithm is supplied that implements this interface and the instance is already having a table size, it
	// will be overwritten by the number of main buckets that is/was supplied when creating the hash file.
	//   - tableSize is the number of main buckets the hash file will address
	SetTableSize(tableSize int64)

	// HashFunc1 - Given key it generates an index (main bucket) between 0 and table size - 1
	// Any number returned outside the table size (0 -> table size - 1) will result in an error down stream.
	HashFunc1(key int32) int64

	// GetTableSize - Returns the table size the implemented hash function is supporting
	// It is very important that this function return the actual table size and not just the table size given at
	// instantiating time or in a call to SetTableSize. Some algorithms round up to nearest 2 to the power of x, and
	// if such operations are built in the implementation of this interface it must be covered in the GetTableSize.
	// The hash file allocates exactly this number of main buckets.
	GetTableSize() int64
}
