package hash

import (
	"testing"

	"github.com/gostonefire/fileorg/hashfunc"
	"github.com/stretchr/testify/assert"
)

func TestModuloHashAlgorithm_HashFunc1(t *testing.T) {
	t.Run("returns key mod table size", func(t *testing.T) {
		// Prepare
		h := NewModuloHashAlgorithm(10)

		// Execute and Check
		assert.Equal(t, int64(3), h.HashFunc1(3), "small key")
		assert.Equal(t, int64(3), h.HashFunc1(13), "wraps")
		assert.Equal(t, int64(0), h.HashFunc1(100), "exact multiple")
		assert.Equal(t, int64(7), h.HashFunc1(2147483647), "max int32")
	})

	t.Run("negative keys give non negative buckets", func(t *testing.T) {
		// Prepare
		h := NewModuloHashAlgorithm(10)

		// Execute and Check
		assert.Equal(t, int64(7), h.HashFunc1(-3), "-3")
		assert.Equal(t, int64(0), h.HashFunc1(-10), "-10")
		assert.Equal(t, int64(2), h.HashFunc1(-2147483648), "min int32")
	})
}

func TestModuloHashAlgorithm_SetTableSize(t *testing.T) {
	t.Run("updates table size", func(t *testing.T) {
		// Prepare
		var h hashfunc.HashAlgorithm = NewModuloHashAlgorithm(10)

		// Execute
		h.SetTableSize(7)

		// Check
		assert.Equal(t, int64(7), h.GetTableSize(), "table size kept as given")
		assert.Equal(t, int64(6), h.HashFunc1(13), "new modulus")
	})
}

func TestCRC32HashAlgorithm(t *testing.T) {
	t.Run("rounds table size up to power of two", func(t *testing.T) {
		// Prepare
		var h hashfunc.HashAlgorithm = NewCRC32HashAlgorithm(10)

		// Check
		assert.Equal(t, int64(16), h.GetTableSize(), "table size")
	})

	t.Run("creates valid and stable bucket numbers", func(t *testing.T) {
		// Prepare
		h := NewCRC32HashAlgorithm(10)

		// Execute and Check
		for key := int32(-1000); key < 1000; key += 7 {
			bucketNo := h.HashFunc1(key)
			assert.GreaterOrEqual(t, bucketNo, int64(0), "not below zero")
			assert.Less(t, bucketNo, int64(16), "below table size")
			assert.Equal(t, bucketNo, h.HashFunc1(key), "same key same bucket")
		}
	})
}
