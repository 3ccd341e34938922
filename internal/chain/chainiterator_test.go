package chain

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/gostonefire/fileorg/internal/block"
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/model"
	"github.com/gostonefire/fileorg/internal/pagedstore"
	"github.com/gostonefire/fileorg/record"
	"github.com/gostonefire/fileorg/storage"
	"github.com/stretchr/testify/assert"
)

func newTestFile(t *testing.T) *block.File[record.Student] {
	codec := record.StudentCodec{}
	ps, err := pagedstore.Create(filepath.Join(t.TempDir(), "test-data.bin"), conf.BlockSize(2, codec.RecordSize()))
	assert.NoError(t, err, "creates paged store")
	t.Cleanup(ps.Close)

	return block.NewFile[record.Student](ps, codec, 2)
}

func appendBlock(t *testing.T, f *block.File[record.Student], next int64, keys ...int32) int64 {
	blk := model.NewBlock[record.Student](0, next, f.BlockFactor())
	for _, k := range keys {
		blk.Records = append(blk.Records, record.Student{Code: k})
	}
	offset, err := f.Append(blk)
	assert.NoError(t, err, "appends block")

	return offset
}

func TestBlocks(t *testing.T) {
	t.Run("walks a chain in link order", func(t *testing.T) {
		// Prepare
		f := newTestFile(t)
		size := f.BlockSize()
		appendBlock(t, f, 2*size, 1, 2)
		appendBlock(t, f, conf.NoNextBlock, 5)
		appendBlock(t, f, size, 3, 4)

		// Execute
		iter := NewBlocks(f, 0, 3)
		var keys []int32
		var addresses []int64
		for iter.HasNext() {
			blk, err := iter.Next()
			assert.NoError(t, err, "reads block")
			addresses = append(addresses, blk.Address)
			for _, r := range blk.Records {
				keys = append(keys, r.Code)
			}
		}

		// Check
		assert.Equal(t, []int32{1, 2, 3, 4, 5}, keys, "keys in chain order")
		assert.Equal(t, []int64{0, 2 * size, size}, addresses, "addresses in chain order")
		_, err := iter.Next()
		assert.True(t, errors.Is(err, storage.NoRecordFound{}), "exhausted iterator")
	})

	t.Run("detects a looping chain", func(t *testing.T) {
		// Prepare
		f := newTestFile(t)
		appendBlock(t, f, f.BlockSize(), 1)
		appendBlock(t, f, 0, 2)

		// Execute
		iter := NewBlocks(f, 0, 2)
		var err error
		for i := 0; i < 3 && err == nil; i++ {
			_, err = iter.Next()
		}

		// Check
		assert.True(t, errors.Is(err, storage.CorruptFile{}), "loop reported as corrupt file")
	})

	t.Run("dangling address is corrupt file", func(t *testing.T) {
		// Prepare
		f := newTestFile(t)
		appendBlock(t, f, 10*f.BlockSize(), 1)
		iter := NewBlocks(f, 0, 5)
		_, err := iter.Next()
		assert.NoError(t, err, "reads first block")

		// Execute
		_, err = iter.Next()

		// Check
		assert.True(t, errors.Is(err, storage.CorruptFile{}), "dangling next reported as corrupt file")
	})
}
