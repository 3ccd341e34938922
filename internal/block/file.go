package block

import (
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/model"
	"github.com/gostonefire/fileorg/internal/pagedstore"
	"github.com/gostonefire/fileorg/record"
)

// File - Reads and writes Block structs through a PagedStore
type File[R any] struct {
	store       *pagedstore.PagedStore
	codec       record.Codec[R]
	blockFactor int64
}

// NewFile - Returns a pointer to a new File
//   - store is the PagedStore holding the blocks, its block size must match blockFactor and the codec record size
//   - codec converts records to and from bytes
//   - blockFactor is the number of record slots in each block
func NewFile[R any](store *pagedstore.PagedStore, codec record.Codec[R], blockFactor int64) *File[R] {
	return &File[R]{store: store, codec: codec, blockFactor: blockFactor}
}

// BlockFactor - Returns the number of record slots in each block
func (F *File[R]) BlockFactor() int64 {
	return F.blockFactor
}

// BlockSize - Returns the size of a block in bytes
func (F *File[R]) BlockSize() int64 {
	return conf.BlockSize(F.blockFactor, F.codec.RecordSize())
}

// BlockCount - Returns the number of blocks in the file
func (F *File[R]) BlockCount() (int64, error) {
	return F.store.BlockCount()
}

// Read - Reads and converts the block at offset
func (F *File[R]) Read(offset int64) (blk model.Block[R], err error) {
	buf, err := F.store.ReadBlock(offset)
	if err != nil {
		return
	}

	blk, err = BytesToBlock(buf, offset, F.blockFactor, F.codec)

	return
}

// Write - Rewrites a block in place at its address
func (F *File[R]) Write(blk model.Block[R]) (err error) {
	buf, err := BlockToBytes(blk, F.blockFactor, F.codec)
	if err != nil {
		return
	}

	err = F.store.RewriteBlock(blk.Address, buf)

	return
}

// Append - Writes a block at end of file and returns its new address
func (F *File[R]) Append(blk model.Block[R]) (offset int64, err error) {
	buf, err := BlockToBytes(blk, F.blockFactor, F.codec)
	if err != nil {
		return
	}

	offset, err = F.store.AppendBlock(buf)

	return
}

// Key - Returns the key of a record
func (F *File[R]) Key(r R) int32 {
	return F.codec.Key(r)
}
