package chain

import (
	"fmt"

	"github.com/gostonefire/fileorg/internal/block"
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/model"
	"github.com/gostonefire/fileorg/storage"
)

// Blocks - Is used to iterate over the blocks of a chain one by one following the next address
type Blocks[R any] struct {
	file     *block.File[R]
	address  int64
	steps    int64
	maxSteps int64
}

// NewBlocks - Returns a pointer to a new Blocks iterator.
//   - file is the block file to read from
//   - address is the address of the first block to return, conf.NoNextBlock gives an empty iterator
//   - maxSteps is the highest number of blocks the chain may hold, normally the number of blocks in the file.
//     Going beyond it means the chain loops and results in storage.CorruptFile.
func NewBlocks[R any](file *block.File[R], address, maxSteps int64) *Blocks[R] {
	return &Blocks[R]{
		file:     file,
		address:  address,
		maxSteps: maxSteps,
	}
}

// HasNext - Returns true if there are more blocks to be fetched from a call to Next
func (B *Blocks[R]) HasNext() bool {
	return B.address != conf.NoNextBlock
}

// Next - Returns the next block in the chain.
// It returns:
//   - blk is the next block
//   - err is either a standard error, storage.CorruptFile if the chain is malformed, or storage.NoRecordFound if
//     there are no more blocks when calling this function.
func (B *Blocks[R]) Next() (blk model.Block[R], err error) {
	if B.address == conf.NoNextBlock {
		err = storage.NoRecordFound{}
		return
	}
	if B.steps >= B.maxSteps {
		err = storage.CorruptFile{Msg: fmt.Sprintf("chain longer than %d blocks, next address %d", B.maxSteps, B.address)}
		return
	}

	blk, err = B.file.Read(B.address)
	if err != nil {
		err = fmt.Errorf("error while retrieving block from chain: %w", err)
		return
	}

	B.steps++
	B.address = blk.Next

	return
}
