package isam

import (
	"fmt"
	"os"
	"sort"

	"github.com/gostonefire/fileorg/internal/chain"
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/model"
	"github.com/gostonefire/fileorg/storage"
)

// blockSize - Returns the size of a page in bytes
func (E *Engine[R]) blockSize() int64 {
	return conf.BlockSize(E.blockFactor, E.codec.RecordSize())
}

// builtBlockCount - Returns the number of pages, or storage.PreconditionFailed if the file holds none
func (E *Engine[R]) builtBlockCount() (count int64, err error) {
	count, err = E.file.BlockCount()
	if err != nil {
		return
	}
	if count == 0 {
		err = storage.PreconditionFailed{Msg: fmt.Sprintf("%s has not been built", E.dataFileName)}
	}

	return
}

// loadChain - Reads every page of the chain starting at address
func (E *Engine[R]) loadChain(address, maxSteps int64) (blocks []model.Block[R], err error) {
	var blk model.Block[R]
	iter := chain.NewBlocks(E.file, address, maxSteps)
	for iter.HasNext() {
		blk, err = iter.Next()
		if err != nil {
			return
		}
		blocks = append(blocks, blk)
	}

	return
}

// findInRange - Returns the position in the chain of the page the key belongs to, or -1 if there is none.
// Pages of a chain hold ascending key ranges. A page is in range if the key is not above its max, if it is the
// tail, or if the key is below the min of the following page. An empty page is in range unless the following
// page starts below the key.
func (E *Engine[R]) findInRange(blocks []model.Block[R], key int32) int {
	for i, blk := range blocks {
		last := i == len(blocks)-1
		nextMin, nextOk := int32(0), false
		if !last {
			nextMin, nextOk = E.minKey(blocks[i+1])
		}

		n := len(blk.Records)
		if n == 0 {
			if last || !nextOk || key < nextMin {
				return i
			}
			continue
		}

		switch {
		case key <= E.codec.Key(blk.Records[n-1]):
			return i
		case last:
			return i
		case nextOk && key < nextMin:
			return i
		}
	}

	return -1
}

// minKey - Returns the smallest key of a page, ok is false for an empty page
func (E *Engine[R]) minKey(blk model.Block[R]) (key int32, ok bool) {
	if len(blk.Records) == 0 {
		return
	}

	return E.codec.Key(blk.Records[0]), true
}

// insertSorted - Returns a new slice holding records and r in ascending key order
func (E *Engine[R]) insertSorted(records []R, r R) []R {
	merged := make([]R, 0, E.blockFactor+1)
	merged = append(merged, records...)
	merged = append(merged, r)
	sort.SliceStable(merged, func(i, j int) bool { return E.codec.Key(merged[i]) < E.codec.Key(merged[j]) })

	return merged
}

// recordIndex - Returns the slot holding key, or -1
func (E *Engine[R]) recordIndex(records []R, key int32) int {
	for i, r := range records {
		if E.codec.Key(r) == key {
			return i
		}
	}

	return -1
}

// removeAt - Returns a new slice holding records without the one at i
func removeAt[R any](records []R, i int, capacity int64) []R {
	kept := make([]R, 0, capacity)
	kept = append(kept, records[:i]...)
	kept = append(kept, records[i+1:]...)

	return kept
}

// reanchor - Replaces whatever index entries point at offset with one entry for key.
// Nothing is registered if the index is full and no entry pointed at offset.
func (E *Engine[R]) reanchor(offset int64, key int32) {
	E.index.RemoveOffset(offset)
	if !E.index.Add(key, offset) {
		E.logger.Debug("index full, page left unregistered", "offset", offset, "key", key)
	}
}

// saveIndex - Persists the index
func (E *Engine[R]) saveIndex() (err error) {
	err = E.index.Save(E.indexFileName)
	if err != nil {
		err = fmt.Errorf("error while saving index: %w", err)
	}

	return
}

// appendOverflow - Writes r in a new overflow page linked from the tail of the chain
func (E *Engine[R]) appendOverflow(blocks []model.Block[R], r R) (err error) {
	blk := model.NewBlock[R](0, conf.NoNextBlock, E.blockFactor)
	blk.Records = append(blk.Records, r)
	offset, err := E.file.Append(blk)
	if err != nil {
		return
	}

	tail := blocks[len(blocks)-1]
	tail.Next = offset
	err = E.file.Write(tail)
	if err != nil {
		return
	}

	E.logger.Debug("no page in range, overflow page appended", "offset", offset, "linkedFrom", tail.Address)

	return
}

// removeFromChain - Writes back a page that just lost a record and keeps chain and index consistent.
//   - blocks is the chain the page was read from
//   - pos is the position of the page in the chain
//   - blk is the page without the removed record
//   - removedMin tells whether the removed record was the smallest of the page
func (E *Engine[R]) removeFromChain(blocks []model.Block[R], pos int, blk model.Block[R], removedMin bool) (err error) {
	if len(blk.Records) > 0 {
		err = E.file.Write(blk)
		if err != nil {
			return
		}
		if removedMin && E.index.HasOffset(blk.Address) {
			E.reanchor(blk.Address, E.codec.Key(blk.Records[0]))
		}
		return
	}

	switch {
	case pos > 0:
		// Overflow page, unlink it from its predecessor
		err = E.file.Write(blk)
		if err != nil {
			return
		}
		pred := blocks[pos-1]
		pred.Next = blk.Next
		err = E.file.Write(pred)
		if err != nil {
			return
		}
		E.index.RemoveOffset(blk.Address)
		E.logger.Debug("empty page unlinked", "offset", blk.Address, "predecessor", pred.Address)

	case blk.Next == conf.NoNextBlock:
		// Chain head without successors, abandon it
		err = E.file.Write(blk)
		if err != nil {
			return
		}
		E.index.RemoveOffset(blk.Address)
		E.logger.Debug("empty page dropped from index", "offset", blk.Address)

	default:
		// Pull the successor into the head and abandon the successor
		succ := blocks[1]
		blk.Records = append(blk.Records, succ.Records...)
		blk.Next = succ.Next
		err = E.file.Write(blk)
		if err != nil {
			return
		}
		if len(blk.Records) > 0 && E.index.HasOffset(blk.Address) {
			E.reanchor(blk.Address, E.codec.Key(blk.Records[0]))
		}
		E.logger.Debug("empty page refilled from overflow", "offset", blk.Address, "abandoned", succ.Address)
	}

	return
}

// chainHeads - Returns page 0 followed by the offsets of all indexed pages in key order, without duplicates
func (E *Engine[R]) chainHeads(pages int64) (heads []int64) {
	if pages == 0 {
		return
	}

	seen := map[int64]bool{0: true}
	heads = append(heads, 0)
	for _, e := range E.index.Entries() {
		if !seen[e.Offset] {
			seen[e.Offset] = true
			heads = append(heads, e.Offset)
		}
	}

	return
}

// removeIfExists - Removes a file if it exists and is not a directory
func removeIfExists(fileName string) (err error) {
	if stat, ok := os.Stat(fileName); ok == nil {
		if !stat.IsDir() {
			err = os.Remove(fileName)
			if err != nil {
				err = fmt.Errorf("error while removing file %s: %w", fileName, err)
			}
		}
	}

	return
}
