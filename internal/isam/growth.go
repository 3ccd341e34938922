package isam

import (
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/model"
)

// growthPolicy - Resolves an insert into a full page
type growthPolicy[R any] interface {
	name() string
	// grow - Distributes the records of blocks[pos] plus r over the page and one new page
	grow(E *Engine[R], blocks []model.Block[R], pos int, r R) error
}

// selectGrowthPolicy - Returns the policy to use right now, split while the index has room and chain once it is full
func (E *Engine[R]) selectGrowthPolicy() growthPolicy[R] {
	if E.index.IsFull() {
		return chainPolicy[R]{}
	}
	return splitPolicy[R]{}
}

// splitPolicy - Cuts the page in two, the second half becomes a new page registered in the index
type splitPolicy[R any] struct{}

func (splitPolicy[R]) name() string {
	return "split"
}

func (splitPolicy[R]) grow(E *Engine[R], blocks []model.Block[R], pos int, r R) (err error) {
	blk := blocks[pos]
	oldMin, _ := E.minKey(blk)
	merged := E.insertSorted(blk.Records, r)
	mid := E.blockFactor/2 + 1

	// The new page takes over the successors, they hold keys above the second half
	newBlk := model.NewBlock[R](0, blk.Next, E.blockFactor)
	newBlk.Records = append(newBlk.Records, merged[mid:]...)
	offset, err := E.file.Append(newBlk)
	if err != nil {
		return
	}

	blk.Records = append(make([]R, 0, E.blockFactor), merged[:mid]...)
	blk.Next = conf.NoNextBlock
	err = E.file.Write(blk)
	if err != nil {
		return
	}

	newMin := E.codec.Key(newBlk.Records[0])
	E.index.Add(newMin, offset)
	if pos == 0 && E.codec.Key(blk.Records[0]) != oldMin {
		E.reanchor(blk.Address, E.codec.Key(blk.Records[0]))
	}

	E.logger.Debug("page split", "offset", blk.Address, "newOffset", offset, "newAnchor", newMin,
		"indexEntries", E.index.Size())

	return
}

// chainPolicy - Cuts the page in two, the second half becomes an unindexed overflow page linked right after it
type chainPolicy[R any] struct{}

func (chainPolicy[R]) name() string {
	return "chain"
}

func (chainPolicy[R]) grow(E *Engine[R], blocks []model.Block[R], pos int, r R) (err error) {
	blk := blocks[pos]
	oldMin, _ := E.minKey(blk)
	merged := E.insertSorted(blk.Records, r)
	mid := len(merged) / 2

	newBlk := model.NewBlock[R](0, blk.Next, E.blockFactor)
	newBlk.Records = append(newBlk.Records, merged[mid:]...)
	offset, err := E.file.Append(newBlk)
	if err != nil {
		return
	}

	blk.Records = append(make([]R, 0, E.blockFactor), merged[:mid]...)
	blk.Next = offset
	err = E.file.Write(blk)
	if err != nil {
		return
	}

	if pos == 0 && E.codec.Key(blk.Records[0]) != oldMin {
		E.reanchor(blk.Address, E.codec.Key(blk.Records[0]))
	}

	E.logger.Debug("page chained", "offset", blk.Address, "overflowOffset", offset, "successor", newBlk.Next)

	return
}
