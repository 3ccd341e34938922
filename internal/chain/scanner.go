package chain

import (
	"github.com/gostonefire/fileorg/internal/block"
	"github.com/gostonefire/fileorg/storage"
)

// HeadsFunc - Returns the addresses of the chain heads to scan in order, and the highest number of blocks any
// chain may hold
type HeadsFunc func() (heads []int64, maxSteps int64, err error)

// Scanner - Lazily yields the records of a set of chains, each head followed by its chain in link order.
// A block reached a second time ends the current chain walk, so every block is yielded once.
// Blocks are read on demand, one at a time. Reset restarts the scan from the first head.
type Scanner[R any] struct {
	file     *block.File[R]
	headsFn  HeadsFunc
	heads    []int64
	maxSteps int64
	headPos  int
	blocks   *Blocks[R]
	records  []R
	recPos   int
	visited  map[int64]bool
	started  bool
	err      error
}

// NewScanner - Returns a pointer to a new Scanner
//   - file is the block file to read from
//   - headsFn is called on first use and on every Reset to get the chain heads
func NewScanner[R any](file *block.File[R], headsFn HeadsFunc) *Scanner[R] {
	return &Scanner[R]{file: file, headsFn: headsFn}
}

// Reset - Restarts the scan
func (S *Scanner[R]) Reset() {
	S.heads = nil
	S.maxSteps = 0
	S.headPos = 0
	S.blocks = nil
	S.records = nil
	S.recPos = 0
	S.visited = nil
	S.started = false
	S.err = nil
}

// HasNext - Returns true if a call to Next will return a record or an error
func (S *Scanner[R]) HasNext() bool {
	S.fill()
	return S.err != nil || S.recPos < len(S.records)
}

// Next - Returns the next record.
// It returns:
//   - r is the next record
//   - err is either a standard error, storage.CorruptFile, or storage.NoRecordFound if the scan is exhausted
func (S *Scanner[R]) Next() (r R, err error) {
	S.fill()
	if S.err != nil {
		err = S.err
		return
	}
	if S.recPos >= len(S.records) {
		err = storage.NoRecordFound{}
		return
	}

	r = S.records[S.recPos]
	S.recPos++

	return
}

// fill - Reads blocks until a record is available, the scan is exhausted or an error occurs
func (S *Scanner[R]) fill() {
	if S.err != nil {
		return
	}
	if !S.started {
		S.started = true
		S.visited = make(map[int64]bool)
		S.heads, S.maxSteps, S.err = S.headsFn()
		if S.err != nil {
			return
		}
	}

	for S.recPos >= len(S.records) {
		if S.blocks != nil && S.blocks.HasNext() {
			blk, err := S.blocks.Next()
			if err != nil {
				S.err = err
				return
			}
			if S.visited[blk.Address] {
				S.blocks = nil
				continue
			}
			S.visited[blk.Address] = true
			S.records = blk.Records
			S.recPos = 0
			continue
		}

		if S.headPos >= len(S.heads) {
			return
		}
		S.blocks = NewBlocks(S.file, S.heads[S.headPos], S.maxSteps)
		S.headPos++
	}
}
