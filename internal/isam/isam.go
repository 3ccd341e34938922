package isam

import (
	"fmt"
	"log/slog"

	"github.com/gostonefire/fileorg/internal/block"
	"github.com/gostonefire/fileorg/internal/chain"
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/logging"
	"github.com/gostonefire/fileorg/internal/model"
	"github.com/gostonefire/fileorg/internal/pagedstore"
	"github.com/gostonefire/fileorg/internal/sparseindex"
	"github.com/gostonefire/fileorg/internal/utils"
	"github.com/gostonefire/fileorg/record"
	"github.com/gostonefire/fileorg/storage"
)

// Conf - Is a struct to be passed in the call to New or Open and contains configuration that affects file processing.
//   - Name is the name to base data and index file names on
//   - BlockFactor is the number of records per page
//   - MaxIndexEntries is the capacity of the sparse index
//   - Codec converts records to and from bytes
//   - Logger is optional, if nil the process wide logger is used
type Conf[R any] struct {
	Name            string
	BlockFactor     int64
	MaxIndexEntries int64
	Codec           record.Codec[R]
	Logger          *slog.Logger
}

// Parameters - Represents storage parameters of an Engine
type Parameters struct {
	BlockFactor     int64
	MaxIndexEntries int64
	RecordSize      int64
	BlockSize       int64
}

// Stats - Statistics over the pages reachable from the index
//   - Pages is the number of pages physically in the data file, abandoned pages included
//   - IndexEntries is the current size of the sparse index
//   - Records is the number of records reachable through the index and the chains
//   - MainPages is the number of chain heads (page 0 and every indexed page)
//   - OverflowPages is the number of reachable pages that are not chain heads
type Stats struct {
	Pages         int64
	IndexEntries  int64
	Records       int64
	MainPages     int64
	OverflowPages int64
}

// Engine - Indexed sequential file: sorted pages located through a sparse index, growing by page split while
// the index has room and by page chaining once it is full.
type Engine[R any] struct {
	dataFileName    string
	indexFileName   string
	store           *pagedstore.PagedStore
	file            *block.File[R]
	index           *sparseindex.SparseIndex
	codec           record.Codec[R]
	blockFactor     int64
	maxIndexEntries int64
	logger          *slog.Logger
}

// GetDataFileName - Returns the data file name given the file name
func GetDataFileName(name string) string {
	return fmt.Sprintf("%s-data.bin", name)
}

// GetIndexFileName - Returns the index file name given the file name
func GetIndexFileName(name string) string {
	return fmt.Sprintf("%s-index.bin", name)
}

// New - Returns a pointer to a new, not yet built, Engine.
// It always creates new files (or truncates existing files).
//   - isamConf is a Conf struct providing configuration parameters affecting files creation and processing
//
// It returns:
//   - engine which is a pointer to the created instance
//   - err which is a standard Go type of error
func New[R any](isamConf Conf[R]) (engine *Engine[R], err error) {
	engine, err = newEngine(isamConf)
	if err != nil {
		return
	}

	engine.store, err = pagedstore.Create(engine.dataFileName, engine.blockSize())
	if err != nil {
		return
	}
	engine.file = block.NewFile(engine.store, engine.codec, engine.blockFactor)

	engine.index = sparseindex.New(engine.maxIndexEntries)
	err = engine.saveIndex()
	if err != nil {
		engine.CloseFiles()
		return
	}

	return
}

// Open - Returns a pointer to an Engine on existing files.
// A missing data file results in storage.PreconditionFailed, a missing index file gives an empty index and a
// malformed index file is treated as empty with a warning logged.
//   - isamConf is a Conf struct, the block factor and codec must be the ones the files were created with
//
// It returns:
//   - engine which is a pointer to the opened instance
//   - err which is a standard Go type of error
func Open[R any](isamConf Conf[R]) (engine *Engine[R], err error) {
	engine, err = newEngine(isamConf)
	if err != nil {
		return
	}

	engine.store, err = pagedstore.Open(engine.dataFileName, engine.blockSize())
	if err != nil {
		return
	}
	engine.file = block.NewFile(engine.store, engine.codec, engine.blockFactor)

	engine.index, err = sparseindex.Load(engine.indexFileName, engine.maxIndexEntries, engine.logger)
	if err != nil {
		engine.CloseFiles()
		return
	}

	return
}

// CloseFiles - Closes the data file, the index file is only open while being written
func (E *Engine[R]) CloseFiles() {
	if E.store != nil {
		E.store.Close()
	}
}

// RemoveFiles - Removes the data and index files, make sure to close them first
func (E *Engine[R]) RemoveFiles() (err error) {
	err = E.store.Remove()
	if err != nil {
		return
	}

	err = removeIfExists(E.indexFileName)

	return
}

// GetStorageParameters - Returns a struct with storage parameters
func (E *Engine[R]) GetStorageParameters() Parameters {
	return Parameters{
		BlockFactor:     E.blockFactor,
		MaxIndexEntries: E.maxIndexEntries,
		RecordSize:      E.codec.RecordSize(),
		BlockSize:       E.blockSize(),
	}
}

// IndexEntries - Returns a copy of the sparse index entries in ascending key order
func (E *Engine[R]) IndexEntries() []model.IndexEntry {
	return E.index.Entries()
}

// Build - Bulk loads records into an empty file.
// Records must be sorted ascending by key, they are not re-sorted. They are written in pages of BlockFactor records
// at consecutive offsets and each page is registered in the index under its first key while the index has room.
// Pages written after the index is full are chained from the last indexed page.
//   - records is the sorted sequence to load, an empty sequence writes one empty page
//
// It returns:
//   - err is storage.AlreadyBuilt if the data file already holds pages, storage.PreconditionFailed if records are
//     not in ascending key order, or a standard error
func (E *Engine[R]) Build(records []R) (err error) {
	count, err := E.file.BlockCount()
	if err != nil {
		return
	}
	if count > 0 {
		err = storage.AlreadyBuilt{Msg: fmt.Sprintf("%s holds %d pages, reset it first", E.dataFileName, count)}
		return
	}

	keys := make([]int32, len(records))
	for i, r := range records {
		keys[i] = E.codec.Key(r)
	}
	if !utils.SortedUnique(keys) {
		err = storage.PreconditionFailed{Msg: "records not sorted ascending by unique key"}
		return
	}

	E.index.Reset()

	if len(records) == 0 {
		_, err = E.file.Append(model.NewBlock[R](0, conf.NoNextBlock, E.blockFactor))
		if err != nil {
			return
		}
		err = E.saveIndex()
		return
	}

	nPages := (int64(len(records)) + E.blockFactor - 1) / E.blockFactor
	indexed := min(nPages, E.maxIndexEntries)
	blockSize := E.blockSize()

	var offset int64
	for p := int64(0); p < nPages; p++ {
		blk := model.NewBlock[R](0, conf.NoNextBlock, E.blockFactor)
		end := min((p+1)*E.blockFactor, int64(len(records)))
		blk.Records = append(blk.Records, records[p*E.blockFactor:end]...)

		// Pages beyond index capacity are only reachable through the chain of the last indexed page
		if p >= indexed-1 && p+1 < nPages {
			blk.Next = (p + 1) * blockSize
		}

		offset, err = E.file.Append(blk)
		if err != nil {
			return
		}
		if offset != p*blockSize {
			err = storage.CorruptFile{Msg: fmt.Sprintf("page %d written at %d, expected %d", p, offset, p*blockSize)}
			return
		}

		if p < indexed {
			E.index.Add(E.codec.Key(blk.Records[0]), offset)
		}
	}

	if indexed < nPages {
		E.logger.Debug("index full during build, trailing pages chained",
			"pages", nPages, "indexed", indexed)
	}

	err = E.saveIndex()

	return
}

// Insert - Inserts a record.
// The key must not already exist in the file, uniqueness is not checked.
//   - r is the record to insert
//
// It returns:
//   - err is storage.PreconditionFailed if the file has not been built, or a standard error
func (E *Engine[R]) Insert(r R) (err error) {
	count, err := E.builtBlockCount()
	if err != nil {
		return
	}

	key := E.codec.Key(r)
	blocks, err := E.loadChain(E.index.Floor(key), count)
	if err != nil {
		return
	}

	pos := E.findInRange(blocks, key)
	if pos < 0 {
		err = E.appendOverflow(blocks, r)
		if err != nil {
			return
		}
		return E.saveIndex()
	}

	blk := blocks[pos]
	if int64(len(blk.Records)) < E.blockFactor {
		oldMin, hadRecords := E.minKey(blk)
		blk.Records = E.insertSorted(blk.Records, r)
		err = E.file.Write(blk)
		if err != nil {
			return
		}
		if pos == 0 && (!hadRecords || key < oldMin) {
			E.reanchor(blk.Address, key)
		}
		return E.saveIndex()
	}

	policy := E.selectGrowthPolicy()
	err = policy.grow(E, blocks, pos, r)
	if err != nil {
		err = fmt.Errorf("error while growing page at %d by %s: %w", blk.Address, policy.name(), err)
		return
	}

	return E.saveIndex()
}

// Search - Gets the record with the given key.
//   - key is the key to look for
//
// It returns:
//   - r is the matching record if found, if not found an error of type storage.NoRecordFound is returned
//   - err is storage.NoRecordFound, storage.PreconditionFailed if the file has not been built, storage.CorruptFile or
//     a standard error
func (E *Engine[R]) Search(key int32) (r R, err error) {
	count, err := E.builtBlockCount()
	if err != nil {
		return
	}

	var blk model.Block[R]
	iter := chain.NewBlocks(E.file, E.index.Floor(key), count)
	for iter.HasNext() {
		blk, err = iter.Next()
		if err != nil {
			return
		}
		for _, rec := range blk.Records {
			if E.codec.Key(rec) == key {
				r = rec
				return
			}
		}
	}

	err = storage.NoRecordFound{}

	return
}

// Delete - Deletes the record with the given key.
// A page left empty is unlinked from its chain and its index entries are dropped, the page space is never reused.
//   - key is the key of the record to delete
//
// It returns:
//   - deleted is true if a record was removed, false if no record had the key
//   - err is storage.PreconditionFailed if the file has not been built, or a standard error
func (E *Engine[R]) Delete(key int32) (deleted bool, err error) {
	count, err := E.builtBlockCount()
	if err != nil {
		return
	}

	blocks, err := E.loadChain(E.index.Floor(key), count)
	if err != nil {
		return
	}

	for pos, blk := range blocks {
		i := E.recordIndex(blk.Records, key)
		if i < 0 {
			continue
		}

		blk.Records = removeAt(blk.Records, i, E.blockFactor)
		err = E.removeFromChain(blocks, pos, blk, i == 0)
		if err != nil {
			return
		}

		deleted = true
		err = E.saveIndex()
		return
	}

	return
}

// Reset - Removes all pages and index entries so the file can be built again
func (E *Engine[R]) Reset() (err error) {
	err = E.store.Truncate()
	if err != nil {
		return
	}

	E.index.Reset()
	err = E.saveIndex()

	return
}

// Scan - Returns a lazy scanner over all reachable records: page 0 first, then each indexed page in key order,
// every page followed by its chain in link order. Each page is visited once.
func (E *Engine[R]) Scan() *chain.Scanner[R] {
	return chain.NewScanner(E.file, func() (heads []int64, maxSteps int64, err error) {
		maxSteps, err = E.file.BlockCount()
		if err != nil {
			return
		}
		heads = E.chainHeads(maxSteps)
		return
	})
}

// Stats - Returns statistics over pages and records
func (E *Engine[R]) Stats() (stats Stats, err error) {
	stats.Pages, err = E.file.BlockCount()
	if err != nil {
		return
	}
	stats.IndexEntries = E.index.Size()

	visited := make(map[int64]bool)
	var blk model.Block[R]
	for _, head := range E.chainHeads(stats.Pages) {
		if visited[head] {
			continue
		}
		stats.MainPages++

		iter := chain.NewBlocks(E.file, head, stats.Pages)
		for iter.HasNext() {
			blk, err = iter.Next()
			if err != nil {
				return
			}
			if visited[blk.Address] {
				break
			}
			visited[blk.Address] = true
			if blk.Address != head {
				stats.OverflowPages++
			}
			stats.Records += int64(len(blk.Records))
		}
	}

	return
}

// newEngine - Validates configuration and returns an Engine without files
func newEngine[R any](isamConf Conf[R]) (engine *Engine[R], err error) {
	if isamConf.Name == "" {
		err = fmt.Errorf("name can not be empty, it will be used to name physical files")
		return
	}
	if isamConf.Codec == nil {
		err = fmt.Errorf("a record codec must be given")
		return
	}
	if isamConf.BlockFactor <= 0 {
		err = fmt.Errorf("block factor must be a positive value higher than 0 (zero)")
		return
	}
	if isamConf.MaxIndexEntries <= 0 {
		err = fmt.Errorf("max index entries must be a positive value higher than 0 (zero)")
		return
	}

	logger := isamConf.Logger
	if logger == nil {
		logger = logging.WithFile("isam", GetDataFileName(isamConf.Name))
	}

	engine = &Engine[R]{
		dataFileName:    GetDataFileName(isamConf.Name),
		indexFileName:   GetIndexFileName(isamConf.Name),
		codec:           isamConf.Codec,
		blockFactor:     isamConf.BlockFactor,
		maxIndexEntries: isamConf.MaxIndexEntries,
		logger:          logger,
	}

	return
}
