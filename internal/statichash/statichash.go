package statichash

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gostonefire/fileorg/hashfunc"
	"github.com/gostonefire/fileorg/internal/block"
	"github.com/gostonefire/fileorg/internal/chain"
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/hash"
	"github.com/gostonefire/fileorg/internal/model"
	"github.com/gostonefire/fileorg/internal/pagedstore"
	"github.com/gostonefire/fileorg/record"
	"github.com/gostonefire/fileorg/storage"
)

// Conf - Is a struct to be passed in the call to New or Open and contains configuration that affects file processing.
//   - Name is the name to base hash and header file names on
//   - BlockFactor is the number of records per bucket, taken from the header file when opening
//   - MainBuckets is the number of main buckets, taken from the header file when opening
//   - Codec converts records to and from bytes
//   - HashAlgorithm is optional, if nil the internal key mod N algorithm is used
//   - Logger is optional, if nil the process wide logger is used
type Conf[R any] struct {
	Name          string
	BlockFactor   int64
	MainBuckets   int64
	Codec         record.Codec[R]
	HashAlgorithm hashfunc.HashAlgorithm
	Logger        *slog.Logger
}

// Parameters - Represents storage parameters of an Engine
type Parameters struct {
	BlockFactor       int64
	MainBuckets       int64
	RecordSize        int64
	BucketSize        int64
	InternalAlgorithm bool
}

// Stats - Statistics on the overall usage and distribution over buckets
//   - Records is the total number of records stored
//   - MainRecords is the number of records stored in main buckets
//   - OverflowRecords is the number of records stored in overflow buckets
//   - OverflowBuckets is the number of overflow buckets linked from main buckets, empty ones included
//   - BucketDistribution is the number of records stored in each main bucket and its overflow chain
type Stats struct {
	Records            int64
	MainRecords        int64
	OverflowRecords    int64
	OverflowBuckets    int64
	BucketDistribution []int64
}

// Engine - Static hash file: a fixed array of main buckets at computed offsets, each with a singly linked chain of
// overflow buckets appended at end of file.
type Engine[R any] struct {
	dataFileName      string
	headerFileName    string
	store             *pagedstore.PagedStore
	file              *block.File[R]
	codec             record.Codec[R]
	blockFactor       int64
	mainBuckets       int64
	hashAlgorithm     hashfunc.HashAlgorithm
	internalAlgorithm bool
	logger            *slog.Logger
}

// GetDataFileName - Returns the bucket file name given the file name
func GetDataFileName(name string) string {
	return fmt.Sprintf("%s-hash.bin", name)
}

// GetHeaderFileName - Returns the header file name given the file name
func GetHeaderFileName(name string) string {
	return fmt.Sprintf("%s-header.bin", name)
}

// New - Returns a pointer to a new Engine with all main buckets allocated and empty.
// It always creates new files (or truncates existing files).
//   - hashConf is a Conf struct providing configuration parameters affecting files creation and processing
//
// It returns:
//   - engine which is a pointer to the created instance
//   - err which is a standard Go type of error
func New[R any](hashConf Conf[R]) (engine *Engine[R], err error) {
	if hashConf.BlockFactor <= 0 {
		err = fmt.Errorf("block factor must be a positive value higher than 0 (zero)")
		return
	}
	if hashConf.MainBuckets <= 0 {
		err = fmt.Errorf("main buckets must be a positive value higher than 0 (zero)")
		return
	}

	// If no HashAlgorithm was given then use the default internal
	var internalAlg bool
	if hashConf.HashAlgorithm == nil {
		hashConf.HashAlgorithm = hash.NewModuloHashAlgorithm(hashConf.MainBuckets)
		internalAlg = true
	} else {
		hashConf.HashAlgorithm.SetTableSize(hashConf.MainBuckets)
	}

	engine, err = newEngine(hashConf, hashConf.BlockFactor, internalAlg)
	if err != nil {
		return
	}

	// The header is written last, a header file on disk always describes a complete bucket file
	engine.store, err = pagedstore.Create(engine.dataFileName, engine.bucketSize())
	if err != nil {
		return
	}
	engine.file = block.NewFile(engine.store, engine.codec, engine.blockFactor)

	err = engine.allocateMainBuckets()
	if err == nil {
		err = setHeader(engine.headerFileName, engine.header())
	}
	if err != nil {
		engine.CloseFiles()
		_ = engine.store.Remove()
		return
	}

	return
}

// Open - Returns a pointer to an Engine on existing files.
// Block factor and number of main buckets are read from the header file. If the files were created with a custom
// hash algorithm, that same algorithm has to be supplied, and if they were created with the internal algorithm none
// may be given. Main buckets missing at the end of the bucket file are allocated.
//   - hashConf is a Conf struct, only Name, Codec, HashAlgorithm and Logger are used
//
// It returns:
//   - engine which is a pointer to the opened instance
//   - err which is a standard Go type of error
func Open[R any](hashConf Conf[R]) (engine *Engine[R], err error) {
	if hashConf.Name == "" {
		err = fmt.Errorf("name can not be empty, it will be used to name physical files")
		return
	}
	if hashConf.Codec == nil {
		err = fmt.Errorf("a record codec must be given")
		return
	}

	header, err := getHeader(GetHeaderFileName(hashConf.Name))
	if err != nil {
		return
	}

	if header.RecordSize != hashConf.Codec.RecordSize() {
		err = fmt.Errorf("hash file holds records of %d bytes but the codec gives %d", header.RecordSize,
			hashConf.Codec.RecordSize())
		return
	}

	// Check for mismatch in choice of hash algorithm
	if header.InternalHash && hashConf.HashAlgorithm != nil {
		err = fmt.Errorf("seems the hash file was used with the internal hash algorithm but an external was given")
		return
	}
	if !header.InternalHash && hashConf.HashAlgorithm == nil {
		err = fmt.Errorf("seems the hash file was used with the external hash algorithm but no external was given")
		return
	}

	if hashConf.HashAlgorithm == nil {
		hashConf.HashAlgorithm = hash.NewModuloHashAlgorithm(header.MainBuckets)
	} else {
		hashConf.HashAlgorithm.SetTableSize(header.MainBuckets)
	}
	hashConf.MainBuckets = header.MainBuckets

	engine, err = newEngine(hashConf, header.BlockFactor, header.InternalHash)
	if err != nil {
		return
	}
	if engine.mainBuckets != header.MainBuckets {
		err = fmt.Errorf("hash algorithm addresses %d buckets but the file holds %d", engine.mainBuckets,
			header.MainBuckets)
		return
	}

	engine.store, err = pagedstore.Open(engine.dataFileName, engine.bucketSize())
	if err != nil {
		return
	}
	engine.file = block.NewFile(engine.store, engine.codec, engine.blockFactor)

	err = engine.allocateMainBuckets()
	if err != nil {
		engine.CloseFiles()
		return
	}

	return
}

// CloseFiles - Closes the bucket file, the header file is only open while being read or written
func (E *Engine[R]) CloseFiles() {
	if E.store != nil {
		E.store.Close()
	}
}

// RemoveFiles - Removes the bucket and header files, make sure to close them first
func (E *Engine[R]) RemoveFiles() (err error) {
	err = E.store.Remove()
	if err != nil {
		return
	}

	if stat, ok := os.Stat(E.headerFileName); ok == nil {
		if !stat.IsDir() {
			err = os.Remove(E.headerFileName)
			if err != nil {
				err = fmt.Errorf("error while removing header file: %w", err)
			}
		}
	}

	return
}

// GetStorageParameters - Returns a struct with storage parameters
func (E *Engine[R]) GetStorageParameters() Parameters {
	return Parameters{
		BlockFactor:       E.blockFactor,
		MainBuckets:       E.mainBuckets,
		RecordSize:        E.codec.RecordSize(),
		BucketSize:        E.bucketSize(),
		InternalAlgorithm: E.internalAlgorithm,
	}
}

// GetBucketNo - Returns which main bucket the given key results in
func (E *Engine[R]) GetBucketNo(key int32) (bucketNo int64, err error) {
	bucketNo = E.hashAlgorithm.HashFunc1(key)
	if bucketNo < 0 || bucketNo >= E.mainBuckets {
		err = fmt.Errorf("recieved bucket number %d from hash algorithm is outside permitted range", bucketNo)
		return
	}

	return
}

// GetBucket - Returns a main bucket with its records given the bucket number
//   - bucketNo is the identifier of a main bucket, the number can be retrieved by call to GetBucketNo
//
// It returns:
//   - bucket is the main bucket
//   - overflowIterator is a chain.Blocks iterator over the overflow buckets linked from the main bucket
//   - err is standard error
func (E *Engine[R]) GetBucket(bucketNo int64) (bucket model.Block[R], overflowIterator *chain.Blocks[R], err error) {
	if bucketNo < 0 || bucketNo >= E.mainBuckets {
		err = fmt.Errorf("bucket number %d is outside permitted range 0 to %d", bucketNo, E.mainBuckets-1)
		return
	}

	count, err := E.file.BlockCount()
	if err != nil {
		return
	}

	bucket, err = E.file.Read(bucketNo * E.bucketSize())
	if err != nil {
		err = fmt.Errorf("error while getting main bucket %d: %w", bucketNo, err)
		return
	}

	overflowIterator = chain.NewBlocks(E.file, bucket.Next, count)

	return
}

// Insert - Inserts a record in the first bucket of its chain that has room, or in a new overflow bucket linked from
// the chain tail. The key must not already exist in the file, uniqueness is not checked.
//   - r is the record to insert
//
// It returns:
//   - err is a standard error, if something went wrong
func (E *Engine[R]) Insert(r R) (err error) {
	bucketNo, err := E.GetBucketNo(E.codec.Key(r))
	if err != nil {
		return
	}
	count, err := E.file.BlockCount()
	if err != nil {
		return
	}

	var blk, tail model.Block[R]
	iter := chain.NewBlocks(E.file, bucketNo*E.bucketSize(), count)
	for iter.HasNext() {
		blk, err = iter.Next()
		if err != nil {
			return
		}
		if int64(len(blk.Records)) < E.blockFactor {
			blk.Records = append(blk.Records, r)
			err = E.file.Write(blk)
			return
		}
		tail = blk
	}

	ovfl := model.NewBlock[R](0, conf.NoNextBlock, E.blockFactor)
	ovfl.Records = append(ovfl.Records, r)
	offset, err := E.file.Append(ovfl)
	if err != nil {
		return
	}

	tail.Next = offset
	err = E.file.Write(tail)
	if err != nil {
		err = fmt.Errorf("error while linking overflow bucket at %d: %w", offset, err)
		return
	}

	E.logger.Debug("overflow bucket appended", "bucketNo", bucketNo, "offset", offset, "linkedFrom", tail.Address)

	return
}

// Search - Gets the record with the given key, looking in the main bucket and then in its overflow chain.
//   - key is the key to look for
//
// It returns:
//   - r is the matching record if found, if not found an error of type storage.NoRecordFound is returned
//   - err is either of type storage.NoRecordFound or a standard error, if something went wrong
func (E *Engine[R]) Search(key int32) (r R, err error) {
	blk, i, err := E.locate(key)
	if err != nil {
		return
	}

	r = blk.Records[i]

	return
}

// Delete - Deletes the record with the given key and rewrites its bucket in place.
// A bucket left empty stays linked in its chain.
//   - key is the key of the record to delete
//
// It returns:
//   - deleted is true if a record was removed, false if no record had the key
//   - err is a standard error, if something went wrong
func (E *Engine[R]) Delete(key int32) (deleted bool, err error) {
	blk, i, err := E.locate(key)
	if err != nil {
		if errors.Is(err, storage.NoRecordFound{}) {
			err = nil
		}
		return
	}

	kept := make([]R, 0, E.blockFactor)
	kept = append(kept, blk.Records[:i]...)
	blk.Records = append(kept, blk.Records[i+1:]...)
	err = E.file.Write(blk)
	if err != nil {
		return
	}

	deleted = true

	return
}

// Scan - Returns a lazy scanner over all records: main buckets 0 to N-1 in order, each followed by its overflow chain
// in link order.
func (E *Engine[R]) Scan() *chain.Scanner[R] {
	return chain.NewScanner(E.file, func() (heads []int64, maxSteps int64, err error) {
		maxSteps, err = E.file.BlockCount()
		if err != nil {
			return
		}
		heads = make([]int64, E.mainBuckets)
		for i := range heads {
			heads[i] = int64(i) * E.bucketSize()
		}
		return
	})
}

// Stats - Returns statistics over buckets and records
func (E *Engine[R]) Stats() (stats Stats, err error) {
	stats.BucketDistribution = make([]int64, E.mainBuckets)

	var bucket, blk model.Block[R]
	var iter *chain.Blocks[R]
	for i := int64(0); i < E.mainBuckets; i++ {
		bucket, iter, err = E.GetBucket(i)
		if err != nil {
			return
		}
		stats.MainRecords += int64(len(bucket.Records))
		stats.BucketDistribution[i] += int64(len(bucket.Records))

		for iter.HasNext() {
			blk, err = iter.Next()
			if err != nil {
				return
			}
			stats.OverflowBuckets++
			stats.OverflowRecords += int64(len(blk.Records))
			stats.BucketDistribution[i] += int64(len(blk.Records))
		}
	}
	stats.Records = stats.MainRecords + stats.OverflowRecords

	return
}
