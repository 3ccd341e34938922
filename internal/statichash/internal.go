package statichash

import (
	"fmt"

	"github.com/gostonefire/fileorg/internal/chain"
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/logging"
	"github.com/gostonefire/fileorg/internal/model"
	"github.com/gostonefire/fileorg/storage"
)

// newEngine - Validates configuration and returns an Engine without files
func newEngine[R any](hashConf Conf[R], blockFactor int64, internalAlg bool) (engine *Engine[R], err error) {
	if hashConf.Name == "" {
		err = fmt.Errorf("name can not be empty, it will be used to name physical files")
		return
	}
	if hashConf.Codec == nil {
		err = fmt.Errorf("a record codec must be given")
		return
	}

	mainBuckets := hashConf.HashAlgorithm.GetTableSize()
	if mainBuckets <= 0 {
		err = fmt.Errorf("hash algorithm reports a table size of %d", mainBuckets)
		return
	}

	logger := hashConf.Logger
	if logger == nil {
		logger = logging.WithFile("statichash", GetDataFileName(hashConf.Name))
	}

	engine = &Engine[R]{
		dataFileName:      GetDataFileName(hashConf.Name),
		headerFileName:    GetHeaderFileName(hashConf.Name),
		codec:             hashConf.Codec,
		blockFactor:       blockFactor,
		mainBuckets:       mainBuckets,
		hashAlgorithm:     hashConf.HashAlgorithm,
		internalAlgorithm: internalAlg,
		logger:            logger,
	}

	return
}

// header - Returns the Header struct describing the engine
func (E *Engine[R]) header() Header {
	return Header{
		InternalHash: E.internalAlgorithm,
		BlockFactor:  E.blockFactor,
		RecordSize:   E.codec.RecordSize(),
		MainBuckets:  E.mainBuckets,
	}
}

// bucketSize - Returns the size of a bucket in bytes
func (E *Engine[R]) bucketSize() int64 {
	return conf.BlockSize(E.blockFactor, E.codec.RecordSize())
}

// allocateMainBuckets - Appends empty main buckets until the file holds all of them
func (E *Engine[R]) allocateMainBuckets() (err error) {
	count, err := E.file.BlockCount()
	if err != nil {
		return
	}
	if count >= E.mainBuckets {
		return
	}

	for i := count; i < E.mainBuckets; i++ {
		_, err = E.file.Append(model.NewBlock[R](0, conf.NoNextBlock, E.blockFactor))
		if err != nil {
			err = fmt.Errorf("error while allocating main bucket %d: %w", i, err)
			return
		}
	}

	E.logger.Debug("main buckets allocated", "from", count, "to", E.mainBuckets)

	return
}

// locate - Returns the bucket holding key and the slot of the record within it
func (E *Engine[R]) locate(key int32) (blk model.Block[R], slot int, err error) {
	bucketNo, err := E.GetBucketNo(key)
	if err != nil {
		return
	}
	count, err := E.file.BlockCount()
	if err != nil {
		return
	}

	iter := chain.NewBlocks(E.file, bucketNo*E.bucketSize(), count)
	for iter.HasNext() {
		blk, err = iter.Next()
		if err != nil {
			return
		}
		for slot = range blk.Records {
			if E.codec.Key(blk.Records[slot]) == key {
				return
			}
		}
	}

	blk = model.Block[R]{}
	slot = -1
	err = storage.NoRecordFound{}

	return
}
