package fileorg

import (
	"fmt"

	"github.com/gostonefire/fileorg/hashfunc"
	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/isam"
	"github.com/gostonefire/fileorg/internal/statichash"
	"github.com/gostonefire/fileorg/record"
)

// RecordIterator - Lazily iterates over the records of a file.
// Next returns storage.NoRecordFound once the iteration is exhausted, Reset starts it over.
type RecordIterator[R any] interface {
	HasNext() bool
	Next() (R, error)
	Reset()
}

// ISAMInfo - Information structure containing some information about the indexed sequential file
//   - BlockFactor is the number of records per page
//   - MaxIndexEntries is the capacity of the sparse index
//   - RecordSize is the number of bytes a record occupies
//   - PageSize is the number of bytes a page occupies, header included
type ISAMInfo struct {
	BlockFactor     int64
	MaxIndexEntries int64
	RecordSize      int64
	PageSize        int64
}

// ISAMStat - Statistics on pages and records of an indexed sequential file
//   - Pages is the number of pages in the data file, pages that are no longer reachable included
//   - IndexEntries is the current number of sparse index entries
//   - Records is the number of records reachable through the index
//   - MainPages is the number of pages heading a chain
//   - OverflowPages is the number of reachable pages that are not heading a chain
type ISAMStat struct {
	Pages         int64
	IndexEntries  int64
	Records       int64
	MainPages     int64
	OverflowPages int64
}

// HashInfo - Information structure containing some information about the static hash file
//   - BlockFactor is the number of records per bucket
//   - MainBuckets is the number of directly addressed buckets
//   - RecordSize is the number of bytes a record occupies
//   - BucketSize is the number of bytes a bucket occupies, header included
//   - InternalAlgorithm is true if the internal key mod N algorithm is used
type HashInfo struct {
	BlockFactor       int64
	MainBuckets       int64
	RecordSize        int64
	BucketSize        int64
	InternalAlgorithm bool
}

// HashStat - Statistics on the overall usage and distribution over buckets
//   - Records is the total number of records stored
//   - MainRecords is the number of records stored in main buckets
//   - OverflowRecords is the number of records that has ended up in overflow buckets
//   - OverflowBuckets is the number of overflow buckets, emptied ones included
//   - BucketDistribution is the number of records stored in each main bucket including its overflow chain
type HashStat struct {
	Records            int64
	MainRecords        int64
	OverflowRecords    int64
	OverflowBuckets    int64
	BucketDistribution []int64
}

// ISAMFile - Indexed sequential file of records of type R
type ISAMFile[R any] struct {
	engine *isam.Engine[R]
	name   string
	// CloseFiles - Closes the data file. Use this preferably in a "defer" directly after a NewISAMFile or
	// NewISAMFromExistingFiles.
	CloseFiles func()
	// RemoveFiles - Removes the data file and the index file if they exist.
	// The function first internally closes them using CloseFiles.
	RemoveFiles func() error
}

// HashFile - Static hash file of records of type R
type HashFile[R any] struct {
	engine *statichash.Engine[R]
	name   string
	// CloseFiles - Closes the bucket file. Use this preferably in a "defer" directly after a NewHashFile or
	// NewHashFromExistingFiles.
	CloseFiles func()
	// RemoveFiles - Removes the bucket file and the header file if they exist.
	// The function first internally closes them using CloseFiles.
	RemoveFiles func() error
}

// NewISAMFile - Returns a new, empty and not yet built, indexed sequential file. Call Build to load it.
//   - name is the name of the file and will be used to form file names
//   - blockFactor is the number of records per page, 0 gives the default of 3
//   - maxIndexEntries is the capacity of the sparse index, 0 gives the default of 64
//   - codec converts records to and from bytes
//
// It returns:
//   - isamFile is a pointer to an ISAMFile struct
//   - info is an ISAMInfo struct containing some data regarding the file created
//   - err is a normal go Error which should be nil if everything went ok
func NewISAMFile[R any](
	name string,
	blockFactor int64,
	maxIndexEntries int64,
	codec record.Codec[R],
) (
	isamFile *ISAMFile[R],
	info ISAMInfo,
	err error,
) {
	isamConf, err := isamConfig(name, blockFactor, maxIndexEntries, codec)
	if err != nil {
		return
	}

	engine, err := isam.New(isamConf)
	if err != nil {
		return
	}

	isamFile, info = newISAMFile(name, engine)

	return
}

// NewISAMFromExistingFiles - Opens an existing indexed sequential file. Block factor and index capacity must be
// the ones the file was created with since the data file does not record them.
//   - name is the name of an existing file
//   - blockFactor is the number of records per page, 0 gives the default of 3
//   - maxIndexEntries is the capacity of the sparse index, 0 gives the default of 64
//   - codec converts records to and from bytes
//
// It returns:
//   - isamFile is a pointer to an ISAMFile struct
//   - info is an ISAMInfo struct containing some data regarding the file opened
//   - err is storage.PreconditionFailed if the data file does not exist, storage.CorruptFile if its size is not a
//     whole number of pages, or a standard error
func NewISAMFromExistingFiles[R any](
	name string,
	blockFactor int64,
	maxIndexEntries int64,
	codec record.Codec[R],
) (
	isamFile *ISAMFile[R],
	info ISAMInfo,
	err error,
) {
	isamConf, err := isamConfig(name, blockFactor, maxIndexEntries, codec)
	if err != nil {
		return
	}

	engine, err := isam.Open(isamConf)
	if err != nil {
		return
	}

	isamFile, info = newISAMFile(name, engine)

	return
}

// NewHashFile - Returns a new static hash file with all main buckets allocated and empty.
//   - name is the name of the file and will be used to form file names
//   - blockFactor is the number of records per bucket, 0 gives the default of 4
//   - mainBuckets is the number of directly addressed buckets, 0 gives the default of 10
//   - codec converts records to and from bytes
//   - hashAlgorithm is an optional entry to provide a custom hash algorithm following the hashfunc.HashAlgorithm
//     interface, if nil key mod mainBuckets is used
//
// It returns:
//   - hashFile is a pointer to a HashFile struct
//   - info is a HashInfo struct containing some data regarding the file created
//   - err is a normal go Error which should be nil if everything went ok
func NewHashFile[R any](
	name string,
	blockFactor int64,
	mainBuckets int64,
	codec record.Codec[R],
	hashAlgorithm hashfunc.HashAlgorithm,
) (
	hashFile *HashFile[R],
	info HashInfo,
	err error,
) {
	if blockFactor == 0 {
		blockFactor = conf.DefaultHashBlockFactor
	}
	if mainBuckets == 0 {
		mainBuckets = conf.DefaultMainBuckets
	}

	engine, err := statichash.New(statichash.Conf[R]{
		Name:          name,
		BlockFactor:   blockFactor,
		MainBuckets:   mainBuckets,
		Codec:         codec,
		HashAlgorithm: hashAlgorithm,
	})
	if err != nil {
		return
	}

	hashFile, info = newHashFile(name, engine)

	return
}

// NewHashFromExistingFiles - Opens an existing static hash file. The header file must be valid, and if the file was
// created and used together with a custom hash algorithm, also that same algorithm has to be supplied.
//   - name is the name of an existing file
//   - codec converts records to and from bytes, its record size must match the header
//   - hashAlgorithm is an optional entry to provide a custom hash algorithm following the hashfunc.HashAlgorithm interface
//
// It returns:
//   - hashFile is a pointer to a HashFile struct
//   - info is a HashInfo struct containing some data regarding the file opened
//   - err is a normal Go Error which should be nil if everything went ok
func NewHashFromExistingFiles[R any](name string, codec record.Codec[R], hashAlgorithm hashfunc.HashAlgorithm) (
	hashFile *HashFile[R],
	info HashInfo,
	err error,
) {
	engine, err := statichash.Open(statichash.Conf[R]{Name: name, Codec: codec, HashAlgorithm: hashAlgorithm})
	if err != nil {
		return
	}

	hashFile, info = newHashFile(name, engine)

	return
}

// isamConfig - Applies defaults and returns the engine configuration
func isamConfig[R any](name string, blockFactor, maxIndexEntries int64, codec record.Codec[R]) (
	isamConf isam.Conf[R],
	err error,
) {
	if blockFactor < 0 || maxIndexEntries < 0 {
		err = fmt.Errorf("block factor and max index entries can not be negative")
		return
	}
	if blockFactor == 0 {
		blockFactor = conf.DefaultISAMBlockFactor
	}
	if maxIndexEntries == 0 {
		maxIndexEntries = conf.DefaultMaxIndexEntries
	}

	isamConf = isam.Conf[R]{
		Name:            name,
		BlockFactor:     blockFactor,
		MaxIndexEntries: maxIndexEntries,
		Codec:           codec,
	}

	return
}

// newISAMFile - Wraps an engine
func newISAMFile[R any](name string, engine *isam.Engine[R]) (isamFile *ISAMFile[R], info ISAMInfo) {
	isamFile = &ISAMFile[R]{
		engine:     engine,
		name:       name,
		CloseFiles: func() { engine.CloseFiles() },
		RemoveFiles: func() error {
			engine.CloseFiles()
			return engine.RemoveFiles()
		},
	}

	info = isamFile.Info()

	return
}

// newHashFile - Wraps an engine
func newHashFile[R any](name string, engine *statichash.Engine[R]) (hashFile *HashFile[R], info HashInfo) {
	hashFile = &HashFile[R]{
		engine:     engine,
		name:       name,
		CloseFiles: func() { engine.CloseFiles() },
		RemoveFiles: func() error {
			engine.CloseFiles()
			return engine.RemoveFiles()
		},
	}

	info = hashFile.Info()

	return
}
