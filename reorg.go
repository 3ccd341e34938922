package fileorg

import (
	"fmt"
	"sort"

	"github.com/gostonefire/fileorg/hashfunc"
	"github.com/gostonefire/fileorg/logging"
	"github.com/gostonefire/fileorg/record"
)

// ReorgHashConf - Is a struct used in the call to ReorgHashFile holding configuration for the new file structure.
//   - BlockFactor is the new number of records per bucket, 0 keeps the current one
//   - MainBuckets is the new number of main buckets, 0 keeps the current one
//   - NewHashAlgorithm is the algorithm to use, nil selects the internal key mod N algorithm
//   - OldHashAlgorithm is the algorithm that was used in the original hash file
type ReorgHashConf struct {
	BlockFactor      int64
	MainBuckets      int64
	NewHashAlgorithm hashfunc.HashAlgorithm
	OldHashAlgorithm hashfunc.HashAlgorithm
}

// ReorgISAMConf - Is a struct used in the call to ReorgISAMFile holding configuration for the new file structure.
//   - BlockFactor is the new number of records per page, 0 keeps the current one
//   - MaxIndexEntries is the new capacity of the sparse index, 0 keeps the current one
type ReorgISAMConf struct {
	BlockFactor     int64
	MaxIndexEntries int64
}

// GetReorgName - Returns the name of the file a reorganization writes to
func GetReorgName(name string) string {
	return fmt.Sprintf("%s-reorg", name)
}

// ReorgHashFile - Is used when an existing hash file needs to reflect new conditions as compared to when it was
// first created. For instance if the number of main buckets was way off and too much data ended up in overflow, or
// a better hash algorithm has been found for the particular set of keys.
//
// Every record is copied into a new hash file named by GetReorgName. The old files are left untouched to prevent
// data loss due to mistakes.
//
// The reorganization will happen only if there are detectable changes coming from the ReorgHashConf struct. If the
// original file was created with the internal hash algorithm and an empty (fields are Go zero values) ReorgHashConf
// struct is supplied, the function returns with no processing. A non nil NewHashAlgorithm always results in
// processing, as does a nil NewHashAlgorithm for a file created with a custom one.
//
// To force a reorganization even if there are no changes to apply, use the force flag. This collapses overflow
// chains left behind by deletions.
//   - name is the name of an existing hash file (including correct path)
//   - codec converts records to and from bytes
//   - reorgConf is an instance of the ReorgHashConf struct
//   - force set to true forces a reorganization regardless of what is changed from the ReorgHashConf struct
func ReorgHashFile[R any](name string, codec record.Codec[R], reorgConf ReorgHashConf, force bool) (
	fromInfo, toInfo HashInfo,
	err error,
) {
	from, fromInfo, err := NewHashFromExistingFiles(name, codec, reorgConf.OldHashAlgorithm)
	if err != nil {
		return
	}
	defer from.CloseFiles()

	// Sort out new settings and also make sure there are any changes at all (unless force flag has already overridden that)
	hasChanges := force
	blockFactor := fromInfo.BlockFactor
	mainBuckets := fromInfo.MainBuckets
	if reorgConf.BlockFactor > 0 && reorgConf.BlockFactor != blockFactor {
		blockFactor = reorgConf.BlockFactor
		hasChanges = true
	}
	if reorgConf.MainBuckets > 0 && reorgConf.MainBuckets != mainBuckets {
		mainBuckets = reorgConf.MainBuckets
		hasChanges = true
	}
	if reorgConf.NewHashAlgorithm != nil || !fromInfo.InternalAlgorithm {
		hasChanges = true
	}
	if !hasChanges {
		toInfo = fromInfo
		return
	}

	to, toInfo, err := NewHashFile(GetReorgName(name), blockFactor, mainBuckets, codec, reorgConf.NewHashAlgorithm)
	if err != nil {
		return
	}
	defer to.CloseFiles()

	var r R
	var copied int64
	iter := from.Scan()
	for iter.HasNext() {
		r, err = iter.Next()
		if err != nil {
			return
		}
		err = to.Insert(r)
		if err != nil {
			err = fmt.Errorf("error while copying record %d: %w", codec.Key(r), err)
			return
		}
		copied++
	}

	logging.WithFile("reorg", name).Info("hash file reorganized",
		"records", copied, "mainBuckets", toInfo.MainBuckets, "blockFactor", toInfo.BlockFactor)

	return
}

// ReorgISAMFile - Rebuilds an indexed sequential file from scratch. All reachable records are read, sorted and bulk
// loaded into a new file named by GetReorgName, which collapses overflow chains and drops abandoned pages.
// The old files are left untouched.
//   - name is the name of an existing indexed sequential file (including correct path)
//   - blockFactor and maxIndexEntries are the ones the existing file was created with, 0 gives the defaults
//   - codec converts records to and from bytes
//   - reorgConf is an instance of the ReorgISAMConf struct
func ReorgISAMFile[R any](
	name string,
	blockFactor int64,
	maxIndexEntries int64,
	codec record.Codec[R],
	reorgConf ReorgISAMConf,
) (
	fromInfo, toInfo ISAMInfo,
	err error,
) {
	from, fromInfo, err := NewISAMFromExistingFiles(name, blockFactor, maxIndexEntries, codec)
	if err != nil {
		return
	}
	defer from.CloseFiles()

	records, err := from.ScanAll()
	if err != nil {
		return
	}
	sort.SliceStable(records, func(i, j int) bool { return codec.Key(records[i]) < codec.Key(records[j]) })

	newBlockFactor := fromInfo.BlockFactor
	if reorgConf.BlockFactor > 0 {
		newBlockFactor = reorgConf.BlockFactor
	}
	newMaxIndexEntries := fromInfo.MaxIndexEntries
	if reorgConf.MaxIndexEntries > 0 {
		newMaxIndexEntries = reorgConf.MaxIndexEntries
	}

	to, toInfo, err := NewISAMFile(GetReorgName(name), newBlockFactor, newMaxIndexEntries, codec)
	if err != nil {
		return
	}
	defer to.CloseFiles()

	err = to.Build(records)
	if err != nil {
		return
	}

	logging.WithFile("reorg", name).Info("indexed sequential file reorganized",
		"records", len(records), "blockFactor", toInfo.BlockFactor, "maxIndexEntries", toInfo.MaxIndexEntries)

	return
}
