package fileorg

// Info - Returns information about the file
func (I *ISAMFile[R]) Info() ISAMInfo {
	sp := I.engine.GetStorageParameters()

	return ISAMInfo{
		BlockFactor:     sp.BlockFactor,
		MaxIndexEntries: sp.MaxIndexEntries,
		RecordSize:      sp.RecordSize,
		PageSize:        sp.BlockSize,
	}
}

// Build - Bulk loads records sorted ascending by unique key into an empty file.
// Records are not re-sorted, unsorted input results in storage.PreconditionFailed. A file that already holds pages
// results in storage.AlreadyBuilt, call Reset first to rebuild it.
//   - records is the sorted sequence to load
//
// It returns:
//   - err is storage.AlreadyBuilt, storage.PreconditionFailed or a standard error
func (I *ISAMFile[R]) Build(records []R) (err error) {
	return I.engine.Build(records)
}

// Reset - Removes all pages and index entries so the file can be built again
func (I *ISAMFile[R]) Reset() (err error) {
	return I.engine.Reset()
}

// Insert - Inserts a record, the file must have been built. Uniqueness of the key is not checked.
//   - r is the record to insert
//
// It returns:
//   - err is storage.PreconditionFailed if the file has not been built, or a standard error
func (I *ISAMFile[R]) Insert(r R) (err error) {
	return I.engine.Insert(r)
}

// Search - Gets the record that corresponds to the given key.
//   - key is the key of the record
//
// It returns:
//   - r is the matching record if found, if not found an error of type storage.NoRecordFound is also returned
//   - err is either of type storage.NoRecordFound or a standard error, if something went wrong
func (I *ISAMFile[R]) Search(key int32) (r R, err error) {
	return I.engine.Search(key)
}

// Delete - Deletes the record that corresponds to the given key.
//   - key is the key of the record
//
// It returns:
//   - deleted is false if no record had the key
//   - err is a standard error, if something went wrong
func (I *ISAMFile[R]) Delete(key int32) (deleted bool, err error) {
	return I.engine.Delete(key)
}

// Scan - Returns an iterator over all reachable records, chain by chain
func (I *ISAMFile[R]) Scan() RecordIterator[R] {
	return I.engine.Scan()
}

// ScanAll - Returns all reachable records in scan order
func (I *ISAMFile[R]) ScanAll() (records []R, err error) {
	return collect(I.Scan())
}

// Stat - Returns statistics on pages and records
func (I *ISAMFile[R]) Stat() (isamStat ISAMStat, err error) {
	stats, err := I.engine.Stats()
	if err != nil {
		return
	}

	isamStat = ISAMStat{
		Pages:         stats.Pages,
		IndexEntries:  stats.IndexEntries,
		Records:       stats.Records,
		MainPages:     stats.MainPages,
		OverflowPages: stats.OverflowPages,
	}

	return
}

// Info - Returns information about the file
func (H *HashFile[R]) Info() HashInfo {
	sp := H.engine.GetStorageParameters()

	return HashInfo{
		BlockFactor:       sp.BlockFactor,
		MainBuckets:       sp.MainBuckets,
		RecordSize:        sp.RecordSize,
		BucketSize:        sp.BucketSize,
		InternalAlgorithm: sp.InternalAlgorithm,
	}
}

// Insert - Inserts a record in its main bucket or overflow chain. Uniqueness of the key is not checked.
//   - r is the record to insert
//
// It returns:
//   - err is a standard error, if something went wrong
func (H *HashFile[R]) Insert(r R) (err error) {
	return H.engine.Insert(r)
}

// Search - Gets the record that corresponds to the given key.
//   - key is the key of the record
//
// It returns:
//   - r is the matching record if found, if not found an error of type storage.NoRecordFound is also returned
//   - err is either of type storage.NoRecordFound or a standard error, if something went wrong
func (H *HashFile[R]) Search(key int32) (r R, err error) {
	return H.engine.Search(key)
}

// Delete - Deletes the record that corresponds to the given key. Emptied overflow buckets stay linked.
//   - key is the key of the record
//
// It returns:
//   - deleted is false if no record had the key
//   - err is a standard error, if something went wrong
func (H *HashFile[R]) Delete(key int32) (deleted bool, err error) {
	return H.engine.Delete(key)
}

// Scan - Returns an iterator over all records, main bucket by main bucket each followed by its overflow chain
func (H *HashFile[R]) Scan() RecordIterator[R] {
	return H.engine.Scan()
}

// ScanAll - Returns all records in scan order
func (H *HashFile[R]) ScanAll() (records []R, err error) {
	return collect(H.Scan())
}

// Stat - Returns statistics on the overall usage and distribution over buckets
//   - includeDistribution if true the distribution over main buckets is included
func (H *HashFile[R]) Stat(includeDistribution bool) (hashStat HashStat, err error) {
	stats, err := H.engine.Stats()
	if err != nil {
		return
	}

	hashStat = HashStat{
		Records:         stats.Records,
		MainRecords:     stats.MainRecords,
		OverflowRecords: stats.OverflowRecords,
		OverflowBuckets: stats.OverflowBuckets,
	}
	if includeDistribution {
		hashStat.BucketDistribution = stats.BucketDistribution
	}

	return
}

// collect - Drains an iterator
func collect[R any](iter RecordIterator[R]) (records []R, err error) {
	var r R
	for iter.HasNext() {
		r, err = iter.Next()
		if err != nil {
			return
		}
		records = append(records, r)
	}

	return
}
