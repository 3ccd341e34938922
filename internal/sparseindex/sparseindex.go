package sparseindex

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/model"
)

// SparseIndex - Bounded in-memory map from page anchor key to page offset, kept as a slice sorted by key.
// There is at most one entry per key and at most maxEntries entries in total.
type SparseIndex struct {
	entries    []model.IndexEntry
	maxEntries int64
}

// New - Returns a pointer to a new empty SparseIndex
//   - maxEntries is the capacity of the index
func New(maxEntries int64) *SparseIndex {
	return &SparseIndex{
		entries:    make([]model.IndexEntry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Size - Returns the number of entries
func (S *SparseIndex) Size() int64 {
	return int64(len(S.entries))
}

// MaxEntries - Returns the capacity of the index
func (S *SparseIndex) MaxEntries() int64 {
	return S.maxEntries
}

// IsFull - Returns true if no further pages may be registered
func (S *SparseIndex) IsFull() bool {
	return S.Size() >= S.maxEntries
}

// Entries - Returns a copy of all entries in ascending key order
func (S *SparseIndex) Entries() []model.IndexEntry {
	entries := make([]model.IndexEntry, len(S.entries))
	_ = copy(entries, S.entries)
	return entries
}

// Add - Inserts an entry or replaces the offset of an existing entry with the same key.
// A new key is refused when the index is full, in which case false is returned.
// Entries with a different key pointing at the same offset are left untouched, use RemoveOffset first.
func (S *SparseIndex) Add(key int32, offset int64) bool {
	i := sort.Search(len(S.entries), func(i int) bool { return S.entries[i].Key >= key })
	if i < len(S.entries) && S.entries[i].Key == key {
		S.entries[i].Offset = offset
		return true
	}
	if S.IsFull() {
		return false
	}

	S.entries = append(S.entries, model.IndexEntry{})
	_ = copy(S.entries[i+1:], S.entries[i:])
	S.entries[i] = model.IndexEntry{Key: key, Offset: offset}

	return true
}

// RemoveOffset - Removes every entry pointing at offset and returns how many were removed
func (S *SparseIndex) RemoveOffset(offset int64) (removed int) {
	kept := S.entries[:0]
	for _, e := range S.entries {
		if e.Offset == offset {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	S.entries = kept

	return
}

// HasOffset - Returns true if some entry points at offset
func (S *SparseIndex) HasOffset(offset int64) bool {
	for _, e := range S.entries {
		if e.Offset == offset {
			return true
		}
	}
	return false
}

// Floor - Returns the offset of the entry with the greatest key less than or equal to key.
// If key is smaller than every anchor, or the index is empty, the offset of the first main page (0) is returned.
func (S *SparseIndex) Floor(key int32) int64 {
	i := sort.Search(len(S.entries), func(i int) bool { return S.entries[i].Key > key })
	if i == 0 {
		return 0
	}
	return S.entries[i-1].Offset
}

// Reset - Removes all entries
func (S *SparseIndex) Reset() {
	S.entries = S.entries[:0]
}

// Save - Writes the index to fileName as an entry count followed by the entries in ascending key order.
// Any existing file is replaced.
func (S *SparseIndex) Save(fileName string) (err error) {
	buf := make([]byte, conf.IndexFileHeaderLength+int64(len(S.entries))*conf.IndexEntryLength)
	binary.LittleEndian.PutUint32(buf, uint32(len(S.entries)))

	start := conf.IndexFileHeaderLength
	for _, e := range S.entries {
		binary.LittleEndian.PutUint32(buf[start:], uint32(e.Key))
		binary.LittleEndian.PutUint64(buf[start+4:], uint64(e.Offset))
		start += conf.IndexEntryLength
	}

	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		err = fmt.Errorf("error while open/create index file: %w", err)
		return
	}
	defer func(file *os.File) { _ = file.Close() }(file)

	_, err = file.Write(buf)
	if err != nil {
		err = fmt.Errorf("error while writing index file: %w", err)
	}

	return
}

// Load - Reads an index from fileName.
// A missing file gives an empty index. A file that can not be interpreted (short, entry count not matching the
// length, more entries than maxEntries or keys out of order) also gives an empty index, the discarded entries
// are reported through logger only.
//   - fileName is the name of the index file
//   - maxEntries is the capacity of the index
//   - logger receives a warning when a malformed file is discarded
func Load(fileName string, maxEntries int64, logger *slog.Logger) (sparseIndex *SparseIndex, err error) {
	sparseIndex = New(maxEntries)

	buf, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
			return
		}
		err = fmt.Errorf("error while reading index file: %w", err)
		return
	}

	entries, ok := bytesToEntries(buf, maxEntries)
	if !ok {
		if logger != nil {
			logger.Warn("malformed index file treated as empty", "file", fileName, "length", len(buf))
		}
		return
	}
	sparseIndex.entries = append(sparseIndex.entries, entries...)

	return
}

// bytesToEntries - Converts index file raw data to entries, ok is false if the data is malformed
func bytesToEntries(buf []byte, maxEntries int64) (entries []model.IndexEntry, ok bool) {
	length := int64(len(buf))
	if length < conf.IndexFileHeaderLength {
		return
	}

	count := int64(int32(binary.LittleEndian.Uint32(buf)))
	if count < 0 || count > maxEntries || length != conf.IndexFileHeaderLength+count*conf.IndexEntryLength {
		return
	}

	entries = make([]model.IndexEntry, 0, count)
	start := conf.IndexFileHeaderLength
	for i := int64(0); i < count; i++ {
		e := model.IndexEntry{
			Key:    int32(binary.LittleEndian.Uint32(buf[start:])),
			Offset: int64(binary.LittleEndian.Uint64(buf[start+4:])),
		}
		if i > 0 && e.Key <= entries[i-1].Key {
			return nil, false
		}
		entries = append(entries, e)
		start += conf.IndexEntryLength
	}
	ok = true

	return
}
