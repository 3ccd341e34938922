package pagedstore

import (
	"fmt"
	"io"
	"os"

	"github.com/gostonefire/fileorg/storage"
)

// PagedStore - Reads, appends and rewrites whole blocks of a fixed size at byte offsets in one file.
// It does no caching, every call is exactly one whole-block I/O.
type PagedStore struct {
	fileName  string
	file      *os.File
	blockSize int64
}

// Create - Returns a PagedStore on a new empty file. If the file exists it is truncated to zero length,
// hence deleting all existing data.
//   - fileName is the name of the file to create
//   - blockSize is the fixed size of each block
func Create(fileName string, blockSize int64) (pagedStore *PagedStore, err error) {
	if blockSize <= 0 {
		err = fmt.Errorf("block size must be a positive value higher than 0 (zero)")
		return
	}

	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		err = fmt.Errorf("error while open/create new file %s: %w", fileName, err)
		return
	}

	pagedStore = &PagedStore{fileName: fileName, file: file, blockSize: blockSize}

	return
}

// Open - Returns a PagedStore on an existing file. A missing file results in storage.PreconditionFailed and a
// file length that is not a multiple of blockSize in storage.CorruptFile.
//   - fileName is the name of an existing file
//   - blockSize is the fixed size of each block
func Open(fileName string, blockSize int64) (pagedStore *PagedStore, err error) {
	if blockSize <= 0 {
		err = fmt.Errorf("block size must be a positive value higher than 0 (zero)")
		return
	}

	stat, err := os.Stat(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			err = storage.PreconditionFailed{Msg: fmt.Sprintf("file %s not found", fileName)}
		}
		return
	}
	if stat.IsDir() {
		err = storage.PreconditionFailed{Msg: fmt.Sprintf("%s is a directory", fileName)}
		return
	}
	if stat.Size()%blockSize != 0 {
		err = storage.CorruptFile{Msg: fmt.Sprintf("length %d of %s is not a multiple of block size %d", stat.Size(), fileName, blockSize)}
		return
	}

	file, err := os.OpenFile(fileName, os.O_RDWR, 0644)
	if err != nil {
		err = fmt.Errorf("unable to open existing file %s: %w", fileName, err)
		return
	}

	pagedStore = &PagedStore{fileName: fileName, file: file, blockSize: blockSize}

	return
}

// FileName - Returns the name of the underlying file
func (P *PagedStore) FileName() string {
	return P.fileName
}

// BlockSize - Returns the fixed block size
func (P *PagedStore) BlockSize() int64 {
	return P.blockSize
}

// Size - Returns the current file length in bytes
func (P *PagedStore) Size() (size int64, err error) {
	if P.file == nil {
		err = storage.PreconditionFailed{Msg: "file is closed"}
		return
	}

	stat, err := P.file.Stat()
	if err != nil {
		return
	}
	size = stat.Size()

	return
}

// BlockCount - Returns the number of blocks in the file, derived from the file length.
// A length that is not a multiple of the block size results in storage.CorruptFile.
func (P *PagedStore) BlockCount() (count int64, err error) {
	size, err := P.Size()
	if err != nil {
		return
	}
	if size%P.blockSize != 0 {
		err = storage.CorruptFile{Msg: fmt.Sprintf("length %d of %s is not a multiple of block size %d", size, P.fileName, P.blockSize)}
		return
	}
	count = size / P.blockSize

	return
}

// AppendBlock - Writes a block at end of file and returns its offset
func (P *PagedStore) AppendBlock(buf []byte) (offset int64, err error) {
	if err = P.checkLength(buf); err != nil {
		return
	}
	count, err := P.BlockCount()
	if err != nil {
		return
	}

	offset = count * P.blockSize
	_, err = P.file.WriteAt(buf, offset)
	if err != nil {
		err = fmt.Errorf("error while appending block to %s: %w", P.fileName, err)
	}

	return
}

// ReadBlock - Reads the block at offset. Offsets beyond the file length, offsets not aligned to the
// block size and short reads result in storage.CorruptFile.
func (P *PagedStore) ReadBlock(offset int64) (buf []byte, err error) {
	size, err := P.Size()
	if err != nil {
		return
	}
	if size%P.blockSize != 0 {
		err = storage.CorruptFile{Msg: fmt.Sprintf("length %d of %s is not a multiple of block size %d", size, P.fileName, P.blockSize)}
		return
	}
	if offset < 0 || offset%P.blockSize != 0 || offset+P.blockSize > size {
		err = storage.CorruptFile{Msg: fmt.Sprintf("no block at offset %d in %s of length %d", offset, P.fileName, size)}
		return
	}

	buf = make([]byte, P.blockSize)
	n, err := P.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("error while reading block at %d from %s: %w", offset, P.fileName, err)
		return
	}
	if int64(n) != P.blockSize {
		err = storage.CorruptFile{Msg: fmt.Sprintf("truncated block at offset %d in %s", offset, P.fileName)}
		return
	}
	err = nil

	return
}

// RewriteBlock - Overwrites the existing block at offset
func (P *PagedStore) RewriteBlock(offset int64, buf []byte) (err error) {
	if err = P.checkLength(buf); err != nil {
		return
	}
	size, err := P.Size()
	if err != nil {
		return
	}
	if offset < 0 || offset%P.blockSize != 0 || offset+P.blockSize > size {
		err = storage.CorruptFile{Msg: fmt.Sprintf("no block at offset %d in %s of length %d", offset, P.fileName, size)}
		return
	}

	_, err = P.file.WriteAt(buf, offset)
	if err != nil {
		err = fmt.Errorf("error while rewriting block at %d in %s: %w", offset, P.fileName, err)
	}

	return
}

// Truncate - Removes all blocks from the file
func (P *PagedStore) Truncate() (err error) {
	if P.file == nil {
		err = storage.PreconditionFailed{Msg: "file is closed"}
		return
	}

	err = P.file.Truncate(0)
	if err != nil {
		err = fmt.Errorf("error while truncating %s: %w", P.fileName, err)
	}

	return
}

// Close - Syncs and closes the file, safe to call more than once
func (P *PagedStore) Close() {
	if P.file != nil {
		_ = P.file.Sync()
		_ = P.file.Close()
		P.file = nil
	}
}

// Remove - Removes the file, make sure to close it first
func (P *PagedStore) Remove() (err error) {
	// Only try to remove if exists, and is not by accident a directory
	if stat, ok := os.Stat(P.fileName); ok == nil {
		if !stat.IsDir() {
			err = os.Remove(P.fileName)
			if err != nil {
				err = fmt.Errorf("error while removing file %s: %w", P.fileName, err)
			}
		}
	}

	return
}

// checkLength - Verifies that buf is exactly one block
func (P *PagedStore) checkLength(buf []byte) (err error) {
	if P.file == nil {
		return storage.PreconditionFailed{Msg: "file is closed"}
	}
	if int64(len(buf)) != P.blockSize {
		return fmt.Errorf("buffer of %d bytes is not a block of %d bytes", len(buf), P.blockSize)
	}

	return
}
