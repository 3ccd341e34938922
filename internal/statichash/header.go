package statichash

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/storage"
)

// hashAlgorithmOffset - Header offset to whether using internal (1) or external (0) hash algorithm - 1 byte
const hashAlgorithmOffset int64 = 0

// blockFactorOffset - Header offset to the number of records per bucket - 4 bytes
const blockFactorOffset int64 = 1

// recordSizeOffset - Header offset to the record size - 4 bytes
const recordSizeOffset int64 = 5

// mainBucketsOffset - Header offset to the number of main buckets - 8 bytes
const mainBucketsOffset int64 = 9

// Header - Represents the hash file header data
type Header struct {
	InternalHash bool
	BlockFactor  int64
	RecordSize   int64
	MainBuckets  int64
}

// getHeader - Reads header data from the header file and returns it as a Header struct
func getHeader(fileName string) (header Header, err error) {
	buf, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			err = storage.PreconditionFailed{Msg: fmt.Sprintf("header file %s not found", fileName)}
		}
		return
	}

	header, err = bytesToHeader(buf)
	if err != nil {
		err = fmt.Errorf("error in header file %s: %w", fileName, err)
	}

	return
}

// setHeader - Takes a Header struct and writes it to the header file, replacing any previous contents
func setHeader(fileName string, header Header) (err error) {
	err = os.WriteFile(fileName, headerToBytes(header), 0644)
	if err != nil {
		err = fmt.Errorf("error while writing header file %s: %w", fileName, err)
	}

	return
}

// bytesToHeader - Converts a slice of bytes to a Header struct
func bytesToHeader(buf []byte) (header Header, err error) {
	if int64(len(buf)) != conf.HashHeaderLength {
		err = storage.CorruptFile{Msg: fmt.Sprintf("header length %d, expected %d", len(buf), conf.HashHeaderLength)}
		return
	}

	header = Header{
		InternalHash: buf[hashAlgorithmOffset] == 1,
		BlockFactor:  int64(binary.LittleEndian.Uint32(buf[blockFactorOffset:])),
		RecordSize:   int64(binary.LittleEndian.Uint32(buf[recordSizeOffset:])),
		MainBuckets:  int64(binary.LittleEndian.Uint64(buf[mainBucketsOffset:])),
	}

	if header.BlockFactor <= 0 || header.RecordSize <= 0 || header.MainBuckets <= 0 {
		err = storage.CorruptFile{Msg: "header holds non positive parameters"}
	}

	return
}

// headerToBytes - Converts a Header struct to a slice of bytes
func headerToBytes(header Header) (buf []byte) {
	buf = make([]byte, conf.HashHeaderLength)

	if header.InternalHash {
		buf[hashAlgorithmOffset] = 1
	}

	binary.LittleEndian.PutUint32(buf[blockFactorOffset:], uint32(header.BlockFactor))
	binary.LittleEndian.PutUint32(buf[recordSizeOffset:], uint32(header.RecordSize))
	binary.LittleEndian.PutUint64(buf[mainBucketsOffset:], uint64(header.MainBuckets))

	return
}
