package block

import (
	"encoding/binary"
	"fmt"

	"github.com/gostonefire/fileorg/internal/conf"
	"github.com/gostonefire/fileorg/internal/model"
	"github.com/gostonefire/fileorg/record"
	"github.com/gostonefire/fileorg/storage"
)

// BytesToBlock - Converts block raw data to a Block struct.
// Only the first count slots are decoded, trailing slots are never interpreted as records.
func BytesToBlock[R any](buf []byte, address, blockFactor int64, codec record.Codec[R]) (block model.Block[R], err error) {
	recordSize := codec.RecordSize()
	expected := conf.BlockSize(blockFactor, recordSize)
	if int64(len(buf)) != expected {
		err = storage.CorruptFile{Msg: fmt.Sprintf("block at %d is %d bytes, expected %d", address, len(buf), expected)}
		return
	}

	count := int64(int32(binary.LittleEndian.Uint32(buf[conf.BlockCountOffset:])))
	if count < 0 || count > blockFactor {
		err = storage.CorruptFile{Msg: fmt.Sprintf("block at %d has record count %d outside 0..%d", address, count, blockFactor)}
		return
	}
	next := int64(binary.LittleEndian.Uint64(buf[conf.BlockNextOffset:]))

	block = model.NewBlock[R](address, next, blockFactor)

	var r R
	start := conf.BlockHeaderLength
	for i := int64(0); i < count; i++ {
		r, err = codec.Decode(buf[start : start+recordSize])
		if err != nil {
			err = storage.CorruptFile{Msg: fmt.Sprintf("slot %d of block at %d: %s", i, address, err)}
			return
		}
		block.Records = append(block.Records, r)
		start += recordSize
	}

	return
}

// BlockToBytes - Converts a Block struct to bytes, unused slots are zero filled
func BlockToBytes[R any](block model.Block[R], blockFactor int64, codec record.Codec[R]) (buf []byte, err error) {
	count := int64(len(block.Records))
	if count > blockFactor {
		err = fmt.Errorf("block holds %d records, block factor is %d", count, blockFactor)
		return
	}

	recordSize := codec.RecordSize()
	buf = make([]byte, conf.BlockSize(blockFactor, recordSize))
	binary.LittleEndian.PutUint32(buf[conf.BlockCountOffset:], uint32(int32(count)))
	binary.LittleEndian.PutUint64(buf[conf.BlockNextOffset:], uint64(block.Next))

	start := conf.BlockHeaderLength
	for _, r := range block.Records {
		_ = copy(buf[start:start+recordSize], codec.Encode(r))
		start += recordSize
	}

	return
}
