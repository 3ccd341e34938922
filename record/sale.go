package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gostonefire/fileorg/storage"
)

// Sale layout offsets and widths
const (
	saleIDOffset        int64 = 0
	saleProductOffset   int64 = 4
	saleProductLength   int64 = 30
	saleQuantityOffset  int64 = 34
	saleUnitPriceOffset int64 = 38
	saleDateOffset      int64 = 42
	saleDateLength      int64 = 10

	// SaleRecordSize - Number of bytes a Sale occupies on disk
	SaleRecordSize int64 = 52
)

// Sale - Record stored in the static hash file deployment
//   - ID is the unique key
//   - Product is a text field of 30 bytes
//   - Quantity is the number of units sold
//   - UnitPrice is a 32 bit float
//   - Date is a text field of 10 bytes, typically yyyy-mm-dd
type Sale struct {
	ID        int32
	Product   string
	Quantity  int32
	UnitPrice float32
	Date      string
}

// Normalized - Returns the sale as it reads back after a round trip through SaleCodec
func (S Sale) Normalized() Sale {
	S.Product = normalizeText(S.Product, int(saleProductLength))
	S.Date = normalizeText(S.Date, int(saleDateLength))
	return S
}

// String - Returns a one line representation of the sale
func (S Sale) String() string {
	return fmt.Sprintf("%d|%s|%d|%g|%s", S.ID, S.Product, S.Quantity, S.UnitPrice, S.Date)
}

// SaleCodec - Codec for Sale records
type SaleCodec struct{}

// RecordSize - Returns SaleRecordSize
func (SaleCodec) RecordSize() int64 {
	return SaleRecordSize
}

// Key - Returns the sale id
func (SaleCodec) Key(r Sale) int32 {
	return r.ID
}

// Encode - Encodes a Sale to bytes
func (SaleCodec) Encode(r Sale) []byte {
	buf := make([]byte, SaleRecordSize)
	binary.LittleEndian.PutUint32(buf[saleIDOffset:], uint32(r.ID))
	putText(buf[saleProductOffset:saleProductOffset+saleProductLength], r.Product)
	binary.LittleEndian.PutUint32(buf[saleQuantityOffset:], uint32(r.Quantity))
	binary.LittleEndian.PutUint32(buf[saleUnitPriceOffset:], math.Float32bits(r.UnitPrice))
	putText(buf[saleDateOffset:saleDateOffset+saleDateLength], r.Date)

	return buf
}

// Decode - Decodes bytes to a Sale
func (SaleCodec) Decode(buf []byte) (r Sale, err error) {
	if int64(len(buf)) != SaleRecordSize {
		err = storage.CorruptRecord{Msg: fmt.Sprintf("sale record is %d bytes, expected %d", len(buf), SaleRecordSize)}
		return
	}

	r = Sale{
		ID:        int32(binary.LittleEndian.Uint32(buf[saleIDOffset:])),
		Product:   getText(buf[saleProductOffset : saleProductOffset+saleProductLength]),
		Quantity:  int32(binary.LittleEndian.Uint32(buf[saleQuantityOffset:])),
		UnitPrice: math.Float32frombits(binary.LittleEndian.Uint32(buf[saleUnitPriceOffset:])),
		Date:      getText(buf[saleDateOffset : saleDateOffset+saleDateLength]),
	}

	return
}
