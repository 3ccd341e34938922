package record

// Codec - Interface that binds a record type to its fixed width binary layout.
// Every record handled by the engines is encoded to exactly RecordSize bytes, the first field being the key.
type Codec[R any] interface {
	// RecordSize - Returns the number of bytes a record occupies on disk
	RecordSize() int64

	// Key - Returns the integer key of a record
	Key(r R) int32

	// Encode - Encodes a record into a new slice of RecordSize bytes.
	// Text longer than its field width is truncated, shorter text is padded with spaces.
	Encode(r R) []byte

	// Decode - Decodes RecordSize bytes into a record, trailing padding is stripped from text fields.
	// A slice of any other length results in an error of type storage.CorruptRecord.
	Decode(buf []byte) (r R, err error)
}
