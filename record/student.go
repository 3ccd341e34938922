package record

import (
	"encoding/binary"
	"fmt"

	"github.com/gostonefire/fileorg/storage"
)

// Student layout offsets and widths
const (
	studentCodeOffset      int64 = 0
	studentFirstNameOffset int64 = 4
	studentFirstNameLength int64 = 20
	studentLastNameOffset  int64 = 24
	studentLastNameLength  int64 = 20
	studentCycleOffset     int64 = 44

	// StudentRecordSize - Number of bytes a Student occupies on disk
	StudentRecordSize int64 = 48
)

// Student - Record stored in the indexed sequential file deployment
//   - Code is the unique key
//   - FirstName and LastName are fixed width text fields of 20 bytes each
//   - Cycle is the study cycle
type Student struct {
	Code      int32
	FirstName string
	LastName  string
	Cycle     int32
}

// Normalized - Returns the student as it reads back after a round trip through StudentCodec
func (S Student) Normalized() Student {
	S.FirstName = normalizeText(S.FirstName, int(studentFirstNameLength))
	S.LastName = normalizeText(S.LastName, int(studentLastNameLength))
	return S
}

// String - Returns a one line representation of the student
func (S Student) String() string {
	return fmt.Sprintf("%d|%s|%s|%d", S.Code, S.FirstName, S.LastName, S.Cycle)
}

// StudentCodec - Codec for Student records
type StudentCodec struct{}

// RecordSize - Returns StudentRecordSize
func (StudentCodec) RecordSize() int64 {
	return StudentRecordSize
}

// Key - Returns the student code
func (StudentCodec) Key(r Student) int32 {
	return r.Code
}

// Encode - Encodes a Student to bytes
func (StudentCodec) Encode(r Student) []byte {
	buf := make([]byte, StudentRecordSize)
	binary.LittleEndian.PutUint32(buf[studentCodeOffset:], uint32(r.Code))
	putText(buf[studentFirstNameOffset:studentFirstNameOffset+studentFirstNameLength], r.FirstName)
	putText(buf[studentLastNameOffset:studentLastNameOffset+studentLastNameLength], r.LastName)
	binary.LittleEndian.PutUint32(buf[studentCycleOffset:], uint32(r.Cycle))

	return buf
}

// Decode - Decodes bytes to a Student
func (StudentCodec) Decode(buf []byte) (r Student, err error) {
	if int64(len(buf)) != StudentRecordSize {
		err = storage.CorruptRecord{Msg: fmt.Sprintf("student record is %d bytes, expected %d", len(buf), StudentRecordSize)}
		return
	}

	r = Student{
		Code:      int32(binary.LittleEndian.Uint32(buf[studentCodeOffset:])),
		FirstName: getText(buf[studentFirstNameOffset : studentFirstNameOffset+studentFirstNameLength]),
		LastName:  getText(buf[studentLastNameOffset : studentLastNameOffset+studentLastNameLength]),
		Cycle:     int32(binary.LittleEndian.Uint32(buf[studentCycleOffset:])),
	}

	return
}
