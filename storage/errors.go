package storage

// NoRecordFound - Custom error to inform that no record was found
type NoRecordFound struct {
	msg string
}

// Error - Used to notify that no record was found
func (E NoRecordFound) Error() string {
	if E.msg == "" {
		return "no record found"
	}
	return E.msg
}

// Is - Matches any NoRecordFound regardless of message
func (E NoRecordFound) Is(target error) bool {
	_, ok := target.(NoRecordFound)
	return ok
}

// CorruptFile - Custom error to inform that a block or a file could not be interpreted under the fixed layout
type CorruptFile struct {
	Msg string
}

// Error - Used to notify that a file is corrupt
func (E CorruptFile) Error() string {
	if E.Msg == "" {
		return "corrupt file"
	}
	return "corrupt file: " + E.Msg
}

// Is - Matches any CorruptFile regardless of message
func (E CorruptFile) Is(target error) bool {
	_, ok := target.(CorruptFile)
	return ok
}

// CorruptRecord - Custom error to inform that a slice of bytes could not be decoded into a record
type CorruptRecord struct {
	Msg string
}

// Error - Used to notify that a record is corrupt
func (E CorruptRecord) Error() string {
	if E.Msg == "" {
		return "corrupt record"
	}
	return "corrupt record: " + E.Msg
}

// Is - Matches any CorruptRecord regardless of message
func (E CorruptRecord) Is(target error) bool {
	_, ok := target.(CorruptRecord)
	return ok
}

// PreconditionFailed - Custom error to inform that an operation requires an initialization that is absent,
// for instance inserting into a file that was never built or using a file that has been closed.
type PreconditionFailed struct {
	Msg string
}

// Error - Used to notify that a precondition is not fulfilled
func (P PreconditionFailed) Error() string {
	if P.Msg == "" {
		return "precondition failed"
	}
	return "precondition failed: " + P.Msg
}

// Is - Matches any PreconditionFailed regardless of message
func (P PreconditionFailed) Is(target error) bool {
	_, ok := target.(PreconditionFailed)
	return ok
}

// AlreadyBuilt - Custom error to inform that a bulk build was attempted on a structure that already holds pages
type AlreadyBuilt struct {
	Msg string
}

// Error - Used to notify that the structure is already built
func (A AlreadyBuilt) Error() string {
	if A.Msg == "" {
		return "already built"
	}
	return "already built: " + A.Msg
}

// Is - Matches any AlreadyBuilt regardless of message
func (A AlreadyBuilt) Is(target error) bool {
	_, ok := target.(AlreadyBuilt)
	return ok
}
