package models

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a database-surfaced failure. Kinds are
// carried over the HTTP boundary as the ERROR header's value.
type Kind string

const (
	// KindBadKey marks a malformed phone number: not exactly 11 decimal
	// digits.
	KindBadKey Kind = "BadKey"

	// KindBadArg marks an out-of-range argument: L_ex/L_in outside
	// [1,9] or not summing to 10, a negative generate total, a base file
	// name too short for its extension, etc.
	KindBadArg Kind = "BadArg"

	// KindSequence marks a violated population precondition: generate
	// or load on a non-empty database, or save/clear/find/print on an
	// empty one.
	KindSequence Kind = "Sequence"

	// KindTimeout marks a bounded gate/counter wait that elapsed.
	KindTimeout Kind = "Timeout"

	// KindThreadLimit marks the process-wide worker budget being
	// exhausted before a request could reserve its slots.
	KindThreadLimit Kind = "ThreadLimit"

	// KindFileOpen marks a file that could not be opened for read/write.
	KindFileOpen Kind = "FileOpen"

	// KindFileRead marks an I/O fault while reading an open file.
	KindFileRead Kind = "FileRead"

	// KindFileWrite marks an I/O fault while writing an open file.
	KindFileWrite Kind = "FileWrite"

	// KindFileParse marks a line that could not be parsed into a record.
	KindFileParse Kind = "FileParse"

	// KindBadCorpus marks a corpus file unavailable or unparseable.
	KindBadCorpus Kind = "BadCorpus"

	// KindOutOfMemory marks an allocator failure.
	KindOutOfMemory Kind = "OutOfMemory"

	// KindUnknown is the catch-all for unclassified failures.
	KindUnknown Kind = "Unknown"
)

// Error is the typed failure surfaced by every public database operation.
// It always carries a Kind; File, for the file-related kinds, names the
// offending path.
type Error struct {
	Kind    Kind
	Message string
	File    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s (file %q)", e.Kind, e.Message, e.File)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an Error of the given kind with a formatted message.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewFileError builds a file-related Error (FileOpen/FileRead/FileWrite/
// FileParse) naming the offending file.
func NewFileError(kind Kind, file string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), File: file}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error,
// otherwise returns KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	// ErrBadKey is a stock BadKey error for malformed phone numbers.
	ErrBadKey = NewError(KindBadKey, "phone number must be 11 digits beginning with 8")

	// ErrAlreadyPopulated is returned by generate/load on a non-empty
	// database.
	ErrAlreadyPopulated = NewError(KindSequence, "database already populated")

	// ErrEmpty is returned by save/clear/find/print on an empty
	// database.
	ErrEmpty = NewError(KindSequence, "database is empty")
)
