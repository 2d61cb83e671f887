package dsstore

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the public error categories this package
// returns. Callers branch on Kind with errors.As, never on error
// message text.
type Kind int

const (
	// InvalidMagic means the container prefix's magic bytes don't match.
	InvalidMagic Kind = iota
	// InvalidHeader means the 36-byte container prefix is otherwise malformed.
	InvalidHeader
	// OffsetMismatch means the header's duplicated allocator offset fields disagree.
	OffsetMismatch
	// InvalidBlockAddress means a decoded buddy address violates size/alignment rules.
	InvalidBlockAddress
	// InvalidBTreeHeader means the root metadata block is unparsable or violates its invariants.
	InvalidBTreeHeader
	// UnknownDataType means a value type code isn't in the codec table.
	UnknownDataType
	// InvalidUTF16String means a UTF-16BE region failed to decode.
	InvalidUTF16String
	// CorruptedFile covers any other structural violation.
	CorruptedFile
	// FileNotFound is an I/O boundary error.
	FileNotFound
	// ReadFailed is an I/O boundary error.
	ReadFailed
	// WriteFailed is an I/O boundary error.
	WriteFailed
	// PlistSerializationFailed means the injected property-list codec rejected input.
	PlistSerializationFailed
)

func (k Kind) String() string {
	switch k {
	case InvalidMagic:
		return "invalidMagic"
	case InvalidHeader:
		return "invalidHeader"
	case OffsetMismatch:
		return "offsetMismatch"
	case InvalidBlockAddress:
		return "invalidBlockAddress"
	case InvalidBTreeHeader:
		return "invalidBTreeHeader"
	case UnknownDataType:
		return "unknownDataType"
	case InvalidUTF16String:
		return "invalidUTF16String"
	case CorruptedFile:
		return "corruptedFile"
	case FileNotFound:
		return "fileNotFound"
	case ReadFailed:
		return "readFailed"
	case WriteFailed:
		return "writeFailed"
	case PlistSerializationFailed:
		return "plistSerializationFailed"
	default:
		return fmt.Sprintf("unknownKind(%d)", int(k))
	}
}

// StoreError is the concrete type behind every error this package returns
// at its public boundaries. It wraps an underlying cause (which may itself
// be a chain built with github.com/pkg/errors) behind a stable Kind.
type StoreError struct {
	Kind Kind
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *StoreError) Unwrap() error { return e.Err }

// newErr builds a StoreError of the given Kind whose cause is a new error
// carrying the formatted message, created via github.com/pkg/errors so
// the cause carries a stack trace.
func newErr(kind Kind, format string, args ...interface{}) *StoreError {
	return &StoreError{Kind: kind, Err: errors.Errorf(format, args...)}
}

func wrapErr(kind Kind, err error, format string, args ...interface{}) *StoreError {
	if err == nil {
		return newErr(kind, format, args...)
	}
	return &StoreError{Kind: kind, Err: errors.Wrapf(err, format, args...)}
}

// IsKind reports whether the first *StoreError found in err's chain has
// the given Kind. StoreErrors wrapped inside that one are not consulted.
func IsKind(err error, kind Kind) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
