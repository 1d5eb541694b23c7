package cache

import (
	"errors"
	"fmt"
)

// ErrorKind classifies cache failures.
type ErrorKind int

const (
	// IoFailure: the snapshot (or another required path) could not be read or written.
	IoFailure ErrorKind = iota + 1
	// CorruptSnapshot: the snapshot could not be decoded.
	CorruptSnapshot
	// SerializationFailure: the index could not be encoded.
	SerializationFailure
	// VolumeWalkPartial: some entries were unreadable and skipped. Informational.
	VolumeWalkPartial
)

// Sentinels for errors.Is matching against *Error.
var (
	ErrIoFailure            = errors.New("i/o failure")
	ErrCorruptSnapshot      = errors.New("corrupt snapshot")
	ErrSerializationFailure = errors.New("snapshot serialization failure")
	ErrVolumeWalkPartial    = errors.New("volume walk partial")
)

func (k ErrorKind) String() string {
	switch k {
	case IoFailure:
		return "IoFailure"
	case CorruptSnapshot:
		return "CorruptSnapshot"
	case SerializationFailure:
		return "SerializationFailure"
	case VolumeWalkPartial:
		return "VolumeWalkPartial"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case IoFailure:
		return ErrIoFailure
	case CorruptSnapshot:
		return ErrCorruptSnapshot
	case SerializationFailure:
		return ErrSerializationFailure
	case VolumeWalkPartial:
		return ErrVolumeWalkPartial
	default:
		return nil
	}
}

// Error is a classified cache failure.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

// NewError builds an *Error of the given kind.
func NewError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
