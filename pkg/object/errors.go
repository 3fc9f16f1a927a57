package object

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("object not found")
	ErrSizeMismatch   = errors.New("object size mismatch")
	ErrUnknownKind    = errors.New("unknown object kind")
	ErrCorruptPayload = errors.New("corrupt object payload")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidHash    = errors.New("invalid object hash")
	ErrKindMismatch   = errors.New("object kind mismatch")
)

// DecodeError reports a grammar violation in an object payload. It matches
// ErrCorruptPayload under errors.Is.
type DecodeError struct {
	Kind   Kind
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("decode %s at offset %d: %s", e.Kind, e.Offset, e.Reason)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrCorruptPayload
}

func decodeErrorf(kind Kind, offset int, format string, args ...any) error {
	return &DecodeError{Kind: kind, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

func invalidRecordf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidRecord}, args...)...)
}
