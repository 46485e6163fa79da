package chunk

import (
	"errors"
	"fmt"
)

var (
	// ErrStructural is the base error for framing failures that abort a parse.
	ErrStructural = errors.New("structural error")

	// ErrValidation is the base error for a chunk whose payload is malformed.
	ErrValidation = errors.New("validation error")

	// ErrBadSignature is returned when the input does not start with the PNG signature.
	ErrBadSignature = errors.New("invalid PNG signature")

	// ErrLengthOverflow is returned when a declared chunk length exceeds 2^31-1.
	ErrLengthOverflow = errors.New("chunk length exceeds 2^31-1")

	// ErrImageTooLarge is returned when header dimensions describe more pixel
	// data than MaxImageBytes.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// StructuralError reports that the container framing could not be read.
// Offset is the byte position, relative to the first chunk, where the
// failing record starts.
type StructuralError struct {
	Offset int64
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structural error at offset %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("structural error at offset %d: %s", e.Offset, e.Reason)
}

// Unwrap returns the wrapped errors so errors.Is matches ErrStructural and the cause.
func (e *StructuralError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrStructural, e.Err}
	}
	return []error{ErrStructural}
}

// ValidationError reports a type-specific check that failed for one chunk.
type ValidationError struct {
	Type   Type
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(t Type, format string, args ...any) error {
	return &ValidationError{Type: t, Reason: fmt.Sprintf(format, args...)}
}

func wrongLength(t Type, got, want int) error {
	return invalid(t, "payload length %d, expected %d", got, want)
}
