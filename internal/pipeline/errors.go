package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingHeader is returned when no valid IHDR chunk was parsed.
	ErrMissingHeader = errors.New("missing IHDR chunk")

	// ErrMissingEnd is returned when no IEND chunk was parsed.
	ErrMissingEnd = errors.New("missing IEND chunk")

	// ErrNoImageData is returned when no IDAT chunk was parsed.
	ErrNoImageData = errors.New("no IDAT chunk")

	// ErrUnsupportedInterlace is returned when encrypting or decrypting an
	// Adam7-interlaced image.
	ErrUnsupportedInterlace = errors.New("interlaced images are not supported")

	// ErrTruncatedImageData is returned when the inflated image data does not
	// hold a single scanline of the width declared by the header.
	ErrTruncatedImageData = errors.New("image data shorter than one scanline")

	// ErrCiphertextTooShort is returned when decrypted image data cannot
	// cover the size declared by the header.
	ErrCiphertextTooShort = errors.New("image data too short for declared size")

	// ErrNoKey is returned when decrypting without a key.
	ErrNoKey = errors.New("decryption requires a key")
)

// InvariantError reports that the chunk sequence cannot be processed.
// It wraps one of the sentinel errors above, or chunk.ErrImageTooLarge.
type InvariantError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Reason)
}

// Unwrap returns the wrapped sentinel.
func (e *InvariantError) Unwrap() error {
	return e.Err
}

func invariant(err error, format string, args ...any) error {
	return &InvariantError{Err: err, Reason: fmt.Sprintf(format, args...)}
}
