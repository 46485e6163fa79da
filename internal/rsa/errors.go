package rsa

import (
	"errors"
	"fmt"
)

var (
	// ErrMessageTooLarge is returned when a block value is not below the modulus.
	ErrMessageTooLarge = errors.New("block value out of range for modulus")

	// ErrInvalidKeySize is returned for key sizes that are too small or not a
	// multiple of 16 bits.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrKeyTooSmall is returned when a modulus cannot hold a one-byte block.
	ErrKeyTooSmall = errors.New("modulus too small")

	// ErrNoInverse is returned when a modular inverse does not exist.
	ErrNoInverse = errors.New("no modular inverse")

	// ErrMissingIV is returned when CBC ciphertext is shorter than one block.
	ErrMissingIV = errors.New("ciphertext too short for initialization vector")

	// ErrNilKey is returned when a key or one of its components is missing.
	ErrNilKey = errors.New("key is nil or incomplete")
)

// RangeError reports the index of a block whose integer value was out of
// range during a transform.
type RangeError struct {
	Block int
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Block, ErrMessageTooLarge)
}

// Unwrap returns ErrMessageTooLarge.
func (e *RangeError) Unwrap() error {
	return ErrMessageTooLarge
}
