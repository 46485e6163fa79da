package database

import "errors"

var (
	// ErrKeyNotFound is returned when no stored key matches an id.
	ErrKeyNotFound = errors.New("key not found")

	// ErrAmbiguousKey is returned when an id prefix matches several keys.
	ErrAmbiguousKey = errors.New("key id prefix matches several keys")

	// ErrNotFound is returned when a database file does not exist and
	// creation was not requested.
	ErrNotFound = errors.New("database not found")
)
