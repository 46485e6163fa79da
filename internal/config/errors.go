package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoInput is returned when no input image is specified.
	ErrNoInput = errors.New("no input specified: provide at least one PNG file")

	// ErrInvalidKeyBits is returned when the key size is too small or not a
	// multiple of 16.
	ErrInvalidKeyBits = errors.New("invalid key size: must be a multiple of 16 and at least 32 bits")

	// ErrInvalidMode is returned for a mode other than ecb or cbc.
	ErrInvalidMode = errors.New("invalid mode: must be ecb or cbc")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidCompressionLevel is returned for a level outside -1..9.
	ErrInvalidCompressionLevel = errors.New("invalid compression level: must be between -1 and 9")

	// ErrInvalidProgressThreshold is returned for a threshold outside [0, 1].
	ErrInvalidProgressThreshold = errors.New("invalid progress threshold: must be between 0 and 1")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrUnknownProfile is returned when a requested profile is not defined.
	ErrUnknownProfile = errors.New("unknown profile")
)
