package model

import (
	"fmt"
	"strings"
)

// Severity represents the level of a log entry emitted by the core.
// Presenters decide how each level is rendered.
type Severity int

const (
	// SeverityInfo marks routine progress, such as one parsed chunk.
	SeverityInfo Severity = iota

	// SeverityWarning marks a recoverable problem: a chunk that failed
	// validation, a checksum mismatch, a duplicated single-instance chunk.
	// Parsing continues after a warning.
	SeverityWarning

	// SeverityError marks a failure that ends the current operation, such as
	// a truncated chunk record.
	SeverityError
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a case-insensitive level name into a Severity.
// "warn" is accepted as an alias for "warning".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler so severities serialize as
// their names in JSON reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
