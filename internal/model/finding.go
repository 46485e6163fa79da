package model

import (
	"fmt"
	"strings"
)

// Risk grades how much a finding reveals about who made an image, or
// where and when.
type Risk int

const (
	// RiskLow marks context such as editing software or a timestamp.
	RiskLow Risk = iota

	// RiskMedium marks device details such as camera make and model.
	RiskMedium

	// RiskHigh marks identity details such as an author or a device serial
	// number.
	RiskHigh

	// RiskCritical marks a location or secret material.
	RiskCritical
)

// String returns the risk name.
func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseRisk converts a case-insensitive risk name into a Risk.
func ParseRisk(s string) (Risk, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	case "critical":
		return RiskCritical, nil
	default:
		return RiskLow, fmt.Errorf("unknown risk %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Risk) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Risk) UnmarshalText(text []byte) error {
	parsed, err := ParseRisk(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Finding is a metadata value that can identify the author of an image or
// the circumstances it was made in.
type Finding struct {
	// Type is a stable identifier such as "exif_gps".
	Type string `json:"type"`

	// Title is a short human-readable name.
	Title string `json:"title"`

	// Description explains what the value reveals.
	Description string `json:"description"`

	Risk Risk `json:"risk"`

	// Value is the offending key and value.
	Value string `json:"value"`

	// Location names the chunk holding the value, such as "tEXt #3".
	Location string `json:"location"`

	// Removable is true when anonymize drops the chunk holding the value.
	Removable bool `json:"removable"`
}
