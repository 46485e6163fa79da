package chunk

import (
	"encoding/binary"
	"fmt"
	"time"
)

// PhysicalDimensions is the pHYs chunk.
type PhysicalDimensions struct {
	PixelsPerUnitX uint32
	PixelsPerUnitY uint32
	// Unit is 0 for an aspect ratio only, 1 for metres.
	Unit uint8
}

func (p *PhysicalDimensions) decode(t Type, data []byte) error {
	if len(data) != 9 {
		return wrongLength(t, len(data), 9)
	}
	p.PixelsPerUnitX = binary.BigEndian.Uint32(data[0:4])
	p.PixelsPerUnitY = binary.BigEndian.Uint32(data[4:8])
	p.Unit = data[8]
	return nil
}

// Validate checks the unit specifier.
func (p *PhysicalDimensions) Validate() error {
	if p.Unit > 1 {
		return invalid(TypePHYS, "unknown unit specifier %d", p.Unit)
	}
	return nil
}

// Describe returns a one-line summary.
func (p *PhysicalDimensions) Describe() string {
	if p.Unit == 1 {
		return fmt.Sprintf("%dx%d pixels per metre (%.0fx%.0f dpi)",
			p.PixelsPerUnitX, p.PixelsPerUnitY,
			float64(p.PixelsPerUnitX)*0.0254, float64(p.PixelsPerUnitY)*0.0254)
	}
	return fmt.Sprintf("pixel aspect ratio %d:%d", p.PixelsPerUnitX, p.PixelsPerUnitY)
}

// Timestamp is the tIME chunk.
type Timestamp struct {
	Year                 uint16
	Month, Day           uint8
	Hour, Minute, Second uint8
}

func (ts *Timestamp) decode(t Type, data []byte) error {
	if len(data) != 7 {
		return wrongLength(t, len(data), 7)
	}
	ts.Year = binary.BigEndian.Uint16(data[0:2])
	ts.Month, ts.Day = data[2], data[3]
	ts.Hour, ts.Minute, ts.Second = data[4], data[5], data[6]
	return nil
}

// Validate checks every field range. Second 60 is allowed for leap seconds.
func (ts *Timestamp) Validate() error {
	switch {
	case ts.Month < 1 || ts.Month > 12:
		return invalid(TypeTIME, "month %d out of range", ts.Month)
	case ts.Day < 1 || ts.Day > 31:
		return invalid(TypeTIME, "day %d out of range", ts.Day)
	case ts.Hour > 23:
		return invalid(TypeTIME, "hour %d out of range", ts.Hour)
	case ts.Minute > 59:
		return invalid(TypeTIME, "minute %d out of range", ts.Minute)
	case ts.Second > 60:
		return invalid(TypeTIME, "second %d out of range", ts.Second)
	}
	return nil
}

// Time converts the timestamp to UTC time.
func (ts *Timestamp) Time() time.Time {
	return time.Date(int(ts.Year), time.Month(ts.Month), int(ts.Day),
		int(ts.Hour), int(ts.Minute), int(ts.Second), 0, time.UTC)
}

// Describe returns a one-line summary.
func (ts *Timestamp) Describe() string {
	return "last modified " + ts.Time().Format(time.RFC3339)
}

// Offset is the oFFs chunk.
type Offset struct {
	X, Y int32
	// Unit is 0 for pixels, 1 for micrometres.
	Unit uint8
}

func (o *Offset) decode(t Type, data []byte) error {
	if len(data) != 9 {
		return wrongLength(t, len(data), 9)
	}
	o.X = int32(binary.BigEndian.Uint32(data[0:4])) //nolint:gosec // two's complement field
	o.Y = int32(binary.BigEndian.Uint32(data[4:8])) //nolint:gosec // two's complement field
	o.Unit = data[8]
	return nil
}

// Validate checks the unit specifier.
func (o *Offset) Validate() error {
	if o.Unit > 1 {
		return invalid(TypeOFFS, "unknown unit specifier %d", o.Unit)
	}
	return nil
}

// Describe returns a one-line summary.
func (o *Offset) Describe() string {
	unit := "pixels"
	if o.Unit == 1 {
		unit = "micrometres"
	}
	return fmt.Sprintf("offset (%d, %d) %s", o.X, o.Y, unit)
}

// Stereo is the sTER chunk.
type Stereo struct {
	// Mode is 0 for cross-fuse and 1 for diverging-fuse layout.
	Mode uint8
}

func (s *Stereo) decode(t Type, data []byte) error {
	if len(data) != 1 {
		return wrongLength(t, len(data), 1)
	}
	s.Mode = data[0]
	return nil
}

// Validate checks the layout mode.
func (s *Stereo) Validate() error {
	if s.Mode > 1 {
		return invalid(TypeSTER, "unknown stereo mode %d", s.Mode)
	}
	return nil
}

// Describe returns a one-line summary.
func (s *Stereo) Describe() string {
	if s.Mode == 0 {
		return "stereo pair, cross-fuse layout"
	}
	return "stereo pair, diverging-fuse layout"
}
