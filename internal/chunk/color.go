package chunk

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Chromaticity is the cHRM chunk. Values are scaled by 100000.
type Chromaticity struct {
	WhiteX, WhiteY uint32
	RedX, RedY     uint32
	GreenX, GreenY uint32
	BlueX, BlueY   uint32
}

func (c *Chromaticity) decode(t Type, data []byte) error {
	if len(data) != 32 {
		return wrongLength(t, len(data), 32)
	}
	v := make([]uint32, 8)
	for i := range v {
		v[i] = binary.BigEndian.Uint32(data[i*4 : i*4+4])
	}
	c.WhiteX, c.WhiteY = v[0], v[1]
	c.RedX, c.RedY = v[2], v[3]
	c.GreenX, c.GreenY = v[4], v[5]
	c.BlueX, c.BlueY = v[6], v[7]
	return nil
}

// Validate always succeeds once the length is right.
func (c *Chromaticity) Validate() error { return nil }

// Describe returns a one-line summary.
func (c *Chromaticity) Describe() string {
	f := func(v uint32) float64 { return float64(v) / 100000 }
	return fmt.Sprintf("white (%.5f, %.5f) red (%.5f, %.5f) green (%.5f, %.5f) blue (%.5f, %.5f)",
		f(c.WhiteX), f(c.WhiteY), f(c.RedX), f(c.RedY), f(c.GreenX), f(c.GreenY), f(c.BlueX), f(c.BlueY))
}

// RenderingIntent is the sRGB rendering intent.
type RenderingIntent uint8

// Rendering intents.
const (
	IntentPerceptual RenderingIntent = iota
	IntentRelativeColorimetric
	IntentSaturation
	IntentAbsoluteColorimetric
)

// String returns the intent name.
func (r RenderingIntent) String() string {
	switch r {
	case IntentPerceptual:
		return "perceptual"
	case IntentRelativeColorimetric:
		return "relative colorimetric"
	case IntentSaturation:
		return "saturation"
	case IntentAbsoluteColorimetric:
		return "absolute colorimetric"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// StandardRGB is the sRGB chunk.
type StandardRGB struct {
	Intent RenderingIntent
}

func (s *StandardRGB) decode(t Type, data []byte) error {
	if len(data) != 1 {
		return wrongLength(t, len(data), 1)
	}
	s.Intent = RenderingIntent(data[0])
	return nil
}

// Validate checks the rendering intent.
func (s *StandardRGB) Validate() error {
	if s.Intent > IntentAbsoluteColorimetric {
		return invalid(TypeSRGB, "unknown rendering intent %d", uint8(s.Intent))
	}
	return nil
}

// Describe returns a one-line summary.
func (s *StandardRGB) Describe() string {
	return "sRGB, " + s.Intent.String() + " intent"
}

// Gamma is the gAMA chunk. Gamma is scaled by 100000.
type Gamma struct {
	Gamma uint32
}

func (g *Gamma) decode(t Type, data []byte) error {
	if len(data) != 4 {
		return wrongLength(t, len(data), 4)
	}
	g.Gamma = binary.BigEndian.Uint32(data)
	return nil
}

// Validate rejects a zero gamma.
func (g *Gamma) Validate() error {
	if g.Gamma == 0 {
		return invalid(TypeGAMA, "gamma is zero")
	}
	return nil
}

// Describe returns a one-line summary.
func (g *Gamma) Describe() string {
	return fmt.Sprintf("gamma %.5f", float64(g.Gamma)/100000)
}

// SignificantBits is the sBIT chunk: one significant bit count per channel
// of the color type, so 1 (gray, paletted), 2 (gray+alpha), 3 (truecolor)
// or 4 (truecolor+alpha) bytes.
type SignificantBits struct {
	Bits []uint8
}

func (s *SignificantBits) decode(t Type, data []byte) error {
	if len(data) == 0 || len(data) > 4 {
		return invalid(t, "payload length %d, expected 1 to 4", len(data))
	}
	s.Bits = append(s.Bits[:0], data...)
	return nil
}

// Validate requires 1 to 16 significant bits per channel.
func (s *SignificantBits) Validate() error {
	for i, b := range s.Bits {
		if b == 0 || b > 16 {
			return invalid(TypeSBIT, "channel %d: %d significant bits out of range", i, b)
		}
	}
	return nil
}

// Describe returns a one-line summary.
func (s *SignificantBits) Describe() string {
	parts := make([]string, len(s.Bits))
	for i, b := range s.Bits {
		parts[i] = strconv.Itoa(int(b))
	}
	return "significant bits " + strings.Join(parts, "/")
}
