package chunk

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// ColorType is the IHDR color type field.
type ColorType uint8

// Color types defined by PNG.
const (
	ColorGrayscale      ColorType = 0
	ColorTruecolor      ColorType = 2
	ColorPaletted       ColorType = 3
	ColorGrayscaleAlpha ColorType = 4
	ColorTruecolorAlpha ColorType = 6
)

// Channels returns the number of samples per pixel.
func (c ColorType) Channels() int {
	switch c {
	case ColorGrayscale, ColorPaletted:
		return 1
	case ColorGrayscaleAlpha:
		return 2
	case ColorTruecolor:
		return 3
	case ColorTruecolorAlpha:
		return 4
	default:
		return 0
	}
}

// AllowedBitDepths returns the bit depths PNG permits for this color type.
func (c ColorType) AllowedBitDepths() []uint8 {
	switch c {
	case ColorGrayscale:
		return []uint8{1, 2, 4, 8, 16}
	case ColorPaletted:
		return []uint8{1, 2, 4, 8}
	case ColorTruecolor, ColorGrayscaleAlpha, ColorTruecolorAlpha:
		return []uint8{8, 16}
	default:
		return nil
	}
}

// String returns the color type name.
func (c ColorType) String() string {
	switch c {
	case ColorGrayscale:
		return "grayscale"
	case ColorTruecolor:
		return "truecolor"
	case ColorPaletted:
		return "paletted"
	case ColorGrayscaleAlpha:
		return "grayscale+alpha"
	case ColorTruecolorAlpha:
		return "truecolor+alpha"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Interlace methods.
const (
	InterlaceNone  uint8 = 0
	InterlaceAdam7 uint8 = 1
)

// headerLength is the fixed IHDR payload size.
const headerLength = 13

// Header is the decoded IHDR chunk.
type Header struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         ColorType
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

func (h *Header) decode(t Type, data []byte) error {
	if len(data) != headerLength {
		return wrongLength(t, len(data), headerLength)
	}
	h.Width = binary.BigEndian.Uint32(data[0:4])
	h.Height = binary.BigEndian.Uint32(data[4:8])
	h.BitDepth = data[8]
	h.ColorType = ColorType(data[9])
	h.CompressionMethod = data[10]
	h.FilterMethod = data[11]
	h.InterlaceMethod = data[12]
	return nil
}

// Validate checks dimensions, the color type and bit depth pairing and the
// method fields.
func (h *Header) Validate() error {
	if h.Width == 0 || h.Width > MaxLength {
		return invalid(TypeIHDR, "width %d out of range", h.Width)
	}
	if h.Height == 0 || h.Height > MaxLength {
		return invalid(TypeIHDR, "height %d out of range", h.Height)
	}
	allowed := h.ColorType.AllowedBitDepths()
	if allowed == nil {
		return invalid(TypeIHDR, "unknown color type %d", uint8(h.ColorType))
	}
	if !slices.Contains(allowed, h.BitDepth) {
		return invalid(TypeIHDR, "bit depth %d not allowed for %s", h.BitDepth, h.ColorType)
	}
	if h.CompressionMethod != 0 {
		return invalid(TypeIHDR, "unknown compression method %d", h.CompressionMethod)
	}
	if h.FilterMethod != 0 {
		return invalid(TypeIHDR, "unknown filter method %d", h.FilterMethod)
	}
	if h.InterlaceMethod != InterlaceNone && h.InterlaceMethod != InterlaceAdam7 {
		return invalid(TypeIHDR, "unknown interlace method %d", h.InterlaceMethod)
	}
	return nil
}

// Describe returns a one-line summary.
func (h *Header) Describe() string {
	interlace := "not interlaced"
	if h.InterlaceMethod == InterlaceAdam7 {
		interlace = "Adam7 interlaced"
	}
	return fmt.Sprintf("%dx%d, %d-bit %s, %s", h.Width, h.Height, h.BitDepth, h.ColorType, interlace)
}

// Bytes encodes the header into its 13-byte payload.
func (h *Header) Bytes() []byte {
	data := make([]byte, headerLength)
	binary.BigEndian.PutUint32(data[0:4], h.Width)
	binary.BigEndian.PutUint32(data[4:8], h.Height)
	data[8] = h.BitDepth
	data[9] = byte(h.ColorType)
	data[10] = h.CompressionMethod
	data[11] = h.FilterMethod
	data[12] = h.InterlaceMethod
	return data
}

// BitsPerPixel returns channels times bit depth.
func (h *Header) BitsPerPixel() int {
	return h.ColorType.Channels() * int(h.BitDepth)
}

// MaxImageBytes bounds the unfiltered size of an image held in memory.
const MaxImageBytes = 1<<31 - 1

// RowBytes returns the number of unfiltered bytes in one scanline.
// It fails with ErrImageTooLarge when a row exceeds MaxImageBytes.
func (h *Header) RowBytes() (int, error) {
	n := (uint64(h.Width)*uint64(h.BitsPerPixel()) + 7) / 8
	if n > MaxImageBytes {
		return 0, fmt.Errorf("%w: %d bytes per row", ErrImageTooLarge, n)
	}
	return int(n), nil
}

// ImageBytes returns the number of unfiltered pixel bytes of a
// non-interlaced image, checked against MaxImageBytes.
func (h *Header) ImageBytes() (int, error) {
	row, err := h.RowBytes()
	if err != nil {
		return 0, err
	}
	n := uint64(row) * uint64(h.Height)
	if n > MaxImageBytes {
		return 0, fmt.Errorf("%w: %dx%d needs %d bytes", ErrImageTooLarge, h.Width, h.Height, n)
	}
	return int(n), nil
}
