package filter

import (
	"fmt"
)

// Type is a scanline filter type.
type Type uint8

// Filter types defined by PNG filter method 0.
const (
	None Type = iota
	Sub
	Up
	Average
	Paeth
)

// String returns the filter name.
func (t Type) String() string {
	switch t {
	case None:
		return "None"
	case Sub:
		return "Sub"
	case Up:
		return "Up"
	case Average:
		return "Average"
	case Paeth:
		return "Paeth"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Engine decodes the scanlines of one image.
type Engine struct {
	// pixelBytes is the distance to the corresponding byte of the previous
	// pixel, at least 1.
	pixelBytes int
	// rowBytes is the number of unfiltered bytes per scanline.
	rowBytes int
	// prev is the previously decoded row, all zeros before the first row.
	prev []byte
}

// NewEngine creates an Engine for an image with the given width, samples
// per pixel and bit depth.
func NewEngine(width, channels, bitDepth int) (*Engine, error) {
	if width <= 0 || channels <= 0 || bitDepth <= 0 {
		return nil, fmt.Errorf("%w: width=%d channels=%d bitDepth=%d", ErrInvalidGeometry, width, channels, bitDepth)
	}
	bitsPerPixel := channels * bitDepth
	rowBytes := (width*bitsPerPixel + 7) / 8
	return &Engine{
		pixelBytes: (bitsPerPixel + 7) / 8,
		rowBytes:   rowBytes,
		prev:       make([]byte, rowBytes),
	}, nil
}

// PixelBytes returns the byte distance used for the left neighbour.
func (e *Engine) PixelBytes() int { return e.pixelBytes }

// RowBytes returns the number of unfiltered bytes per scanline.
func (e *Engine) RowBytes() int { return e.rowBytes }

// Stride returns the size of a filtered scanline including its type byte.
func (e *Engine) Stride() int { return e.rowBytes + 1 }

// Reset clears the previous row so the engine can start a new pass.
func (e *Engine) Reset() {
	clear(e.prev)
}

// Decode reconstructs a filtered row in place and returns the unfiltered
// bytes, which alias row[1:]. Bytes beyond RowBytes pass through unchanged.
// The decoded row becomes the previous row for the next call.
func (e *Engine) Decode(row []byte) ([]byte, error) {
	if len(row) < e.Stride() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrShortRow, len(row), e.Stride())
	}
	ft := Type(row[0])
	cur := row[1:]
	line := cur[:e.rowBytes]
	bpp := e.pixelBytes

	switch ft {
	case None:
	case Sub:
		for i := bpp; i < len(line); i++ {
			line[i] += line[i-bpp]
		}
	case Up:
		for i := range line {
			line[i] += e.prev[i]
		}
	case Average:
		for i := range line {
			var a int
			if i >= bpp {
				a = int(line[i-bpp])
			}
			line[i] += byte((a + int(e.prev[i])) / 2)
		}
	case Paeth:
		for i := range line {
			var a, c byte
			if i >= bpp {
				a = line[i-bpp]
				c = e.prev[i-bpp]
			}
			line[i] += paeth(a, e.prev[i], c)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFilter, uint8(ft))
	}

	copy(e.prev, line)
	return cur, nil
}

// DecodeAll decodes consecutive filtered rows and returns the concatenated
// unfiltered bytes. A trailing partial row is an error.
func (e *Engine) DecodeAll(data []byte) ([]byte, error) {
	stride := e.Stride()
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte rows", ErrShortRow, len(data), stride)
	}
	out := make([]byte, 0, len(data)/stride*e.rowBytes)
	for off := 0; off < len(data); off += stride {
		line, err := e.Decode(data[off : off+stride])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", off/stride, err)
		}
		out = append(out, line...)
	}
	return out, nil
}

// paeth returns whichever of a, b, c is closest to a+b-c, preferring a, then b.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// EncodeNone prefixes raw with the None filter type byte.
func EncodeNone(raw []byte) []byte {
	out := make([]byte, len(raw)+1)
	out[0] = byte(None)
	copy(out[1:], raw)
	return out
}

// EncodeNoneRows splits raw into rowBytes-sized rows and prefixes each with
// the None filter type. A short final row is padded with zeros.
func EncodeNoneRows(raw []byte, rowBytes int) []byte {
	if rowBytes <= 0 {
		return nil
	}
	rows := (len(raw) + rowBytes - 1) / rowBytes
	out := make([]byte, rows*(rowBytes+1))
	for r := range rows {
		start := r * rowBytes
		end := min(start+rowBytes, len(raw))
		copy(out[r*(rowBytes+1)+1:], raw[start:end])
	}
	return out
}
