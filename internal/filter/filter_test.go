package filter

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"testing"

	"github.com/nao1215/pngcipher/internal/chunk"
	"github.com/nao1215/pngcipher/internal/deflate"
	"github.com/nao1215/pngcipher/internal/model"
)

// encodeAs applies filter ft to row given the previous unfiltered row.
func encodeAs(ft Type, row, prev []byte, bpp int) []byte {
	out := make([]byte, len(row)+1)
	out[0] = byte(ft)
	for i := range row {
		var a, c byte
		if i >= bpp {
			a = row[i-bpp]
			c = prev[i-bpp]
		}
		b := prev[i]
		switch ft {
		case None:
			out[i+1] = row[i]
		case Sub:
			out[i+1] = row[i] - a
		case Up:
			out[i+1] = row[i] - b
		case Average:
			out[i+1] = row[i] - byte((int(a)+int(b))/2)
		case Paeth:
			out[i+1] = row[i] - paeth(a, b, c)
		}
	}
	return out
}

func randomBytes(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.IntN(256))
	}
	return b
}

func TestDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	geometries := []struct {
		name     string
		width    int
		channels int
		depth    int
	}{
		{"gray 1-bit", 13, 1, 1},
		{"gray 8-bit", 7, 1, 8},
		{"gray alpha 16-bit", 5, 2, 16},
		{"truecolor 8-bit", 9, 3, 8},
		{"truecolor alpha 8-bit", 4, 4, 8},
		{"truecolor alpha 16-bit", 3, 4, 16},
	}

	for _, g := range geometries {
		for ft := None; ft <= Paeth; ft++ {
			t.Run(g.name+"/"+ft.String(), func(t *testing.T) {
				t.Parallel()
				r := rand.New(rand.NewPCG(uint64(g.width), uint64(ft)))

				for range 20 {
					e, err := NewEngine(g.width, g.channels, g.depth)
					if err != nil {
						t.Fatalf("NewEngine() error = %v", err)
					}
					prev := randomBytes(r, e.RowBytes())
					row := randomBytes(r, e.RowBytes())
					copy(e.prev, prev)

					got, err := e.Decode(encodeAs(ft, row, prev, e.PixelBytes()))
					if err != nil {
						t.Fatalf("Decode() error = %v", err)
					}
					if !bytes.Equal(got, row) {
						t.Fatalf("Decode() = %v, want %v", got, row)
					}
					if !bytes.Equal(e.prev, row) {
						t.Fatal("previous row was not updated")
					}
				}
			})
		}
	}
}

func TestDecode_FirstRowUsesZeroPrevious(t *testing.T) {
	t.Parallel()

	e, err := NewEngine(3, 1, 8)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	got, err := e.Decode([]byte{byte(Up), 10, 20, 30})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(got, []byte{10, 20, 30}) {
		t.Errorf("got %v", got)
	}

	got, err = e.Decode([]byte{byte(Average), 2, 2, 2})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	// a=0,b=10 -> 5+2; a=7,b=20 -> 13+2; a=15,b=30 -> 22+2
	if !bytes.Equal(got, []byte{7, 15, 24}) {
		t.Errorf("got %v", got)
	}
}

func TestDecode_TrailingBytesPassThrough(t *testing.T) {
	t.Parallel()

	e, _ := NewEngine(2, 1, 8)
	got, err := e.Decode([]byte{byte(Sub), 1, 1, 9, 9})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 9, 9}) {
		t.Errorf("got %v", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	e, _ := NewEngine(4, 1, 8)
	if _, err := e.Decode([]byte{5, 0, 0, 0, 0}); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
	if _, err := e.Decode([]byte{0, 1, 2}); !errors.Is(err, ErrShortRow) {
		t.Errorf("expected ErrShortRow, got %v", err)
	}
	if _, err := e.DecodeAll(make([]byte, 7)); !errors.Is(err, ErrShortRow) {
		t.Errorf("expected ErrShortRow for a partial row, got %v", err)
	}
	if _, err := NewEngine(0, 1, 8); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestPaeth_TieOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b, c byte
		want    byte
	}{
		{a: 10, b: 10, c: 10, want: 10}, // all equal
		{a: 5, b: 5, c: 0, want: 5},     // p=10, pa=pb=5 -> a
		{a: 0, b: 9, c: 9, want: 0},     // p=0 -> a
		{a: 9, b: 0, c: 9, want: 0},     // p=0, pa=9, pb=0 -> b
		{a: 1, b: 2, c: 3, want: 1},     // p=0, pa=1, pb=2, pc=3 -> a
		{a: 3, b: 8, c: 5, want: 5},     // p=6, pa=3, pb=2, pc=1 -> c
	}

	for _, tt := range tests {
		if got := paeth(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paeth(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestEncodeNone(t *testing.T) {
	t.Parallel()

	if got := EncodeNone([]byte{1, 2}); !bytes.Equal(got, []byte{0, 1, 2}) {
		t.Errorf("EncodeNone() = %v", got)
	}

	got := EncodeNoneRows([]byte{1, 2, 3, 4, 5}, 2)
	want := []byte{0, 1, 2, 0, 3, 4, 0, 5, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeNoneRows() = %v, want %v", got, want)
	}

	e, _ := NewEngine(2, 1, 8)
	decoded, err := e.DecodeAll(got)
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	if !bytes.Equal(decoded, []byte{1, 2, 3, 4, 5, 0}) {
		t.Errorf("DecodeAll() = %v", decoded)
	}
}

// TestDecodeAll_StandardEncoder defilters image data produced by the
// standard library encoder, which picks filters adaptively per row.
func TestDecodeAll_StandardEncoder(t *testing.T) {
	t.Parallel()

	const w, h = 17, 11
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 15), G: uint8(y * 23), B: uint8((x * y) % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}

	chunks, err := chunk.Parse(context.Background(), &buf, chunk.WithLogFunc(model.DiscardLog))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	hdr := chunks[0].Header()
	var stream []byte
	for _, c := range chunks {
		if c.Type == chunk.TypeIDAT {
			stream = append(stream, c.Data...)
		}
	}
	inflated, err := deflate.Inflate(stream)
	if err != nil {
		t.Fatalf("Inflate() error = %v", err)
	}

	e, err := NewEngine(int(hdr.Width), hdr.ColorType.Channels(), int(hdr.BitDepth))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	raw, err := e.DecodeAll(inflated)
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}

	channels := hdr.ColorType.Channels()
	for y := range h {
		for x := range w {
			c := img.RGBAAt(x, y)
			px := raw[(y*w+x)*channels:]
			if px[0] != c.R || px[1] != c.G || px[2] != c.B {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, px[:channels], c)
			}
		}
	}
}
