package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/nao1215/pngcipher/internal/chunk"
	"github.com/nao1215/pngcipher/internal/deflate"
	"github.com/nao1215/pngcipher/internal/model"
	"github.com/nao1215/pngcipher/internal/rsa"
)

const testKeyBits = 64

func testOptions(mode rsa.Mode) Options {
	return Options{
		Mode:              mode,
		KeyBits:           testKeyBits,
		Workers:           2,
		CompressionLevel:  deflate.DefaultCompression,
		ProgressThreshold: rsa.DefaultProgressThreshold,
	}
}

func testKey(t *testing.T) *rsa.KeyPair {
	t.Helper()

	key, err := rsa.NewGenerator().Generate(context.Background(), rsa.BlockBound(testKeyBits/8-1), testKeyBits)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return key
}

func testImages() map[string]image.Image {
	rgba := image.NewNRGBA(image.Rect(0, 0, 7, 5))
	gray := image.NewGray16(image.Rect(0, 0, 6, 3))
	pal := image.NewPaletted(image.Rect(0, 0, 9, 4), color.Palette{
		color.RGBA{0, 0, 0, 255},
		color.RGBA{255, 0, 0, 255},
		color.RGBA{0, 255, 0, 255},
		color.RGBA{0, 0, 255, 255},
	})
	for y := range 5 {
		for x := range 9 {
			rgba.SetNRGBA(x, y, color.NRGBA{uint8(x * 30), uint8(y * 50), uint8(x ^ y), uint8(128 + x*y)})
			gray.SetGray16(x, y, color.Gray16{uint16(x*9000 + y*300)})
			pal.SetColorIndex(x, y, uint8((x+y)%4))
		}
	}
	return map[string]image.Image{
		"rgba 8-bit":     rgba,
		"gray 16-bit":    gray,
		"paletted 2-bit": pal,
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func parseChunks(t *testing.T, data []byte) []*chunk.Chunk {
	t.Helper()

	chunks, err := chunk.Parse(context.Background(), bytes.NewReader(data), chunk.WithLogFunc(model.DiscardLog))
	if err != nil {
		t.Fatalf("chunk.Parse() error = %v", err)
	}
	return chunks
}

func mustChunk(t *testing.T, typ chunk.Type, data []byte) *chunk.Chunk {
	t.Helper()

	c, err := chunk.New(typ, data)
	if err != nil {
		t.Fatalf("chunk.New(%s) error = %v", typ, err)
	}
	return c
}

// splitImageData replaces the single IDAT chunk with two halves and puts
// extra between them.
func splitImageData(t *testing.T, chunks []*chunk.Chunk, extra ...*chunk.Chunk) []*chunk.Chunk {
	t.Helper()

	out := make([]*chunk.Chunk, 0, len(chunks)+len(extra)+1)
	for _, c := range chunks {
		if c.Type != chunk.TypeIDAT {
			out = append(out, c)
			continue
		}
		half := len(c.Data) / 2
		out = append(out, mustChunk(t, chunk.TypeIDAT, c.Data[:half]))
		out = append(out, extra...)
		out = append(out, mustChunk(t, chunk.TypeIDAT, c.Data[half:]))
	}
	return out
}

func chunkTypes(chunks []*chunk.Chunk) []chunk.Type {
	types := make([]chunk.Type, len(chunks))
	for i, c := range chunks {
		types[i] = c.Type
	}
	return types
}

func equalTypes(a, b []chunk.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func assertSameImage(t *testing.T, want image.Image, data []byte) {
	t.Helper()

	got, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if got.Bounds() != want.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), want.Bounds())
	}
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r1, g1, b1, a1 := want.At(x, y).RGBA()
			r2, g2, b2, a2 := got.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got.At(x, y), want.At(x, y))
			}
		}
	}
}
