package main

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// testImage returns a small RGBA gradient.
func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := range 4 {
		for x := range 6 {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 40),
				G: uint8(y * 60),
				B: uint8((x + y) * 20),
				A: 255 - uint8(x*10),
			})
		}
	}
	return img
}

// writeTestPNG encodes testImage into dir/name and returns the path.
func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

// writeTaggedPNG writes testImage with a tEXt chunk holding keyword and
// text right after IHDR, and returns the path.
func writeTaggedPNG(t *testing.T, dir, name, keyword, text string) string {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	encoded := buf.Bytes()

	// signature (8) + IHDR length, type, data and CRC (4+4+13+4)
	const ihdrEnd = 33
	// chunk type followed by the chunk data, which is what the CRC covers
	payload := []byte("tEXt" + keyword + "\x00" + text)

	var chunk bytes.Buffer
	if err := binary.Write(&chunk, binary.BigEndian, uint32(len(payload)-4)); err != nil {
		t.Fatal(err)
	}
	chunk.Write(payload)
	if err := binary.Write(&chunk, binary.BigEndian, crc32.ChecksumIEEE(payload)); err != nil {
		t.Fatal(err)
	}

	data := make([]byte, 0, len(encoded)+chunk.Len())
	data = append(data, encoded[:ihdrEnd]...)
	data = append(data, chunk.Bytes()...)
	data = append(data, encoded[ihdrEnd:]...)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

// decodePNG reads and decodes the image at path.
func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path) //nolint:gosec // test file
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
	return img
}

// assertSameImage fails unless got has the pixels of want.
func assertSameImage(t *testing.T, want, got image.Image) {
	t.Helper()

	if want.Bounds() != got.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), want.Bounds())
	}
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			wr, wg, wb, wa := want.At(x, y).RGBA()
			gr, gg, gb, ga := got.At(x, y).RGBA()
			if wr != gr || wg != gg || wb != gb || wa != ga {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got.At(x, y), want.At(x, y))
			}
		}
	}
}

// keyIDFrom returns the id printed on the "Key:" line of output.
func keyIDFrom(t *testing.T, output string) string {
	t.Helper()

	for _, line := range strings.Split(output, "\n") {
		if id, ok := strings.CutPrefix(line, "Key: "); ok {
			return strings.TrimSpace(id)
		}
	}
	t.Fatalf("no key id in output %q", output)
	return ""
}
