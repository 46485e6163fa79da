package chunk

import (
	"bytes"
	"context"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/nao1215/pngcipher/internal/model"
)

func TestNew(t *testing.T) {
	t.Parallel()

	payload := headerPayload(1, 1, 8, ColorGrayscale, 0)
	c, err := New(TypeIHDR, payload)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.CRC != 0x3A7E9B55 {
		t.Errorf("CRC = 0x%08X, expected 0x3A7E9B55", c.CRC)
	}
	if c.CRC != crc32.ChecksumIEEE(append([]byte("IHDR"), payload...)) {
		t.Error("CRC does not match hash/crc32")
	}
	if c.Length != 13 || !c.CRCValid {
		t.Errorf("unexpected chunk %+v", c)
	}

	if _, err := New(TypePLTE, []byte{1, 2}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestChunk_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		typ     Type
		payload []byte
	}{
		{name: "header", typ: TypeIHDR, payload: headerPayload(640, 480, 16, ColorTruecolorAlpha, 1)},
		{name: "palette", typ: TypePLTE, payload: []byte{0, 0, 0, 255, 255, 255}},
		{name: "image data", typ: TypeIDAT, payload: []byte{0x78, 0x01, 0x00}},
		{name: "empty image data", typ: TypeIDAT, payload: []byte{}},
		{name: "text", typ: TypeTEXT, payload: []byte("Title\x00Sunset")},
		{name: "time", typ: TypeTIME, payload: []byte{0x07, 0xE8, 2, 29, 23, 59, 60}},
		{name: "physical", typ: TypePHYS, payload: []byte{0, 0, 0x0B, 0x13, 0, 0, 0x0B, 0x13, 1}},
		{name: "offset", typ: TypeOFFS, payload: []byte{0xFF, 0xFF, 0xFF, 0xFE, 0, 0, 0, 5, 0}},
		{name: "unknown", typ: Type("vpAg"), payload: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			orig, err := New(tt.typ, tt.payload)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			serialized := orig.Bytes()
			if int64(len(serialized)) != orig.Size() {
				t.Errorf("serialized %d bytes, Size() = %d", len(serialized), orig.Size())
			}

			chunks, err := ParseAll(context.Background(), bytes.NewReader(serialized), WithLogFunc(model.DiscardLog))
			if err != nil {
				t.Fatalf("ParseAll() error = %v", err)
			}
			if len(chunks) != 1 {
				t.Fatalf("expected 1 chunk, got %d", len(chunks))
			}
			got := chunks[0]
			if got.Length != orig.Length || got.Type != orig.Type || got.CRC != orig.CRC || got.CRCValid != orig.CRCValid {
				t.Errorf("got %+v, expected %+v", got, orig)
			}
			if !bytes.Equal(got.Data, orig.Data) {
				t.Errorf("payload mismatch")
			}
			if !bytes.Equal(got.Bytes(), serialized) {
				t.Errorf("re-serialized bytes differ")
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	hdr, _ := New(TypeIHDR, headerPayload(1, 1, 1, ColorGrayscale, 0))
	end, _ := New(TypeIEND, nil)

	var buf bytes.Buffer
	if err := Encode(&buf, []*Chunk{hdr, end}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	data := buf.Bytes()
	if !bytes.Equal(data[:8], Signature[:]) {
		t.Errorf("missing signature")
	}
	if !bytes.Equal(data[len(data)-4:], []byte{0xAE, 0x42, 0x60, 0x82}) {
		t.Errorf("unexpected IEND CRC % x", data[len(data)-4:])
	}
}

func TestType_Capabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ      Type
		preserve bool
		multiple bool
		critical bool
	}{
		{TypeIHDR, true, false, true},
		{TypePLTE, true, false, true},
		{TypeIDAT, true, false, true},
		{TypeIEND, true, false, true},
		{TypeTEXT, false, true, false},
		{TypeZTXT, false, true, false},
		{TypeITXT, false, true, false},
		{TypeSPLT, false, true, false},
		{TypeTIME, false, false, false},
		{TypePHYS, false, false, false},
		{TypeHIST, false, false, false},
		{TypeSTER, false, false, false},
		{TypeEXIF, false, false, false},
		{Type("zzZz"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			t.Parallel()
			if got := tt.typ.PreserveOnAnonymize(); got != tt.preserve {
				t.Errorf("PreserveOnAnonymize() = %v, want %v", got, tt.preserve)
			}
			if got := tt.typ.AllowsMultiple(); got != tt.multiple {
				t.Errorf("AllowsMultiple() = %v, want %v", got, tt.multiple)
			}
			if got := tt.typ.Critical(); got != tt.critical {
				t.Errorf("Critical() = %v, want %v", got, tt.critical)
			}
		})
	}

	if len(registry) != 20 {
		t.Errorf("expected 20 known chunk types, got %d", len(registry))
	}
}
