package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// RGB is one palette entry.
type RGB struct {
	R, G, B uint8
}

// Palette is the decoded PLTE chunk.
type Palette struct {
	Entries []RGB
	length  int
}

func (p *Palette) decode(_ Type, data []byte) error {
	p.length = len(data)
	p.Entries = make([]RGB, 0, len(data)/3)
	for i := 0; i+3 <= len(data); i += 3 {
		p.Entries = append(p.Entries, RGB{R: data[i], G: data[i+1], B: data[i+2]})
	}
	return nil
}

// Validate requires a whole number of 1 to 256 RGB triples.
func (p *Palette) Validate() error {
	if p.length%3 != 0 {
		return invalid(TypePLTE, "payload length %d is not a multiple of 3", p.length)
	}
	if n := p.length / 3; n == 0 || n > 256 {
		return invalid(TypePLTE, "%d palette entries, expected 1 to 256", n)
	}
	return nil
}

// Describe returns a one-line summary.
func (p *Palette) Describe() string {
	return fmt.Sprintf("%d palette entries", len(p.Entries))
}

// Transparency is the tRNS chunk. Its layout depends on the color type, so
// only the raw bytes are kept.
type Transparency struct {
	Data []byte
}

func (t *Transparency) decode(_ Type, data []byte) error {
	t.Data = data
	return nil
}

// Validate limits the payload to one alpha value per possible palette entry.
func (t *Transparency) Validate() error {
	if len(t.Data) > 256 {
		return invalid(TypeTRNS, "payload length %d exceeds 256", len(t.Data))
	}
	return nil
}

// Describe returns a one-line summary.
func (t *Transparency) Describe() string {
	switch len(t.Data) {
	case 2:
		return fmt.Sprintf("transparent gray %d", binary.BigEndian.Uint16(t.Data))
	case 6:
		return fmt.Sprintf("transparent rgb(%d, %d, %d)",
			binary.BigEndian.Uint16(t.Data[0:2]),
			binary.BigEndian.Uint16(t.Data[2:4]),
			binary.BigEndian.Uint16(t.Data[4:6]))
	default:
		return fmt.Sprintf("%d palette alpha values", len(t.Data))
	}
}

// Background is the bKGD chunk: a palette index (1 byte), a gray level
// (2 bytes) or an RGB triple (6 bytes).
type Background struct {
	Values []uint16
	length int
}

func (b *Background) decode(_ Type, data []byte) error {
	b.length = len(data)
	b.Values = b.Values[:0]
	switch len(data) {
	case 1:
		b.Values = append(b.Values, uint16(data[0]))
	case 2, 6:
		for i := 0; i < len(data); i += 2 {
			b.Values = append(b.Values, binary.BigEndian.Uint16(data[i:i+2]))
		}
	}
	return nil
}

// Validate checks the payload length.
func (b *Background) Validate() error {
	switch b.length {
	case 1, 2, 6:
		return nil
	default:
		return invalid(TypeBKGD, "payload length %d, expected 1, 2 or 6", b.length)
	}
}

// Describe returns a one-line summary.
func (b *Background) Describe() string {
	switch b.length {
	case 1:
		return fmt.Sprintf("background palette index %d", b.Values[0])
	case 2:
		return fmt.Sprintf("background gray %d", b.Values[0])
	default:
		return fmt.Sprintf("background rgb(%d, %d, %d)", b.Values[0], b.Values[1], b.Values[2])
	}
}

// Histogram is the hIST chunk: one frequency per palette entry.
type Histogram struct {
	Frequencies []uint16
	length      int
}

func (h *Histogram) decode(_ Type, data []byte) error {
	h.length = len(data)
	h.Frequencies = make([]uint16, 0, len(data)/2)
	for i := 0; i+2 <= len(data); i += 2 {
		h.Frequencies = append(h.Frequencies, binary.BigEndian.Uint16(data[i:i+2]))
	}
	return nil
}

// Validate requires a whole number of 16-bit entries.
func (h *Histogram) Validate() error {
	if h.length%2 != 0 || h.length == 0 {
		return invalid(TypeHIST, "payload length %d is not a positive multiple of 2", h.length)
	}
	if len(h.Frequencies) > 256 {
		return invalid(TypeHIST, "%d entries exceed 256", len(h.Frequencies))
	}
	return nil
}

// Describe returns a one-line summary.
func (h *Histogram) Describe() string {
	return fmt.Sprintf("%d histogram entries", len(h.Frequencies))
}

// PaletteSample is one sPLT entry.
type PaletteSample struct {
	R, G, B, A uint16
	Frequency  uint16
}

// SuggestedPalette is the sPLT chunk.
type SuggestedPalette struct {
	Name        string
	SampleDepth uint8
	Samples     []PaletteSample
	entryBytes  int
}

func (s *SuggestedPalette) decode(t Type, data []byte) error {
	sep := bytes.IndexByte(data, 0)
	if sep < 0 {
		return invalid(t, "missing palette name terminator")
	}
	if sep+1 >= len(data) {
		return invalid(t, "missing sample depth")
	}
	name, err := decodeLatin1(data[:sep])
	if err != nil {
		return invalid(t, "palette name: %v", err)
	}
	s.Name = name
	s.SampleDepth = data[sep+1]

	entries := data[sep+2:]
	switch s.SampleDepth {
	case 8:
		s.entryBytes = 6
	case 16:
		s.entryBytes = 10
	default:
		return nil
	}
	s.Samples = make([]PaletteSample, 0, len(entries)/s.entryBytes)
	for i := 0; i+s.entryBytes <= len(entries); i += s.entryBytes {
		e := entries[i : i+s.entryBytes]
		if s.SampleDepth == 8 {
			s.Samples = append(s.Samples, PaletteSample{
				R: uint16(e[0]), G: uint16(e[1]), B: uint16(e[2]), A: uint16(e[3]),
				Frequency: binary.BigEndian.Uint16(e[4:6]),
			})
			continue
		}
		s.Samples = append(s.Samples, PaletteSample{
			R:         binary.BigEndian.Uint16(e[0:2]),
			G:         binary.BigEndian.Uint16(e[2:4]),
			B:         binary.BigEndian.Uint16(e[4:6]),
			A:         binary.BigEndian.Uint16(e[6:8]),
			Frequency: binary.BigEndian.Uint16(e[8:10]),
		})
	}
	if rest := len(entries) % s.entryBytes; rest != 0 {
		return invalid(t, "%d trailing bytes after palette entries", rest)
	}
	return nil
}

// Validate checks the name length and the sample depth.
func (s *SuggestedPalette) Validate() error {
	if err := validateKeyword(TypeSPLT, s.Name); err != nil {
		return err
	}
	if s.SampleDepth != 8 && s.SampleDepth != 16 {
		return invalid(TypeSPLT, "sample depth %d, expected 8 or 16", s.SampleDepth)
	}
	return nil
}

// Describe returns a one-line summary.
func (s *SuggestedPalette) Describe() string {
	return fmt.Sprintf("suggested palette %q, %d-bit, %d entries", s.Name, s.SampleDepth, len(s.Samples))
}
