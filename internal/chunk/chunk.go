package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nao1215/pngcipher/internal/checksum"
)

// Signature is the 8-byte PNG file signature.
var Signature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// MaxLength is the largest payload length a chunk may declare.
const MaxLength = 1<<31 - 1

// recordOverhead is the number of framing bytes around each payload.
const recordOverhead = 12

// Body is the decoded payload of a chunk.
// The set of implementations is closed; unknown types decode to *Opaque.
type Body interface {
	// Validate checks enumerated values and cross-field constraints.
	Validate() error
	// Describe returns a one-line human-readable summary.
	Describe() string

	decode(t Type, data []byte) error
}

// Chunk is one record of a PNG container.
// Chunks returned by the parser are not modified afterwards.
type Chunk struct {
	// Length is the declared payload length.
	Length uint32
	// Type is the 4-character type tag.
	Type Type
	// Data is the raw payload.
	Data []byte
	// CRC is the checksum stored in the record.
	CRC uint32
	// CRCValid is true when CRC matches CRC32(Type || Data).
	CRCValid bool
	// Body is the decoded payload.
	Body Body
}

// New builds a chunk with a freshly computed CRC and decodes its body.
func New(t Type, data []byte) (*Chunk, error) {
	if len(data) > MaxLength {
		return nil, ErrLengthOverflow
	}
	c := &Chunk{
		Length:   uint32(len(data)), //nolint:gosec // bounded by MaxLength
		Type:     t,
		Data:     data,
		CRC:      checksum.Chunk([]byte(t), data),
		CRCValid: true,
	}
	body, err := decodeBody(t, data)
	if err != nil {
		return nil, err
	}
	c.Body = body
	return c, nil
}

// decodeBody dispatches the payload to the type-specific decoder.
func decodeBody(t Type, data []byte) (Body, error) {
	info, ok := registry[t]
	if !ok {
		o := &Opaque{}
		if err := o.decode(t, data); err != nil {
			return nil, err
		}
		return o, nil
	}

	body := info.newBody()
	if err := body.decode(t, data); err != nil {
		return nil, err
	}
	if err := body.Validate(); err != nil {
		return nil, err
	}
	return body, nil
}

// PreserveOnAnonymize reports whether anonymize keeps this chunk.
func (c *Chunk) PreserveOnAnonymize() bool {
	return c.Type.PreserveOnAnonymize()
}

// AllowsMultiple reports whether the chunk type may repeat.
func (c *Chunk) AllowsMultiple() bool {
	return c.Type.AllowsMultiple()
}

// Describe returns the body summary prefixed by the type and length.
func (c *Chunk) Describe() string {
	desc := ""
	if c.Body != nil {
		desc = c.Body.Describe()
	}
	return fmt.Sprintf("%s (%d bytes): %s", c.Type, c.Length, desc)
}

// Size returns the number of bytes the record occupies in a stream.
func (c *Chunk) Size() int64 {
	return int64(c.Length) + recordOverhead
}

// WriteTo writes length, type, payload and the stored CRC verbatim.
func (c *Chunk) WriteTo(w io.Writer) (int64, error) {
	var head [8]byte
	binary.BigEndian.PutUint32(head[:4], c.Length)
	copy(head[4:], c.Type)

	var total int64
	n, err := w.Write(head[:])
	total += int64(n)
	if err != nil {
		return total, err
	}
	n, err = w.Write(c.Data)
	total += int64(n)
	if err != nil {
		return total, err
	}

	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], c.CRC)
	n, err = w.Write(tail[:])
	total += int64(n)
	return total, err
}

// Bytes returns the serialized record.
func (c *Chunk) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(int(c.Size()))
	_, _ = c.WriteTo(&buf)
	return buf.Bytes()
}

// Header returns the decoded header body, or nil if c is not a valid IHDR.
func (c *Chunk) Header() *Header {
	h, _ := c.Body.(*Header)
	return h
}

// WriteSignature writes the PNG signature.
func WriteSignature(w io.Writer) error {
	_, err := w.Write(Signature[:])
	return err
}

// Encode writes the signature followed by every chunk in order.
func Encode(w io.Writer, chunks []*Chunk) error {
	if err := WriteSignature(w); err != nil {
		return err
	}
	for _, c := range chunks {
		if _, err := c.WriteTo(w); err != nil {
			return fmt.Errorf("failed to write %s chunk: %w", c.Type, err)
		}
	}
	return nil
}
