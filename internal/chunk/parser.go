package chunk

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/pngcipher/internal/checksum"
	"github.com/nao1215/pngcipher/internal/log"
	"github.com/nao1215/pngcipher/internal/model"
)

// Parser reads chunk records from a stream.
type Parser struct {
	onLog  model.LogFunc
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogFunc sets the callback receiving per-chunk log entries.
func WithLogFunc(fn model.LogFunc) Option {
	return func(p *Parser) {
		if fn != nil {
			p.onLog = fn
		}
	}
}

// WithLogger sets the logger used for debug output. When no LogFunc is set,
// per-chunk entries are also routed to this logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.onLog == nil {
		p.onLog = log.Callback(p.logger)
	}
	return p
}

// VerifySignature reads 8 bytes from r and checks them against Signature.
func VerifySignature(r io.Reader) error {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return &StructuralError{Reason: "reading signature", Err: err}
	}
	if sig != Signature {
		return &StructuralError{Reason: fmt.Sprintf("% x", sig[:]), Err: ErrBadSignature}
	}
	return nil
}

// Parse verifies the signature and then parses every chunk.
func (p *Parser) Parse(ctx context.Context, r io.Reader) ([]*Chunk, error) {
	if err := VerifySignature(r); err != nil {
		p.onLog(model.SeverityError, err.Error())
		return nil, err
	}
	return p.ParseAll(ctx, r)
}

// ParseAll reads chunk records until an IEND chunk is produced or the stream
// ends cleanly at a record boundary.
//
// A record whose payload fails decoding or validation is logged as a warning
// and left out of the result; parsing resumes at the next record because the
// length field alone determines framing. A checksum mismatch is logged and
// recorded in CRCValid. Truncated framing returns a *StructuralError together
// with the chunks parsed before it.
func (p *Parser) ParseAll(ctx context.Context, r io.Reader) ([]*Chunk, error) {
	chunks := make([]*Chunk, 0)
	seen := make(map[Type]int)
	var offset int64

	for {
		if err := ctx.Err(); err != nil {
			return chunks, err
		}

		c, err := p.readRecord(r, offset)
		if errors.Is(err, io.EOF) {
			p.logger.Debug("end of stream", "chunks", len(chunks))
			return chunks, nil
		}
		var structural *StructuralError
		if errors.As(err, &structural) {
			p.onLog(model.SeverityError, err.Error())
			return chunks, err
		}
		offset += c.Size()

		if err != nil {
			p.onLog(model.SeverityWarning, err.Error())
			continue
		}

		if !c.CRCValid {
			p.onLog(model.SeverityWarning, fmt.Sprintf("%s: CRC mismatch (stored 0x%08X, computed 0x%08X)",
				c.Type, c.CRC, checksum.Chunk([]byte(c.Type), c.Data)))
		}
		if c.Type.Known() && c.Type != TypeIDAT && !c.AllowsMultiple() && seen[c.Type] > 0 {
			p.onLog(model.SeverityWarning, fmt.Sprintf("%s: duplicate chunk, only one is allowed", c.Type))
		}
		seen[c.Type]++

		p.onLog(model.SeverityInfo, c.Describe())
		chunks = append(chunks, c)

		if c.Type == TypeIEND {
			return chunks, nil
		}
	}
}

// readRecord reads one record. It returns io.EOF when the stream ends exactly
// at a record boundary and a *StructuralError when framing is truncated. A
// decoding failure is returned as a *ValidationError along with the framed
// chunk so the caller can still advance.
func (p *Parser) readRecord(r io.Reader, offset int64) (*Chunk, error) {
	var head [8]byte
	n, err := io.ReadFull(r, head[:])
	if n == 0 && errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &StructuralError{Offset: offset, Reason: "reading chunk length and type", Err: err}
	}

	length := binary.BigEndian.Uint32(head[:4])
	if length > MaxLength {
		return nil, &StructuralError{Offset: offset, Reason: fmt.Sprintf("declared length %d", length), Err: ErrLengthOverflow}
	}
	t := Type(head[4:8])

	data := make([]byte, 0)
	if length > 0 {
		var buf bytes.Buffer
		copied, err := io.CopyN(&buf, r, int64(length))
		if err != nil {
			return nil, &StructuralError{
				Offset: offset,
				Reason: fmt.Sprintf("%s payload: read %d of %d bytes", printable(t), copied, length),
				Err:    io.ErrUnexpectedEOF,
			}
		}
		data = buf.Bytes()
	}

	var tail [4]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, &StructuralError{Offset: offset, Reason: fmt.Sprintf("%s CRC", printable(t)), Err: io.ErrUnexpectedEOF}
	}
	stored := binary.BigEndian.Uint32(tail[:])

	c := &Chunk{
		Length:   length,
		Type:     t,
		Data:     data,
		CRC:      stored,
		CRCValid: stored == checksum.Chunk(head[4:8], data),
	}

	if !t.Valid() {
		return c, invalid(printable(t), "type tag is not four ASCII letters")
	}
	body, err := decodeBody(t, data)
	if err != nil {
		return c, err
	}
	c.Body = body
	p.logger.Debug("chunk parsed", "type", string(t), "length", length, "offset", offset)
	return c, nil
}

// printable renders a possibly corrupted type tag for messages.
func printable(t Type) Type {
	if t.Valid() {
		return t
	}
	return Type(fmt.Sprintf("%q", string(t)))
}

// ParseAll parses chunks from r with a default Parser.
func ParseAll(ctx context.Context, r io.Reader, opts ...Option) ([]*Chunk, error) {
	return NewParser(opts...).ParseAll(ctx, r)
}

// Parse verifies the signature and parses chunks from r with a default Parser.
func Parse(ctx context.Context, r io.Reader, opts ...Option) ([]*Chunk, error) {
	return NewParser(opts...).Parse(ctx, r)
}
