package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/pngcipher/internal/chunk"
	"github.com/nao1215/pngcipher/internal/deflate"
	"github.com/nao1215/pngcipher/internal/filter"
	"github.com/nao1215/pngcipher/internal/model"
	"github.com/nao1215/pngcipher/internal/rsa"
)

// LocateStep finds the header, palette, end marker and first image data
// chunk. When progressive is set, interlaced images are rejected.
type LocateStep struct {
	progressive bool
}

// NewLocateStep creates a LocateStep.
func NewLocateStep(progressive bool) *LocateStep {
	return &LocateStep{progressive: progressive}
}

// Name returns the step name.
func (s *LocateStep) Name() string {
	return "locate"
}

// Do executes the locate step.
func (s *LocateStep) Do(_ context.Context, job *Job) error {
	for i, c := range job.Chunks {
		switch c.Type {
		case chunk.TypeIHDR:
			if job.HeaderChunk == nil && c.Header() != nil {
				job.HeaderChunk = c
				job.Header = c.Header()
			}
		case chunk.TypePLTE:
			if job.Palette == nil {
				job.Palette = c
			}
		case chunk.TypeIDAT:
			if job.FirstImageData < 0 {
				job.FirstImageData = i
			}
		case chunk.TypeIEND:
			if job.EndChunk == nil {
				job.EndChunk = c
			}
		}
	}

	switch {
	case job.HeaderChunk == nil:
		return invariant(ErrMissingHeader, "%d chunks parsed", len(job.Chunks))
	case job.EndChunk == nil:
		return invariant(ErrMissingEnd, "%d chunks parsed", len(job.Chunks))
	case job.FirstImageData < 0:
		return invariant(ErrNoImageData, "%d chunks parsed", len(job.Chunks))
	}
	if s.progressive && job.Header.InterlaceMethod != chunk.InterlaceNone {
		return invariant(ErrUnsupportedInterlace, "interlace method %d", job.Header.InterlaceMethod)
	}
	return nil
}

// imageData concatenates every IDAT payload in order.
func imageData(chunks []*chunk.Chunk) []byte {
	var buf bytes.Buffer
	for _, c := range chunks {
		if c.Type == chunk.TypeIDAT {
			buf.Write(c.Data)
		}
	}
	return buf.Bytes()
}

// InflateStep concatenates the image data payloads and inflates them.
type InflateStep struct{}

// Name returns the step name.
func (s *InflateStep) Name() string {
	return "inflate"
}

// Do executes the inflate step.
func (s *InflateStep) Do(_ context.Context, job *Job) error {
	stream := imageData(job.Chunks)
	data, err := deflate.Inflate(stream)
	if err != nil {
		return fmt.Errorf("failed to inflate image data: %w", err)
	}
	job.log(model.SeverityInfo, fmt.Sprintf("inflated %d bytes of image data into %d bytes", len(stream), len(data)))
	job.Data = data
	return nil
}

// DefilterStep reverses the scanline filters. When trim is set, rows beyond
// the header's height are discarded.
type DefilterStep struct {
	trim bool
}

// NewDefilterStep creates a DefilterStep.
func NewDefilterStep(trim bool) *DefilterStep {
	return &DefilterStep{trim: trim}
}

// Name returns the step name.
func (s *DefilterStep) Name() string {
	return "defilter"
}

// Do executes the defilter step.
func (s *DefilterStep) Do(_ context.Context, job *Job) error {
	h := job.Header
	rowBytes, err := h.RowBytes()
	if err != nil {
		return &InvariantError{Err: err}
	}
	if rowBytes+1 > len(job.Data) {
		return invariant(ErrTruncatedImageData, "scanline of %d bytes, have %d", rowBytes+1, len(job.Data))
	}
	engine, err := filter.NewEngine(int(h.Width), h.ColorType.Channels(), int(h.BitDepth))
	if err != nil {
		return err
	}

	rows := len(job.Data) / engine.Stride()
	if rest := len(job.Data) % engine.Stride(); rest != 0 {
		job.log(model.SeverityWarning, fmt.Sprintf("ignoring %d bytes after the last whole scanline", rest))
	}
	if s.trim {
		if rows > int(h.Height) {
			job.log(model.SeverityWarning, fmt.Sprintf("ignoring %d scanlines beyond the image height", rows-int(h.Height)))
			rows = int(h.Height)
		} else if rows < int(h.Height) {
			job.log(model.SeverityWarning, fmt.Sprintf("image data holds %d of %d scanlines", rows, h.Height))
		}
	}

	raw, err := engine.DecodeAll(job.Data[:rows*engine.Stride()])
	if err != nil {
		return err
	}
	job.Data = raw
	return nil
}

// KeyStep makes sure the job has a key, generating one for encryption.
type KeyStep struct {
	generator *rsa.Generator
	bits      int
	logger    *slog.Logger
}

// NewKeyStep creates a KeyStep generating keys of the given size.
func NewKeyStep(generator *rsa.Generator, bits int, logger *slog.Logger) *KeyStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyStep{generator: generator, bits: bits, logger: logger}
}

// Name returns the step name.
func (s *KeyStep) Name() string {
	return "key"
}

// Do executes the key step.
func (s *KeyStep) Do(ctx context.Context, job *Job) error {
	if job.Key != nil {
		return nil
	}
	if job.Operation != OpEncrypt {
		return ErrNoKey
	}

	// n must exceed every plaintext block, which holds bits/8 - 1 bytes.
	bound := rsa.BlockBound(s.bits/8 - 1)
	key, err := s.generator.Generate(ctx, bound, s.bits)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	job.Key = key
	job.KeyGenerated = true
	s.logger.Debug("generated key", "bits", key.Bits(), "fingerprint", key.Fingerprint())
	job.log(model.SeverityInfo, fmt.Sprintf("generated %d-bit key %s", key.Bits(), key.Fingerprint()))
	return nil
}

// CryptStep encrypts or decrypts the raw pixel bytes.
type CryptStep struct {
	cipher *rsa.Cipher
	mode   rsa.Mode
}

// NewCryptStep creates a CryptStep.
func NewCryptStep(cipher *rsa.Cipher, mode rsa.Mode) *CryptStep {
	return &CryptStep{cipher: cipher, mode: mode}
}

// Name returns the step name.
func (s *CryptStep) Name() string {
	return "crypt"
}

// Do executes the crypt step.
func (s *CryptStep) Do(ctx context.Context, job *Job) error {
	if job.Key == nil {
		return ErrNoKey
	}
	if job.Operation == OpEncrypt {
		out, err := s.cipher.Encrypt(ctx, s.mode, job.Data, job.Key.Public())
		if err != nil {
			return err
		}
		job.log(model.SeverityInfo, fmt.Sprintf("encrypted %d bytes into %d bytes (%s)", len(job.Data), len(out), s.mode))
		job.Data = out
		return nil
	}

	// The ciphertext was framed in whole rows, so the tail of the last row
	// is padding.
	size, err := job.Header.ImageBytes()
	if err != nil {
		return &InvariantError{Err: err}
	}
	pub := job.Key.Public()
	step, width := pub.BlockSize(), pub.ModulusBytes()
	if step < 1 {
		return rsa.ErrKeyTooSmall
	}
	blocks := (uint64(size) + uint64(step) - 1) / uint64(step)
	if s.mode == rsa.ModeCBC {
		blocks++
	}
	if blocks*uint64(width) > uint64(len(job.Data)) {
		return invariant(ErrCiphertextTooShort, "have %d bytes, need %d", len(job.Data), blocks*uint64(width))
	}
	need := int(blocks) * width

	out, err := s.cipher.Decrypt(ctx, s.mode, job.Data[:need], job.Key)
	if err != nil {
		return err
	}
	job.log(model.SeverityInfo, fmt.Sprintf("decrypted %d bytes into %d bytes (%s)", need, size, s.mode))
	job.Data = out[:size]
	return nil
}

// RefilterStep frames the bytes as scanlines using the None filter.
type RefilterStep struct{}

// Name returns the step name.
func (s *RefilterStep) Name() string {
	return "refilter"
}

// Do executes the refilter step.
func (s *RefilterStep) Do(_ context.Context, job *Job) error {
	rowBytes, err := job.Header.RowBytes()
	if err != nil {
		return &InvariantError{Err: err}
	}
	job.Data = filter.EncodeNoneRows(job.Data, rowBytes)
	return nil
}

// DeflateStep compresses the scanlines into a zlib stream.
type DeflateStep struct {
	level int
}

// NewDeflateStep creates a DeflateStep with the given compression level.
func NewDeflateStep(level int) *DeflateStep {
	return &DeflateStep{level: level}
}

// Name returns the step name.
func (s *DeflateStep) Name() string {
	return "deflate"
}

// Do executes the deflate step.
func (s *DeflateStep) Do(_ context.Context, job *Job) error {
	stream, err := deflate.Deflate(job.Data, s.level)
	if err != nil {
		return fmt.Errorf("failed to deflate image data: %w", err)
	}
	job.Data = stream
	return nil
}

// RebuildStep replaces the image data chunks with a single chunk holding
// job.Data, placed where the first one was. When strip is set, chunks that
// anonymize would drop are dropped too.
type RebuildStep struct {
	strip bool
}

// NewRebuildStep creates a RebuildStep.
func NewRebuildStep(strip bool) *RebuildStep {
	return &RebuildStep{strip: strip}
}

// Name returns the step name.
func (s *RebuildStep) Name() string {
	return "rebuild"
}

// Do executes the rebuild step.
func (s *RebuildStep) Do(_ context.Context, job *Job) error {
	idat, err := chunk.New(chunk.TypeIDAT, job.Data)
	if err != nil {
		return err
	}

	out := make([]*chunk.Chunk, 0, len(job.Chunks))
	for i, c := range job.Chunks {
		if c.Type == chunk.TypeIDAT {
			if i == job.FirstImageData {
				out = append(out, idat)
			}
			continue
		}
		if s.strip && !c.PreserveOnAnonymize() {
			job.log(model.SeverityInfo, fmt.Sprintf("dropping %s chunk", c.Type))
			continue
		}
		out = append(out, c)
	}
	job.Output = out
	return nil
}

// AnonymizeStep emits the header, the palette if any, one image data chunk
// holding every original payload, and the end marker. The compressed
// stream is carried over untouched.
type AnonymizeStep struct{}

// Name returns the step name.
func (s *AnonymizeStep) Name() string {
	return "anonymize"
}

// Do executes the anonymize step.
func (s *AnonymizeStep) Do(_ context.Context, job *Job) error {
	idat, err := chunk.New(chunk.TypeIDAT, imageData(job.Chunks))
	if err != nil {
		return err
	}

	out := []*chunk.Chunk{job.HeaderChunk}
	if job.Palette != nil {
		out = append(out, job.Palette)
	}
	out = append(out, idat, job.EndChunk)

	if dropped := len(job.Chunks) - countImageData(job.Chunks) - len(out) + 1; dropped > 0 {
		job.log(model.SeverityInfo, fmt.Sprintf("dropped %d metadata chunks", dropped))
	}
	job.Output = out
	return nil
}

func countImageData(chunks []*chunk.Chunk) int {
	n := 0
	for _, c := range chunks {
		if c.Type == chunk.TypeIDAT {
			n++
		}
	}
	return n
}
