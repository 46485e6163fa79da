package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/nao1215/pngcipher/internal/chunk"
	"github.com/nao1215/pngcipher/internal/deflate"
	"github.com/nao1215/pngcipher/internal/model"
	"github.com/nao1215/pngcipher/internal/rsa"
)

// Options controls the pixel transformation.
type Options struct {
	// Mode selects ECB or CBC chaining.
	Mode rsa.Mode
	// KeyBits is the size of generated keys. It must be a multiple of 16.
	KeyBits int
	// Workers bounds the ECB worker pool.
	Workers int
	// CompressionLevel is the zlib level of rewritten image data.
	CompressionLevel int
	// ProgressThreshold is the minimum progress advance between deliveries.
	ProgressThreshold float64
	// Strip drops every chunk anonymize would drop when encrypting or
	// decrypting.
	Strip bool
}

// DefaultOptions returns ECB with 2048-bit keys, one worker per CPU and the
// default zlib level.
func DefaultOptions() Options {
	return Options{
		Mode:              rsa.ModeECB,
		KeyBits:           2048,
		Workers:           runtime.NumCPU(),
		CompressionLevel:  deflate.DefaultCompression,
		ProgressThreshold: rsa.DefaultProgressThreshold,
	}
}

// Processor runs encrypt, decrypt and anonymize operations.
type Processor struct {
	opts      Options
	onLog     model.LogFunc
	onProg    model.ProgressFunc
	logger    *slog.Logger
	generator *rsa.Generator
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithOptions replaces the default Options.
func WithOptions(opts Options) ProcessorOption {
	return func(p *Processor) {
		p.opts = opts
	}
}

// WithLogFunc sets the callback receiving log entries about the image.
func WithLogFunc(fn model.LogFunc) ProcessorOption {
	return func(p *Processor) {
		if fn != nil {
			p.onLog = fn
		}
	}
}

// WithProgress sets the callback receiving the completed fraction.
func WithProgress(fn model.ProgressFunc) ProcessorOption {
	return func(p *Processor) {
		if fn != nil {
			p.onProg = fn
		}
	}
}

// WithProcessorLogger sets the logger for debug output.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithGenerator sets the key generator used when encrypting without a key.
func WithGenerator(g *rsa.Generator) ProcessorOption {
	return func(p *Processor) {
		if g != nil {
			p.generator = g
		}
	}
}

// NewProcessor creates a Processor.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		opts:   DefaultOptions(),
		onLog:  model.DiscardLog,
		onProg: model.DiscardProgress,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.generator == nil {
		p.generator = rsa.NewGenerator(rsa.WithGeneratorLogger(p.logger))
	}
	return p
}

// Options returns the processor's options.
func (p *Processor) Options() Options {
	return p.opts
}

// Result is the outcome of one operation.
type Result struct {
	Operation Operation
	// Chunks is the rewritten chunk list, without the signature.
	Chunks []*chunk.Chunk
	// Key is the key used, or nil for anonymize.
	Key *rsa.KeyPair
	// KeyGenerated is true when Key was created by the operation.
	KeyGenerated bool
	// Steps lists the completed pipeline steps.
	Steps []string
}

// Encode writes the signature and every chunk to w.
func (r *Result) Encode(w io.Writer) error {
	return chunk.Encode(w, r.Chunks)
}

// Bytes returns the encoded image.
func (r *Result) Bytes() []byte {
	var buf bytes.Buffer
	_ = r.Encode(&buf)
	return buf.Bytes()
}

// Pipeline returns the steps of op.
func (p *Processor) Pipeline(op Operation) *Pipeline {
	pl := New(WithLogger(p.logger))
	switch op {
	case OpAnonymize:
		pl.AddSteps(NewLocateStep(false), &AnonymizeStep{})
	case OpEncrypt, OpDecrypt:
		cipher := rsa.NewCipher(
			rsa.WithWorkers(p.opts.Workers),
			rsa.WithProgress(p.onProg),
			rsa.WithProgressThreshold(p.opts.ProgressThreshold),
			rsa.WithLogFunc(p.onLog),
			rsa.WithLogger(p.logger),
		)
		pl.AddSteps(
			NewLocateStep(true),
			&InflateStep{},
			NewDefilterStep(op == OpEncrypt),
			NewKeyStep(p.generator, p.opts.KeyBits, p.logger),
			NewCryptStep(cipher, p.opts.Mode),
			&RefilterStep{},
			NewDeflateStep(p.opts.CompressionLevel),
			NewRebuildStep(p.opts.Strip),
		)
	}
	return pl
}

// Run executes op over chunks. Encrypt generates a key when key is nil;
// decrypt requires one; anonymize ignores it.
func (p *Processor) Run(ctx context.Context, op Operation, chunks []*chunk.Chunk, key *rsa.KeyPair) (*Result, error) {
	if op != OpEncrypt && op != OpDecrypt && op != OpAnonymize {
		return nil, fmt.Errorf("unknown operation %q", op)
	}
	job := NewJob(op, chunks, p.onLog)
	if op != OpAnonymize {
		job.Key = key
	}

	if err := p.Pipeline(op).Execute(ctx, job); err != nil {
		p.onLog(model.SeverityError, fmt.Sprintf("%s failed: %v", op, err))
		return nil, err
	}
	if op == OpAnonymize {
		p.onProg(1)
	}
	return &Result{
		Operation:    op,
		Chunks:       job.Output,
		Key:          job.Key,
		KeyGenerated: job.KeyGenerated,
		Steps:        job.Performed,
	}, nil
}

// Encrypt replaces the pixel data with its RSA encryption under key,
// generating a key of Options.KeyBits when key is nil.
func (p *Processor) Encrypt(ctx context.Context, chunks []*chunk.Chunk, key *rsa.KeyPair) (*Result, error) {
	return p.Run(ctx, OpEncrypt, chunks, key)
}

// Decrypt reverses Encrypt. The mode must match the one used to encrypt.
func (p *Processor) Decrypt(ctx context.Context, chunks []*chunk.Chunk, key *rsa.KeyPair) (*Result, error) {
	return p.Run(ctx, OpDecrypt, chunks, key)
}

// Anonymize keeps only the chunks needed to display the image.
func (p *Processor) Anonymize(ctx context.Context, chunks []*chunk.Chunk) (*Result, error) {
	return p.Run(ctx, OpAnonymize, chunks, nil)
}

// Process parses an image from r, runs op and writes the result to w.
func (p *Processor) Process(ctx context.Context, op Operation, r io.Reader, w io.Writer, key *rsa.KeyPair) (*Result, error) {
	chunks, err := chunk.Parse(ctx, r, chunk.WithLogFunc(p.onLog), chunk.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}
	res, err := p.Run(ctx, op, chunks, key)
	if err != nil {
		return nil, err
	}
	if err := res.Encode(w); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	return res, nil
}

// ProcessFile runs op from one file to another. The output file is only
// written once the operation has succeeded.
func (p *Processor) ProcessFile(ctx context.Context, op Operation, input, output string, key *rsa.KeyPair) (*Result, error) {
	in, err := os.Open(input) //nolint:gosec // user-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	var buf bytes.Buffer
	res, err := p.Process(ctx, op, in, &buf, key)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	return res, nil
}
