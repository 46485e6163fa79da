package rsa

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"math/big"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pngcipher/internal/model"
)

// Mode is a block chaining mode.
type Mode string

const (
	// ModeECB encrypts each block independently.
	ModeECB Mode = "ecb"
	// ModeCBC chains each block with the previous ciphertext block.
	ModeCBC Mode = "cbc"
)

// Cipher transforms byte streams block by block.
type Cipher struct {
	workers   int
	threshold float64
	random    io.Reader
	onLog     model.LogFunc
	onProg    model.ProgressFunc
	logger    *slog.Logger
}

// CipherOption configures a Cipher.
type CipherOption func(*Cipher)

// WithWorkers sets the ECB worker pool size. Values below 1 are ignored.
func WithWorkers(n int) CipherOption {
	return func(c *Cipher) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn model.ProgressFunc) CipherOption {
	return func(c *Cipher) {
		c.onProg = fn
	}
}

// WithProgressThreshold sets the minimum advance between progress
// deliveries. Non-positive values deliver every block.
func WithProgressThreshold(threshold float64) CipherOption {
	return func(c *Cipher) {
		c.threshold = max(threshold, 0)
	}
}

// WithLogFunc sets the callback receiving warnings about the input.
func WithLogFunc(fn model.LogFunc) CipherOption {
	return func(c *Cipher) {
		if fn != nil {
			c.onLog = fn
		}
	}
}

// WithCipherRandom sets the entropy source for CBC initialization vectors.
func WithCipherRandom(r io.Reader) CipherOption {
	return func(c *Cipher) {
		if r != nil {
			c.random = r
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) CipherOption {
	return func(c *Cipher) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCipher creates a Cipher. By default it uses one ECB worker per CPU and
// the 0.5% progress threshold.
func NewCipher(opts ...CipherOption) *Cipher {
	c := &Cipher{
		workers:   runtime.NumCPU(),
		threshold: DefaultProgressThreshold,
		random:    rand.Reader,
		onLog:     model.DiscardLog,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encrypt dispatches to EncryptECB or EncryptCBC.
func (c *Cipher) Encrypt(ctx context.Context, mode Mode, data []byte, pub PublicKey) ([]byte, error) {
	if mode == ModeCBC {
		return c.EncryptCBC(ctx, data, pub)
	}
	return c.EncryptECB(ctx, data, pub)
}

// Decrypt dispatches to DecryptECB or DecryptCBC.
func (c *Cipher) Decrypt(ctx context.Context, mode Mode, data []byte, key *KeyPair) ([]byte, error) {
	if mode == ModeCBC {
		return c.DecryptCBC(ctx, data, key)
	}
	return c.DecryptECB(ctx, data, key)
}

// geometry returns the plaintext and ciphertext block sizes for pub.
func geometry(pub PublicKey) (step, width int, err error) {
	if !pub.valid() {
		return 0, 0, ErrNilKey
	}
	width = pub.ModulusBytes()
	if width < 2 {
		return 0, 0, ErrKeyTooSmall
	}
	return width - 1, width, nil
}

// blockValue reads block i of plaintext as a big-endian integer, padding a
// short final block with zeros on the right.
func blockValue(data []byte, i, step int) *big.Int {
	start := i * step
	end := min(start+step, len(data))
	if end-start == step {
		return new(big.Int).SetBytes(data[start:end])
	}
	padded := make([]byte, step)
	copy(padded, data[start:end])
	return new(big.Int).SetBytes(padded)
}

// parallel runs fn for every block index in [0, total) on the worker pool,
// in contiguous shards. The context is checked between blocks.
func (c *Cipher) parallel(ctx context.Context, total int, prog *progress, fn func(i int) error) error {
	if total == 0 {
		return nil
	}
	shards := min(total, c.workers*4)
	per := (total + shards - 1) / shards

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for start := 0; start < total; start += per {
		end := min(start+per, total)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(i); err != nil {
					return err
				}
				prog.add(1)
			}
			return nil
		})
	}
	return g.Wait()
}
