package rsa

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/nao1215/pngcipher/internal/model"
)

// EncryptCBC encrypts data with chaining. A chain value starts at a random
// initialization vector below N, which is written as the first output block.
// Each plaintext block is XORed with the low 8*BlockSize bits of the chain
// value before exponentiation, and the resulting ciphertext block becomes the
// new chain value. Blocks are processed strictly in order.
func (c *Cipher) EncryptCBC(ctx context.Context, data []byte, pub PublicKey) ([]byte, error) {
	step, width, err := geometry(pub)
	if err != nil {
		return nil, err
	}
	iv, err := rand.Int(c.random, pub.N)
	if err != nil {
		return nil, fmt.Errorf("drawing initialization vector: %w", err)
	}

	blocks := (len(data) + step - 1) / step
	out := make([]byte, (blocks+1)*width)
	iv.FillBytes(out[:width])

	mask := BlockBound(step)
	chain := iv
	low := new(big.Int)
	prog := newProgress(c.onProg, c.threshold, blocks)

	for i := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := blockValue(data, i, step)
		m.Xor(m, low.And(chain, mask))
		if m.Cmp(pub.N) >= 0 {
			return nil, &RangeError{Block: i}
		}
		m.Exp(m, pub.E, pub.N)
		m.FillBytes(out[(i+1)*width : (i+2)*width])
		chain = m
		prog.add(1)
	}
	c.logger.Debug("cbc encrypt finished", "blocks", blocks, "block_size", step)
	return out, nil
}

// DecryptCBC reverses EncryptCBC. Each block is decrypted and XORed with the
// low bits of the previous chain value: the initialization vector for the
// first block, then the previous ciphertext block.
func (c *Cipher) DecryptCBC(ctx context.Context, data []byte, key *KeyPair) ([]byte, error) {
	if !key.valid() {
		return nil, ErrNilKey
	}
	step, width, err := geometry(key.Public())
	if err != nil {
		return nil, err
	}
	if len(data) < width {
		return nil, ErrMissingIV
	}
	blocks := len(data)/width - 1
	if rest := len(data) % width; rest != 0 {
		c.onLog(model.SeverityWarning, fmt.Sprintf("ignoring %d trailing bytes after %d ciphertext blocks", rest, blocks))
	}

	chain := new(big.Int).SetBytes(data[:width])
	if chain.Cmp(key.N) >= 0 {
		return nil, fmt.Errorf("initialization vector: %w", ErrMessageTooLarge)
	}
	mask := BlockBound(step)
	low := new(big.Int)
	out := make([]byte, blocks*step)
	prog := newProgress(c.onProg, c.threshold, blocks)

	for i := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ct := new(big.Int).SetBytes(data[(i+1)*width : (i+2)*width])
		if ct.Cmp(key.N) >= 0 {
			return nil, &RangeError{Block: i}
		}
		m := new(big.Int).Exp(ct, key.D, key.N)
		if m.Cmp(mask) > 0 {
			return nil, &RangeError{Block: i}
		}
		m.Xor(m, low.And(chain, mask))
		m.FillBytes(out[i*step : (i+1)*step])
		chain = ct
		prog.add(1)
	}
	c.logger.Debug("cbc decrypt finished", "blocks", blocks, "block_size", step)
	return out, nil
}
