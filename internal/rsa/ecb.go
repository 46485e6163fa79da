package rsa

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nao1215/pngcipher/internal/model"
)

// EncryptECB splits data into BlockSize-byte blocks and replaces each block m
// with m^e mod N written as a ModulusBytes-wide big-endian integer. A short
// final block is zero-padded, so the output always holds
// ceil(len(data)/BlockSize) full ciphertext blocks.
func (c *Cipher) EncryptECB(ctx context.Context, data []byte, pub PublicKey) ([]byte, error) {
	step, width, err := geometry(pub)
	if err != nil {
		return nil, err
	}
	blocks := (len(data) + step - 1) / step
	out := make([]byte, blocks*width)
	prog := newProgress(c.onProg, c.threshold, blocks)

	err = c.parallel(ctx, blocks, prog, func(i int) error {
		m := blockValue(data, i, step)
		if m.Cmp(pub.N) >= 0 {
			return &RangeError{Block: i}
		}
		m.Exp(m, pub.E, pub.N)
		m.FillBytes(out[i*width : (i+1)*width])
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("ecb encrypt finished", "blocks", blocks, "block_size", step, "workers", c.workers)
	return out, nil
}

// DecryptECB reverses EncryptECB. Bytes after the last whole ciphertext block
// are ignored with a warning. The output holds BlockSize bytes per block, so
// padding added to a short final block is not removed.
func (c *Cipher) DecryptECB(ctx context.Context, data []byte, key *KeyPair) ([]byte, error) {
	if !key.valid() {
		return nil, ErrNilKey
	}
	step, width, err := geometry(key.Public())
	if err != nil {
		return nil, err
	}
	blocks := len(data) / width
	if rest := len(data) % width; rest != 0 {
		c.onLog(model.SeverityWarning, fmt.Sprintf("ignoring %d trailing bytes after %d ciphertext blocks", rest, blocks))
	}
	bound := BlockBound(step)
	out := make([]byte, blocks*step)
	prog := newProgress(c.onProg, c.threshold, blocks)

	err = c.parallel(ctx, blocks, prog, func(i int) error {
		v := new(big.Int).SetBytes(data[i*width : (i+1)*width])
		if v.Cmp(key.N) >= 0 {
			return &RangeError{Block: i}
		}
		v.Exp(v, key.D, key.N)
		if v.Cmp(bound) > 0 {
			return &RangeError{Block: i}
		}
		v.FillBytes(out[i*step : (i+1)*step])
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("ecb decrypt finished", "blocks", blocks, "block_size", step, "workers", c.workers)
	return out, nil
}
