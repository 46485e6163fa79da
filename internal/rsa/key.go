package rsa

import (
	"encoding/hex"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// PublicKey is the public half of a key pair.
type PublicKey struct {
	N *big.Int
	E *big.Int
}

// KeyPair holds the modulus and both exponents. P and Q are kept when known
// so the pair can be exported in standard formats.
type KeyPair struct {
	N *big.Int
	E *big.Int
	D *big.Int

	P *big.Int
	Q *big.Int
}

// Public returns the public half.
func (k *KeyPair) Public() PublicKey {
	return PublicKey{N: k.N, E: k.E}
}

// Bits returns the bit length of the modulus.
func (k *KeyPair) Bits() int {
	return k.N.BitLen()
}

func (k *KeyPair) valid() bool {
	return k != nil && k.N != nil && k.E != nil && k.D != nil
}

func (p PublicKey) valid() bool {
	return p.N != nil && p.E != nil
}

// ModulusBytes returns the ciphertext block size in bytes.
func (p PublicKey) ModulusBytes() int {
	return (p.N.BitLen() + 7) / 8
}

// BlockSize returns the plaintext block size in bytes.
func (p PublicKey) BlockSize() int {
	return p.ModulusBytes() - 1
}

// Fingerprint returns the hex SHA3-256 digest of the modulus and public
// exponent, each as big-endian bytes.
func (p PublicKey) Fingerprint() string {
	h := sha3.New256()
	h.Write(p.N.Bytes())
	h.Write(p.E.Bytes())
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the fingerprint of the public half.
func (k *KeyPair) Fingerprint() string {
	return k.Public().Fingerprint()
}

// BlockBound returns the largest value a plaintext block of BlockSize bytes
// can hold, 2^(8*BlockSize) - 1.
func BlockBound(blockSize int) *big.Int {
	bound := new(big.Int).Lsh(big.NewInt(1), uint(8*blockSize)) //nolint:gosec // non-negative
	return bound.Sub(bound, big.NewInt(1))
}
