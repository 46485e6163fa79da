package keyfile

import (
	"bytes"
	stdrsa "crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/nao1215/pngcipher/internal/rsa"
)

// PEM block types.
const (
	TypePKCS1Private = "RSA PRIVATE KEY"
	TypePKCS8Private = "PRIVATE KEY"
	TypePKCS1Public  = "RSA PUBLIC KEY"
)

var (
	// ErrNoPEMBlock is returned when the input holds no PEM block.
	ErrNoPEMBlock = errors.New("no PEM block found")

	// ErrUnsupportedBlock is returned for PEM blocks other than RSA private keys.
	ErrUnsupportedBlock = errors.New("unsupported PEM block type")

	// ErrNotRSA is returned when a PKCS#8 key holds a non-RSA key.
	ErrNotRSA = errors.New("PKCS#8 key is not an RSA key")

	// ErrMissingPrimes is returned when exporting a key pair without its primes.
	ErrMissingPrimes = errors.New("key pair has no primes; cannot export")

	// ErrExponentTooLarge is returned when e does not fit a platform int.
	ErrExponentTooLarge = errors.New("public exponent too large")
)

// Decode parses the first PEM block of data into a key pair.
func Decode(data []byte) (*rsa.KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}

	var key *stdrsa.PrivateKey
	switch block.Type {
	case TypePKCS1Private:
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#1 key: %w", err)
		}
		key = k
	case TypePKCS8Private:
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#8 key: %w", err)
		}
		rk, ok := k.(*stdrsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNotRSA, k)
		}
		key = rk
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBlock, block.Type)
	}

	pair := &rsa.KeyPair{
		N: new(big.Int).Set(key.N),
		E: big.NewInt(int64(key.E)),
		D: new(big.Int).Set(key.D),
	}
	if len(key.Primes) == 2 {
		pair.P = new(big.Int).Set(key.Primes[0])
		pair.Q = new(big.Int).Set(key.Primes[1])
	}
	return pair, nil
}

// Read reads all of r and decodes it.
func Read(r io.Reader) (*rsa.KeyPair, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	return Decode(data)
}

// Load reads a PEM key file.
func Load(path string) (*rsa.KeyPair, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied key path
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return Decode(data)
}

func toStd(pair *rsa.KeyPair) (*stdrsa.PrivateKey, error) {
	if pair == nil || pair.N == nil || pair.E == nil || pair.D == nil {
		return nil, rsa.ErrNilKey
	}
	if pair.P == nil || pair.Q == nil {
		return nil, ErrMissingPrimes
	}
	if !pair.E.IsInt64() || pair.E.Int64() > 1<<31-1 {
		return nil, ErrExponentTooLarge
	}
	key := &stdrsa.PrivateKey{
		PublicKey: stdrsa.PublicKey{N: new(big.Int).Set(pair.N), E: int(pair.E.Int64())},
		D:         new(big.Int).Set(pair.D),
		Primes:    []*big.Int{new(big.Int).Set(pair.P), new(big.Int).Set(pair.Q)},
	}
	key.Precompute()
	return key, nil
}

// Encode returns the key pair as a PKCS#1 PEM private key.
func Encode(pair *rsa.KeyPair) ([]byte, error) {
	key, err := toStd(pair)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pem.Encode(&buf, &pem.Block{Type: TypePKCS1Private, Bytes: x509.MarshalPKCS1PrivateKey(key)}); err != nil {
		return nil, fmt.Errorf("failed to encode PEM: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePublic returns the public half as a PKCS#1 PEM public key.
func EncodePublic(pub rsa.PublicKey) ([]byte, error) {
	if pub.N == nil || pub.E == nil {
		return nil, rsa.ErrNilKey
	}
	if !pub.E.IsInt64() || pub.E.Int64() > 1<<31-1 {
		return nil, ErrExponentTooLarge
	}
	key := &stdrsa.PublicKey{N: pub.N, E: int(pub.E.Int64())}
	return pem.EncodeToMemory(&pem.Block{Type: TypePKCS1Public, Bytes: x509.MarshalPKCS1PublicKey(key)}), nil
}

// Save writes the key pair to path as PKCS#1 PEM with owner-only permissions.
func Save(path string, pair *rsa.KeyPair) error {
	data, err := Encode(pair)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
