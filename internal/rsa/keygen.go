package rsa

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"
)

const (
	// DefaultRounds is the number of Miller-Rabin iterations per candidate.
	DefaultRounds = 40

	// MinKeyBits is the smallest accepted modulus size.
	MinKeyBits = 32
)

// Generator creates key pairs.
type Generator struct {
	rounds int
	random io.Reader
	logger *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRounds sets the Miller-Rabin iteration count. Values below
// DefaultRounds are raised to DefaultRounds.
func WithRounds(rounds int) GeneratorOption {
	return func(g *Generator) {
		g.rounds = max(rounds, DefaultRounds)
	}
}

// WithRandom sets the entropy source. It defaults to crypto/rand.Reader.
func WithRandom(r io.Reader) GeneratorOption {
	return func(g *Generator) {
		if r != nil {
			g.random = r
		}
	}
}

// WithGeneratorLogger sets the logger for candidate statistics.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rounds: DefaultRounds,
		random: rand.Reader,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate draws two distinct probable primes of bits/2 bits each until
// their product exceeds lowerBound, then derives the exponents: e is the
// smallest value of at least 3 coprime with phi, and d = e^-1 mod phi.
//
// Both primes have their two top bits set, so N always has exactly bits bits.
// The context is checked between candidate draws.
func (g *Generator) Generate(ctx context.Context, lowerBound *big.Int, bits int) (*KeyPair, error) {
	if bits < MinKeyBits || bits%16 != 0 {
		return nil, fmt.Errorf("%w: %d bits (must be a multiple of 16, at least %d)", ErrInvalidKeySize, bits, MinKeyBits)
	}
	if lowerBound == nil {
		lowerBound = new(big.Int)
	}
	if lowerBound.BitLen() > bits {
		return nil, fmt.Errorf("%w: a %d-bit modulus cannot exceed a %d-bit bound", ErrInvalidKeySize, bits, lowerBound.BitLen())
	}

	half := bits / 2
	attempts := 0
	for {
		attempts++
		p, err := g.prime(ctx, half)
		if err != nil {
			return nil, err
		}
		q, err := g.prime(ctx, half)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		if n.Cmp(lowerBound) <= 0 {
			continue
		}

		phi := new(big.Int).Mul(
			new(big.Int).Sub(p, bigOne),
			new(big.Int).Sub(q, bigOne),
		)

		// phi is even, so only odd exponents can be coprime with it.
		e := big.NewInt(3)
		for gcd(e, phi).Cmp(bigOne) != 0 {
			e.Add(e, bigTwo)
		}
		d, err := ModInverse(e, phi)
		if err != nil {
			return nil, fmt.Errorf("deriving private exponent: %w", err)
		}

		g.logger.Debug("key pair generated", "bits", n.BitLen(), "e", e.String(), "attempts", attempts)
		return &KeyPair{N: n, E: e, D: d, P: p, Q: q}, nil
	}
}

// prime returns a probable prime with exactly bits bits and its top two bits set.
func (g *Generator) prime(ctx context.Context, bits int) (*big.Int, error) {
	buf := make([]byte, (bits+7)/8)
	extra := uint(len(buf)*8 - bits) //nolint:gosec // 0..7
	candidates := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidates++

		if _, err := io.ReadFull(g.random, buf); err != nil {
			return nil, fmt.Errorf("reading random bytes: %w", err)
		}
		buf[0] &= 0xFF >> extra
		n := new(big.Int).SetBytes(buf)
		n.SetBit(n, bits-1, 1)
		n.SetBit(n, bits-2, 1)
		n.SetBit(n, 0, 1)

		ok, err := IsProbablePrime(n, g.rounds, g.random)
		if err != nil {
			return nil, err
		}
		if ok {
			g.logger.Debug("prime found", "bits", bits, "candidates", candidates)
			return n, nil
		}
	}
}

// GenerateKey is a convenience wrapper around a default Generator.
func GenerateKey(ctx context.Context, lowerBound *big.Int, bits int) (*KeyPair, error) {
	return NewGenerator().Generate(ctx, lowerBound, bits)
}
