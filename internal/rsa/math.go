package rsa

import (
	"crypto/rand"
	"io"
	"math/big"
)

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// smallPrimes are used for trial division before Miller-Rabin.
var smallPrimes = []int64{3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97}

// ExtendedGCD returns g = gcd(a, b) and x, y with a*x + b*y = g.
func ExtendedGCD(a, b *big.Int) (g, x, y *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	q := new(big.Int)
	tmp := new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)

		tmp.Mul(q, r)
		oldR, r = r, new(big.Int).Sub(oldR, tmp)

		tmp.Mul(q, s)
		oldS, s = s, new(big.Int).Sub(oldS, tmp)

		tmp.Mul(q, t)
		oldT, t = t, new(big.Int).Sub(oldT, tmp)
	}
	return oldR, oldS, oldT
}

// ModInverse returns the x in [0, m) with a*x = 1 (mod m).
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, ErrNoInverse
	}
	g, x, _ := ExtendedGCD(new(big.Int).Mod(a, m), m)
	if g.Cmp(bigOne) != 0 {
		return nil, ErrNoInverse
	}
	return x.Mod(x, m), nil
}

// IsProbablePrime runs trial division followed by rounds Miller-Rabin
// iterations with bases drawn from random. The error probability for a
// composite is at most 4^-rounds.
func IsProbablePrime(n *big.Int, rounds int, random io.Reader) (bool, error) {
	if random == nil {
		random = rand.Reader
	}
	if n.Cmp(bigTwo) < 0 {
		return false, nil
	}
	if n.Cmp(bigTwo) == 0 {
		return true, nil
	}
	if n.Bit(0) == 0 {
		return false, nil
	}
	mod := new(big.Int)
	for _, sp := range smallPrimes {
		p := big.NewInt(sp)
		if n.Cmp(p) == 0 {
			return true, nil
		}
		if mod.Mod(n, p).Sign() == 0 {
			return false, nil
		}
	}

	// n-1 = d * 2^s with d odd
	nMinusOne := new(big.Int).Sub(n, bigOne)
	s := nMinusOne.TrailingZeroBits()
	d := new(big.Int).Rsh(nMinusOne, s)

	// bases are drawn from [2, n-2]
	span := new(big.Int).Sub(n, big.NewInt(3))
	x := new(big.Int)

outer:
	for range rounds {
		a, err := rand.Int(random, span)
		if err != nil {
			return false, err
		}
		a.Add(a, bigTwo)

		x.Exp(a, d, n)
		if x.Cmp(bigOne) == 0 || x.Cmp(nMinusOne) == 0 {
			continue
		}
		for range s - 1 {
			x.Mul(x, x).Mod(x, n)
			if x.Cmp(nMinusOne) == 0 {
				continue outer
			}
			if x.Cmp(bigOne) == 0 {
				return false, nil
			}
		}
		return false, nil
	}
	return true, nil
}

// gcd returns the greatest common divisor of a and b.
func gcd(a, b *big.Int) *big.Int {
	g, _, _ := ExtendedGCD(a, b)
	return g.Abs(g)
}
