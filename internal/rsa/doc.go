// Package rsa implements textbook RSA over arbitrary byte streams.
//
// Key generation draws probable primes with Miller-Rabin and derives the
// private exponent with the extended Euclidean algorithm. The Cipher encrypts
// data in fixed-size blocks in ECB mode, spread over a bounded worker pool, or
// in CBC mode, which is strictly sequential.
//
// Block layout: with k = len(N) in bytes, plaintext blocks hold k-1 bytes and
// ciphertext blocks hold k bytes. A short final plaintext block is padded
// with zeros on the right and its true length is not recorded.
//
// This is not padded RSA and must not be used to protect real secrets.
package rsa
