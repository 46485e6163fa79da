// Package main provides the entry point for the pngcipher CLI.
//
// pngcipher encrypts, decrypts, anonymizes and inspects PNG images. The
// pixel data is encrypted with textbook RSA while the file stays a
// structurally valid PNG.
//
// Usage:
//
//	pngcipher encrypt photo.png
//	pngcipher decrypt --key <id> photo.encrypted.png
//	pngcipher anonymize photo.png
//	pngcipher inspect photo.png
//	pngcipher compare photo.png photo.anonymized.png
//
// See --help for all available options.
package main

// main is the entry point for pngcipher.
func main() {
	Execute()
}
