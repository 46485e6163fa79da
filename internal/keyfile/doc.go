// Package keyfile converts key pairs to and from PEM files.
//
// PKCS#1 ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") private keys are
// accepted on import. Export always writes PKCS#1.
package keyfile
