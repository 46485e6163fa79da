// Package database provides SQLite-based storage for pngcipher.
//
// The Store keeps:
//   - Key pairs, addressed by the SHA3-256 fingerprint of their public part
//   - A journal of encrypt, decrypt and anonymize runs
//   - Saved inspection reports
//
// The database is a single file opened through modernc.org/sqlite, which
// needs no cgo. Key material is stored unencrypted, so the file is created
// with owner-only permissions.
package database
