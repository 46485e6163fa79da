// Package chunk reads and writes the chunk records of a PNG container.
//
// A PNG file is an 8-byte signature followed by records of the form
//
//	[u32 length][4-byte type][length bytes payload][u32 CRC32]
//
// with all integers big-endian. The length field alone drives framing, so a
// record whose payload fails type-specific decoding is skipped without losing
// the position of the next record. Truncated framing is fatal.
//
// Every known chunk type has a Body implementation carrying decoded fields, a
// Validate method and a one-line Describe summary. Unknown types are kept as
// Opaque bodies.
package chunk
