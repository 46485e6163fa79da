// Package checksum implements the CRC-32 used by PNG chunk records.
//
// The checksum is the reflected CRC-32 with generator polynomial 0xEDB88320,
// an all-ones initial register and a complemented result. It is computed over
// the 4-byte chunk type followed by the chunk payload, never over the length
// field.
package checksum
