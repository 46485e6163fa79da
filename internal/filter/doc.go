// Package filter reverses and applies PNG scanline filtering.
//
// Each scanline of a non-interlaced image is prefixed by a filter type byte.
// Decoding a row needs the previously decoded row, so an Engine keeps that
// row between calls and must be used for exactly one image, by one goroutine.
package filter
