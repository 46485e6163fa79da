// Package deflate wraps the zlib framing used by PNG image data and
// compressed text chunks.
//
// Image data inside a PNG is one zlib stream split across any number of IDAT
// chunks. Inflate strips the 2-byte zlib header and inflates the raw DEFLATE
// body that follows; the trailing Adler-32 is not checked. Deflate produces a
// complete zlib stream (header, body and Adler-32) ready to be stored in a
// single IDAT chunk.
//
// Compression is backed by github.com/klauspost/compress. Writers are pooled
// per compression level because a flate writer allocates several hundred
// kilobytes of state.
package deflate
