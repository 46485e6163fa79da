// Package pipeline rewrites the pixel data of PNG images.
//
// An operation is a Pipeline of Steps run over a Job. Encrypt and decrypt
// locate the header, inflate the concatenated image data, defilter the
// scanlines, transform the raw bytes with RSA, re-emit every row with the
// None filter, deflate, and rebuild the chunk list with a single image data
// chunk at the position of the first original one. Anonymize keeps only the
// header, the palette, the merged image data and the end marker.
//
// The Processor assembles these pipelines for single images and files, and
// the BatchProcessor runs many files concurrently with errgroup.
package pipeline
