package deflate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// HeaderSize is the length of the zlib stream header (CMF and FLG bytes).
const HeaderSize = 2

// Compression levels accepted by Deflate.
const (
	NoCompression      = zlib.NoCompression
	BestSpeed          = zlib.BestSpeed
	BestCompression    = zlib.BestCompression
	DefaultCompression = zlib.DefaultCompression
)

var (
	// ErrShortStream is returned when the input cannot hold a zlib header.
	ErrShortStream = errors.New("zlib stream shorter than its header")

	// ErrInvalidHeader is returned when the zlib header does not announce
	// DEFLATE or fails its check bits.
	ErrInvalidHeader = errors.New("invalid zlib header")

	// ErrInvalidLevel is returned for a compression level outside -1..9.
	ErrInvalidLevel = errors.New("invalid compression level: must be between -1 and 9")
)

// CheckHeader validates the two zlib header bytes: compression method 8
// (DEFLATE) and CMF*256+FLG divisible by 31.
func CheckHeader(stream []byte) error {
	if len(stream) < HeaderSize {
		return ErrShortStream
	}
	cmf, flg := stream[0], stream[1]
	if cmf&0x0F != 8 {
		return fmt.Errorf("%w: compression method %d", ErrInvalidHeader, cmf&0x0F)
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return fmt.Errorf("%w: check bits mismatch", ErrInvalidHeader)
	}
	return nil
}

// Inflate decompresses a zlib stream after stripping its header.
func Inflate(stream []byte) ([]byte, error) {
	if err := CheckHeader(stream); err != nil {
		return nil, err
	}
	return InflateRaw(stream[HeaderSize:])
}

// InflateRaw decompresses a headerless DEFLATE body.
func InflateRaw(body []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(body))
	defer r.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("failed to inflate: %w", err)
	}
	return out.Bytes(), nil
}

// writerPools keeps one sync.Pool of zlib writers per compression level.
// Index 0 holds level -1 (DefaultCompression).
var writerPools [11]sync.Pool

// Deflate compresses data into a complete zlib stream at the given level.
func Deflate(data []byte, level int) ([]byte, error) {
	if level < DefaultCompression || level > BestCompression {
		return nil, ErrInvalidLevel
	}

	var out bytes.Buffer
	pool := &writerPools[level+1]

	w, ok := pool.Get().(*zlib.Writer)
	if ok {
		w.Reset(&out)
	} else {
		var err error
		w, err = zlib.NewWriterLevel(&out, level)
		if err != nil {
			return nil, fmt.Errorf("failed to create zlib writer: %w", err)
		}
	}
	defer pool.Put(w)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish zlib stream: %w", err)
	}
	return out.Bytes(), nil
}
