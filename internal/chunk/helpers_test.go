package chunk

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/nao1215/pngcipher/internal/checksum"
	"github.com/nao1215/pngcipher/internal/model"
)

// record frames a payload with a correct CRC.
func record(t Type, payload []byte) []byte {
	return recordWithCRC(t, payload, checksum.Chunk([]byte(t), payload))
}

// recordWithCRC frames a payload with the given CRC.
func recordWithCRC(t Type, payload []byte, crc uint32) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(payload)))
	buf.WriteString(string(t))
	buf.Write(payload)
	_ = binary.Write(&buf, binary.BigEndian, crc)
	return buf.Bytes()
}

// headerPayload builds a 13-byte IHDR payload.
func headerPayload(w, h uint32, depth uint8, ct ColorType, interlace uint8) []byte {
	hdr := &Header{Width: w, Height: h, BitDepth: depth, ColorType: ct, InterlaceMethod: interlace}
	return hdr.Bytes()
}

// stream concatenates records.
func stream(records ...[]byte) *bytes.Reader {
	return bytes.NewReader(bytes.Join(records, nil))
}

// newTestParser returns a parser that records every log entry.
func newTestParser(t *testing.T) (*Parser, *model.Recorder) {
	t.Helper()
	rec := model.NewRecorder()
	return NewParser(WithLogFunc(rec.Log)), rec
}
