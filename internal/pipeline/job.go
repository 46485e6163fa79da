package pipeline

import (
	"github.com/nao1215/pngcipher/internal/chunk"
	"github.com/nao1215/pngcipher/internal/model"
	"github.com/nao1215/pngcipher/internal/rsa"
)

// Operation names a pipeline operation.
type Operation string

// Operations.
const (
	OpEncrypt   Operation = "encrypt"
	OpDecrypt   Operation = "decrypt"
	OpAnonymize Operation = "anonymize"
)

// Job is the state passed through the steps of one operation.
type Job struct {
	Operation Operation

	// Chunks is the parsed input.
	Chunks []*chunk.Chunk

	// HeaderChunk is the first valid IHDR chunk and Header its body.
	HeaderChunk *chunk.Chunk
	Header      *chunk.Header
	// EndChunk is the IEND chunk.
	EndChunk *chunk.Chunk
	// FirstImageData is the index in Chunks of the first IDAT chunk.
	FirstImageData int
	// Palette is the PLTE chunk, if any.
	Palette *chunk.Chunk

	// Data holds the bytes between steps: the zlib stream, then the
	// filtered scanlines, then raw pixel bytes, and so on.
	Data []byte

	// Key is the key pair used or produced by the operation.
	Key *rsa.KeyPair
	// KeyGenerated is true when the key was created by this job.
	KeyGenerated bool

	// Output is the rebuilt chunk list.
	Output []*chunk.Chunk

	// Performed lists the names of completed steps.
	Performed []string

	log model.LogFunc
}

// NewJob creates a Job for the given chunks.
func NewJob(op Operation, chunks []*chunk.Chunk, log model.LogFunc) *Job {
	if log == nil {
		log = model.DiscardLog
	}
	return &Job{
		Operation:      op,
		Chunks:         chunks,
		FirstImageData: -1,
		Performed:      make([]string, 0),
		log:            log,
	}
}
