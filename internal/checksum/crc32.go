package checksum

// Generator is the reflected CRC-32 polynomial used by PNG.
const Generator uint32 = 0xEDB88320

// table holds the 256 precomputed register transitions for Generator.
var table = makeTable(Generator)

// makeTable builds the byte-wise lookup table for a reflected polynomial.
func makeTable(poly uint32) [256]uint32 {
	var t [256]uint32
	for i := range t {
		entry := uint32(i)
		for range 8 {
			if entry&1 != 0 {
				entry = poly ^ (entry >> 1)
			} else {
				entry >>= 1
			}
		}
		t[i] = entry
	}
	return t
}

// Update feeds p into a running, uncomplemented register and returns the new
// register value. Start from Init and finish with Finish.
func Update(register uint32, p []byte) uint32 {
	for _, b := range p {
		register = table[byte(register)^b] ^ (register >> 8)
	}
	return register
}

// Init is the initial register value.
const Init uint32 = 0xFFFFFFFF

// Finish complements the register into the final checksum.
func Finish(register uint32) uint32 {
	return ^register
}

// Checksum returns the CRC-32 of p.
func Checksum(p []byte) uint32 {
	return Finish(Update(Init, p))
}

// Chunk returns the CRC-32 of a chunk type tag followed by its payload.
// The two slices are fed in sequence so no concatenated copy is made.
func Chunk(typeTag []byte, payload []byte) uint32 {
	return Finish(Update(Update(Init, typeTag), payload))
}

// Hash is a streaming CRC-32 accumulator.
// The zero value is not ready for use; create it with New.
type Hash struct {
	register uint32
}

// New returns a Hash with a fresh register.
func New() *Hash {
	return &Hash{register: Init}
}

// Write adds p to the running checksum. It never returns an error.
func (h *Hash) Write(p []byte) (int, error) {
	h.register = Update(h.register, p)
	return len(p), nil
}

// Sum32 returns the checksum of everything written so far.
func (h *Hash) Sum32() uint32 {
	return Finish(h.register)
}

// Reset restores the initial register.
func (h *Hash) Reset() {
	h.register = Init
}
