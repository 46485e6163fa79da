package chunk

import "fmt"

// ImageData is an IDAT chunk: a slice of the zlib stream.
type ImageData struct {
	Data []byte
}

func (d *ImageData) decode(_ Type, data []byte) error {
	d.Data = data
	return nil
}

// Validate always succeeds; the stream is only checked once all IDAT chunks
// are concatenated.
func (d *ImageData) Validate() error { return nil }

// Describe returns a one-line summary.
func (d *ImageData) Describe() string {
	return fmt.Sprintf("%d bytes of compressed image data", len(d.Data))
}

// End is the IEND marker.
type End struct {
	length int
}

func (e *End) decode(_ Type, data []byte) error {
	e.length = len(data)
	return nil
}

// Validate requires an empty payload.
func (e *End) Validate() error {
	if e.length != 0 {
		return wrongLength(TypeIEND, e.length, 0)
	}
	return nil
}

// Describe returns a one-line summary.
func (e *End) Describe() string {
	return "end of image"
}

// Opaque holds a chunk of an unrecognized type.
type Opaque struct {
	Type Type
	Data []byte
}

func (o *Opaque) decode(t Type, data []byte) error {
	o.Type = t
	o.Data = data
	return nil
}

// Validate always succeeds.
func (o *Opaque) Validate() error { return nil }

// Describe returns a one-line summary.
func (o *Opaque) Describe() string {
	kind := "ancillary"
	if o.Type.Critical() {
		kind = "critical"
	}
	return fmt.Sprintf("unknown %s chunk", kind)
}
