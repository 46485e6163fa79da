package chunk

import (
	"bytes"
	"fmt"
	"iter"

	exif "github.com/dsoprea/go-exif/v3"
)

// ExifTag is one decoded EXIF entry.
type ExifTag struct {
	IFD   string
	Name  string
	Value string
}

// Exif is the eXIf chunk: a TIFF-structured EXIF block.
type Exif struct {
	Tags []ExifTag
	Data []byte
}

// exifByteOrders are the two TIFF header prefixes an eXIf payload may start with.
var exifByteOrders = [][]byte{
	{'M', 'M', 0x00, 0x2A},
	{'I', 'I', 0x2A, 0x00},
}

func (e *Exif) decode(t Type, data []byte) error {
	e.Data = data
	if !bytes.HasPrefix(data, exifByteOrders[0]) && !bytes.HasPrefix(data, exifByteOrders[1]) {
		return invalid(t, "payload does not start with a TIFF header")
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return invalid(t, "locating EXIF data: %v", err)
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return invalid(t, "decoding EXIF data: %v", err)
	}

	e.Tags = make([]ExifTag, 0, len(entries))
	for _, entry := range entries {
		e.Tags = append(e.Tags, ExifTag{
			IFD:   entry.IfdPath,
			Name:  entry.TagName,
			Value: entry.Formatted,
		})
	}
	return nil
}

// Validate always succeeds once decoding found a TIFF header.
func (e *Exif) Validate() error { return nil }

// Describe returns a one-line summary.
func (e *Exif) Describe() string {
	return fmt.Sprintf("EXIF block, %d tags", len(e.Tags))
}

// Pairs yields tag names and formatted values.
func (e *Exif) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, tag := range e.Tags {
			if !yield(tag.Name, tag.Value) {
				return
			}
		}
	}
}

// HasLocation reports whether any GPS coordinate tag is present.
func (e *Exif) HasLocation() bool {
	for _, tag := range e.Tags {
		switch tag.Name {
		case "GPSLatitude", "GPSLongitude":
			return true
		}
	}
	return false
}
