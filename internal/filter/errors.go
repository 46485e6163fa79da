package filter

import "errors"

var (
	// ErrUnknownFilter is returned for a filter type byte above 4.
	ErrUnknownFilter = errors.New("unknown filter type")

	// ErrShortRow is returned when a row holds fewer bytes than the image
	// width requires.
	ErrShortRow = errors.New("row shorter than expected")

	// ErrInvalidGeometry is returned when width, channels or bit depth
	// cannot describe an image.
	ErrInvalidGeometry = errors.New("invalid image geometry")
)
