package privacy

import (
	"context"

	"github.com/nao1215/pngcipher/internal/model"
)

var (
	exifGPS = rule{
		typ:         "exif_gps",
		title:       "GPS Coordinates in EXIF",
		description: "The image carries GPS coordinates, revealing where it was taken.",
		risk:        model.RiskCritical,
	}
	exifCamera = rule{
		typ:         "exif_camera",
		title:       "Camera Information in EXIF",
		description: "The camera or lens make and model help identify the device used.",
		risk:        model.RiskMedium,
	}
	exifSerial = rule{
		typ:         "exif_serial",
		title:       "Device Serial Number in EXIF",
		description: "A serial number uniquely identifies the device and links every image it made.",
		risk:        model.RiskHigh,
	}
	exifSoftware = rule{
		typ:         "exif_software",
		title:       "Software Information in EXIF",
		description: "The editing software or operating system used to produce the image.",
		risk:        model.RiskLow,
	}
	exifAuthor = rule{
		typ:         "exif_author",
		title:       "Author or Copyright in EXIF",
		description: "The image names its author or copyright owner.",
		risk:        model.RiskHigh,
	}
	exifDateTime = rule{
		typ:         "exif_datetime",
		title:       "Timestamp in EXIF",
		description: "Capture or edit times can reveal a time zone and activity patterns.",
		risk:        model.RiskLow,
	}
	exifComputer = rule{
		typ:         "exif_computer",
		title:       "Host Computer in EXIF",
		description: "The name of the computer used to process the image.",
		risk:        model.RiskMedium,
	}
)

// exifRules maps EXIF tag names, which are also the local names of the
// matching XMP properties, to their rule.
var exifRules = map[string]rule{
	"GPSLatitude":     exifGPS,
	"GPSLongitude":    exifGPS,
	"GPSLatitudeRef":  exifGPS,
	"GPSLongitudeRef": exifGPS,
	"GPSAltitude":     exifGPS,

	"Make":      exifCamera,
	"Model":     exifCamera,
	"LensMake":  exifCamera,
	"LensModel": exifCamera,

	"SerialNumber":       exifSerial,
	"CameraSerialNumber": exifSerial,
	"BodySerialNumber":   exifSerial,
	"LensSerialNumber":   exifSerial,

	"Software":           exifSoftware,
	"ProcessingSoftware": exifSoftware,
	"CreatorTool":        exifSoftware,

	"Artist":          exifAuthor,
	"Author":          exifAuthor,
	"Copyright":       exifAuthor,
	"XPAuthor":        exifAuthor,
	"OwnerName":       exifAuthor,
	"CameraOwnerName": exifAuthor,

	"DateTimeOriginal":  exifDateTime,
	"DateTimeDigitized": exifDateTime,
	"DateTime":          exifDateTime,
	"CreateDate":        exifDateTime,
	"ModifyDate":        exifDateTime,

	"HostComputer": exifComputer,
}

// EXIFAnalyzer reports identifying EXIF tags, whether they come from an
// eXIf chunk or from the equivalent XMP properties in an iTXt chunk.
//
// This analyzer checks for:
//   - GPS coordinates (location disclosure)
//   - Camera make/model/serial (device identification)
//   - Software information (editing software, OS)
//   - Timestamps (timezone inference)
//   - Author/copyright information (identity disclosure)
type EXIFAnalyzer struct {
	rules map[string]rule
}

// NewEXIFAnalyzer creates a new EXIFAnalyzer.
func NewEXIFAnalyzer() *EXIFAnalyzer {
	return &EXIFAnalyzer{rules: exifRules}
}

// Name returns the analyzer name.
func (a *EXIFAnalyzer) Name() string {
	return "exif"
}

// Category returns the analyzer category.
func (a *EXIFAnalyzer) Category() string {
	return CategoryDevice
}

// Analyze checks every EXIF tag and XMP property.
func (a *EXIFAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, e := range entries(data.Chunks) {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		var name string
		switch {
		case e.chunk.Type == "eXIf":
			name = e.key
		case isXMPKey(e.key):
			name = localName(e.key)
		default:
			continue
		}

		if r, ok := a.rules[name]; ok {
			findings = append(findings, r.finding(e.chunk, e.key+": "+e.value))
		}
	}

	return findings, nil
}

// Ensure EXIFAnalyzer implements CheckAnalyzer.
var _ CheckAnalyzer = (*EXIFAnalyzer)(nil)
