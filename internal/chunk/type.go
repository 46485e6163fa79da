package chunk

// Type is a 4-character chunk type tag such as "IHDR".
type Type string

// Known chunk types.
const (
	TypeIHDR Type = "IHDR"
	TypePLTE Type = "PLTE"
	TypeIDAT Type = "IDAT"
	TypeIEND Type = "IEND"
	TypeTRNS Type = "tRNS"
	TypeCHRM Type = "cHRM"
	TypeSRGB Type = "sRGB"
	TypeGAMA Type = "gAMA"
	TypeTEXT Type = "tEXt"
	TypeZTXT Type = "zTXt"
	TypeITXT Type = "iTXt"
	TypeBKGD Type = "bKGD"
	TypeHIST Type = "hIST"
	TypePHYS Type = "pHYs"
	TypeSBIT Type = "sBIT"
	TypeSPLT Type = "sPLT"
	TypeTIME Type = "tIME"
	TypeOFFS Type = "oFFs"
	TypeSTER Type = "sTER"
	TypeEXIF Type = "eXIf"
)

// typeInfo holds the static capabilities of a known chunk type.
type typeInfo struct {
	preserve bool
	multiple bool
	newBody  func() Body
}

var registry = map[Type]typeInfo{
	TypeIHDR: {preserve: true, newBody: func() Body { return new(Header) }},
	TypePLTE: {preserve: true, newBody: func() Body { return new(Palette) }},
	TypeIDAT: {preserve: true, newBody: func() Body { return new(ImageData) }},
	TypeIEND: {preserve: true, newBody: func() Body { return new(End) }},
	TypeTRNS: {newBody: func() Body { return new(Transparency) }},
	TypeCHRM: {newBody: func() Body { return new(Chromaticity) }},
	TypeSRGB: {newBody: func() Body { return new(StandardRGB) }},
	TypeGAMA: {newBody: func() Body { return new(Gamma) }},
	TypeTEXT: {multiple: true, newBody: func() Body { return new(Text) }},
	TypeZTXT: {multiple: true, newBody: func() Body { return new(CompressedText) }},
	TypeITXT: {multiple: true, newBody: func() Body { return new(InternationalText) }},
	TypeBKGD: {newBody: func() Body { return new(Background) }},
	TypeHIST: {newBody: func() Body { return new(Histogram) }},
	TypePHYS: {newBody: func() Body { return new(PhysicalDimensions) }},
	TypeSBIT: {newBody: func() Body { return new(SignificantBits) }},
	TypeSPLT: {multiple: true, newBody: func() Body { return new(SuggestedPalette) }},
	TypeTIME: {newBody: func() Body { return new(Timestamp) }},
	TypeOFFS: {newBody: func() Body { return new(Offset) }},
	TypeSTER: {newBody: func() Body { return new(Stereo) }},
	TypeEXIF: {newBody: func() Body { return new(Exif) }},
}

// Known reports whether t is one of the decoded chunk types.
func (t Type) Known() bool {
	_, ok := registry[t]
	return ok
}

// Valid reports whether t consists of exactly four ASCII letters.
func (t Type) Valid() bool {
	if len(t) != 4 {
		return false
	}
	for i := range 4 {
		c := t[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// Critical reports whether the ancillary bit (case of the first letter) is clear.
func (t Type) Critical() bool {
	return len(t) == 4 && t[0] >= 'A' && t[0] <= 'Z'
}

// PreserveOnAnonymize reports whether anonymize keeps chunks of this type.
func (t Type) PreserveOnAnonymize() bool {
	return registry[t].preserve
}

// AllowsMultiple reports whether more than one chunk of this type may appear.
func (t Type) AllowsMultiple() bool {
	return registry[t].multiple
}

// String returns the tag itself.
func (t Type) String() string {
	return string(t)
}
