package chunk

import (
	"bytes"
	"fmt"
	"iter"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/nao1215/pngcipher/internal/deflate"
)

// XMPKeyword is the iTXt keyword under which XMP packets are stored.
const XMPKeyword = "XML:com.adobe.xmp"

// maxKeyword is the longest keyword PNG allows.
const maxKeyword = 79

// decodeLatin1 converts ISO-8859-1 bytes to a UTF-8 string.
func decodeLatin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func validateKeyword(t Type, keyword string) error {
	n := utf8.RuneCountInString(keyword)
	if n == 0 || n > maxKeyword {
		return invalid(t, "keyword length %d, expected 1 to %d", n, maxKeyword)
	}
	return nil
}

// splitKeyword splits a payload at its first NUL byte.
func splitKeyword(t Type, data []byte) ([]byte, []byte, error) {
	sep := bytes.IndexByte(data, 0)
	if sep < 0 {
		return nil, nil, invalid(t, "missing keyword terminator")
	}
	return data[:sep], data[sep+1:], nil
}

// summarize shortens long text for Describe.
func summarize(s string) string {
	const limit = 60
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}

// Text is the tEXt chunk.
type Text struct {
	Keyword string
	Text    string
}

func (x *Text) decode(t Type, data []byte) error {
	key, text, err := splitKeyword(t, data)
	if err != nil {
		return err
	}
	if x.Keyword, err = decodeLatin1(key); err != nil {
		return invalid(t, "keyword: %v", err)
	}
	if x.Text, err = decodeLatin1(text); err != nil {
		return invalid(t, "text: %v", err)
	}
	return nil
}

// Validate checks the keyword length.
func (x *Text) Validate() error {
	return validateKeyword(TypeTEXT, x.Keyword)
}

// Describe returns a one-line summary.
func (x *Text) Describe() string {
	return fmt.Sprintf("%s: %s", x.Keyword, summarize(x.Text))
}

// Pairs yields the keyword and text.
func (x *Text) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		yield(x.Keyword, x.Text)
	}
}

// CompressedText is the zTXt chunk.
type CompressedText struct {
	Keyword           string
	CompressionMethod uint8
	Text              string
}

func (x *CompressedText) decode(t Type, data []byte) error {
	key, rest, err := splitKeyword(t, data)
	if err != nil {
		return err
	}
	if x.Keyword, err = decodeLatin1(key); err != nil {
		return invalid(t, "keyword: %v", err)
	}
	if len(rest) == 0 {
		return invalid(t, "missing compression method")
	}
	x.CompressionMethod = rest[0]
	if x.CompressionMethod != 0 {
		return invalid(t, "unknown compression method %d", x.CompressionMethod)
	}
	raw, err := deflate.Inflate(rest[1:])
	if err != nil {
		return invalid(t, "decompressing text: %v", err)
	}
	if x.Text, err = decodeLatin1(raw); err != nil {
		return invalid(t, "text: %v", err)
	}
	return nil
}

// Validate checks the keyword length.
func (x *CompressedText) Validate() error {
	return validateKeyword(TypeZTXT, x.Keyword)
}

// Describe returns a one-line summary.
func (x *CompressedText) Describe() string {
	return fmt.Sprintf("%s (compressed): %s", x.Keyword, summarize(x.Text))
}

// Pairs yields the keyword and decompressed text.
func (x *CompressedText) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		yield(x.Keyword, x.Text)
	}
}

// InternationalText is the iTXt chunk.
type InternationalText struct {
	Keyword           string
	Compressed        bool
	CompressionMethod uint8
	LanguageTag       string
	TranslatedKeyword string
	// Text is the UTF-8 text, decompressed when Compressed is set.
	Text string
}

func (x *InternationalText) decode(t Type, data []byte) error {
	key, rest, err := splitKeyword(t, data)
	if err != nil {
		return err
	}
	if x.Keyword, err = decodeLatin1(key); err != nil {
		return invalid(t, "keyword: %v", err)
	}
	if len(rest) < 2 {
		return invalid(t, "missing compression flag and method")
	}
	switch rest[0] {
	case 0:
		x.Compressed = false
	case 1:
		x.Compressed = true
	default:
		return invalid(t, "compression flag %d, expected 0 or 1", rest[0])
	}
	x.CompressionMethod = rest[1]

	lang, rest, err := splitKeyword(t, rest[2:])
	if err != nil {
		return invalid(t, "missing language tag terminator")
	}
	translated, text, err := splitKeyword(t, rest)
	if err != nil {
		return invalid(t, "missing translated keyword terminator")
	}
	x.LanguageTag = string(lang)
	x.TranslatedKeyword = string(translated)

	if x.Compressed {
		if x.CompressionMethod != 0 {
			return invalid(t, "unknown compression method %d", x.CompressionMethod)
		}
		if text, err = deflate.Inflate(text); err != nil {
			return invalid(t, "decompressing text: %v", err)
		}
	}
	if !utf8.Valid(text) {
		return invalid(t, "text is not valid UTF-8")
	}
	x.Text = string(text)
	return nil
}

// Validate checks the keyword length.
func (x *InternationalText) Validate() error {
	return validateKeyword(TypeITXT, x.Keyword)
}

// IsXMP reports whether the chunk carries an XMP packet.
func (x *InternationalText) IsXMP() bool {
	return x.Keyword == XMPKeyword
}

// Describe returns a one-line summary.
func (x *InternationalText) Describe() string {
	if x.IsXMP() {
		n := 0
		for range x.XMP() {
			n++
		}
		return fmt.Sprintf("XMP packet, %d properties", n)
	}
	lang := ""
	if x.LanguageTag != "" {
		lang = " [" + x.LanguageTag + "]"
	}
	return fmt.Sprintf("%s%s: %s", x.Keyword, lang, summarize(x.Text))
}

// XMP lazily yields the property name and value pairs of an XMP packet.
// The sequence is empty for chunks that do not carry XMP.
func (x *InternationalText) XMP() iter.Seq2[string, string] {
	if !x.IsXMP() {
		return func(func(string, string) bool) {}
	}
	return xmpPairs(x.Text)
}

// Pairs yields the XMP properties for an XMP packet, otherwise the keyword
// and text.
func (x *InternationalText) Pairs() iter.Seq2[string, string] {
	if x.IsXMP() {
		return x.XMP()
	}
	return func(yield func(string, string) bool) {
		yield(x.Keyword, x.Text)
	}
}

// Metadata is implemented by bodies that carry textual key/value metadata.
type Metadata interface {
	Pairs() iter.Seq2[string, string]
}
