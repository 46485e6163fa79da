package privacy

import (
	"context"
	"strings"

	"github.com/nao1215/pngcipher/internal/model"
)

var (
	textAuthor = rule{
		typ:         "text_author",
		title:       "Author or Copyright in Text Chunk",
		description: "A text chunk names the author or copyright owner of the image.",
		risk:        model.RiskHigh,
	}
	textSource = rule{
		typ:         "text_source",
		title:       "Source Device in Text Chunk",
		description: "A text chunk names the device used to create the image.",
		risk:        model.RiskMedium,
	}
	textSoftware = rule{
		typ:         "text_software",
		title:       "Software in Text Chunk",
		description: "A text chunk names the software used to create the image.",
		risk:        model.RiskLow,
	}
	textDateTime = rule{
		typ:         "text_datetime",
		title:       "Creation Time in Text Chunk",
		description: "A text chunk records when the image was created.",
		risk:        model.RiskLow,
	}
	textComment = rule{
		typ:         "text_comment",
		title:       "Free Text in Text Chunk",
		description: "Titles, descriptions and comments are written by people and may contain names or places.",
		risk:        model.RiskLow,
	}
	xmpLocation = rule{
		typ:         "xmp_location",
		title:       "Location in XMP",
		description: "XMP metadata names the place the image shows or was taken in.",
		risk:        model.RiskCritical,
	}
	xmpAuthor = rule{
		typ:         "xmp_author",
		title:       "Author or Rights Holder in XMP",
		description: "XMP metadata names the creator or rights holder of the image.",
		risk:        model.RiskHigh,
	}
)

// keywordRules maps the registered PNG text keywords, lowercased, to their rule.
var keywordRules = map[string]rule{
	"author":        textAuthor,
	"copyright":     textAuthor,
	"source":        textSource,
	"software":      textSoftware,
	"creation time": textDateTime,
	"title":         textComment,
	"description":   textComment,
	"comment":       textComment,
	"disclaimer":    textComment,
	"warning":       textComment,
}

// xmpRules maps full XMP property names to their rule.
var xmpRules = map[string]rule{
	"dc:creator":                xmpAuthor,
	"dc:rights":                 xmpAuthor,
	"dc:contributor":            xmpAuthor,
	"dc:publisher":              xmpAuthor,
	"xmpRights:Owner":           xmpAuthor,
	"photoshop:Credit":          xmpAuthor,
	"photoshop:AuthorsPosition": xmpAuthor,
	"photoshop:City":            xmpLocation,
	"photoshop:State":           xmpLocation,
	"photoshop:Country":         xmpLocation,
	"Iptc4xmpCore:Location":     xmpLocation,
}

// TextAnalyzer reports the registered PNG text keywords and the XMP
// properties that describe authorship or location.
type TextAnalyzer struct {
	keywords map[string]rule
	xmp      map[string]rule
}

// NewTextAnalyzer creates a new TextAnalyzer.
func NewTextAnalyzer() *TextAnalyzer {
	return &TextAnalyzer{keywords: keywordRules, xmp: xmpRules}
}

// Name returns the analyzer name.
func (a *TextAnalyzer) Name() string {
	return "text"
}

// Category returns the analyzer category.
func (a *TextAnalyzer) Category() string {
	return CategoryIdentity
}

// Analyze checks the keywords of every text chunk.
func (a *TextAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, e := range entries(data.Chunks) {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		var (
			r  rule
			ok bool
		)
		switch e.chunk.Type {
		case "tEXt", "zTXt":
			r, ok = a.keywords[strings.ToLower(e.key)]
		case "iTXt":
			if isXMPKey(e.key) {
				r, ok = a.xmp[e.key]
			} else {
				r, ok = a.keywords[strings.ToLower(e.key)]
			}
		}
		if ok {
			findings = append(findings, r.finding(e.chunk, e.key+": "+e.value))
		}
	}

	return findings, nil
}

// Ensure TextAnalyzer implements CheckAnalyzer.
var _ CheckAnalyzer = (*TextAnalyzer)(nil)
