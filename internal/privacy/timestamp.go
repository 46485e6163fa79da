package privacy

import (
	"context"

	"github.com/nao1215/pngcipher/internal/model"
)

var modificationTime = rule{
	typ:         "time_modified",
	title:       "Modification Time in tIME Chunk",
	description: "The tIME chunk records when the image was last changed.",
	risk:        model.RiskLow,
}

// TimestampAnalyzer reports tIME chunks.
type TimestampAnalyzer struct{}

// NewTimestampAnalyzer creates a new TimestampAnalyzer.
func NewTimestampAnalyzer() *TimestampAnalyzer {
	return &TimestampAnalyzer{}
}

// Name returns the analyzer name.
func (a *TimestampAnalyzer) Name() string {
	return "timestamp"
}

// Category returns the analyzer category.
func (a *TimestampAnalyzer) Category() string {
	return CategoryDevice
}

// Analyze reports every tIME chunk with its decoded description.
func (a *TimestampAnalyzer) Analyze(_ context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	for _, c := range data.Chunks {
		if c.Type == "tIME" {
			findings = append(findings, modificationTime.finding(c, c.Description))
		}
	}
	return findings, nil
}

// Ensure TimestampAnalyzer implements CheckAnalyzer.
var _ CheckAnalyzer = (*TimestampAnalyzer)(nil)
