package model

import (
	"sort"
	"time"
)

// ChunkSummary describes one chunk record of an inspected file.
type ChunkSummary struct {
	// Index is the zero-based position of the chunk among the parsed chunks.
	Index int `json:"index"`

	// Type is the 4-character chunk type tag.
	Type string `json:"type"`

	// Length is the declared payload length in bytes.
	Length uint32 `json:"length"`

	// CRC is the checksum stored in the file.
	CRC uint32 `json:"crc"`

	// CRCValid is false when CRC does not match the computed checksum.
	CRCValid bool `json:"crc_valid"`

	// Known is false for chunk types the codec keeps as opaque records.
	Known bool `json:"known"`

	// Description is a one-line decoded summary of the payload.
	Description string `json:"description"`

	// Metadata holds decoded key/value pairs for text, XMP and EXIF chunks.
	Metadata map[string]string `json:"metadata,omitempty"`

	// PreserveOnAnonymize reports whether anonymize keeps this chunk.
	PreserveOnAnonymize bool `json:"preserve_on_anonymize"`
}

// HeaderSummary is the decoded image header.
type HeaderSummary struct {
	Width             uint32 `json:"width"`
	Height            uint32 `json:"height"`
	BitDepth          uint8  `json:"bit_depth"`
	ColorType         string `json:"color_type"`
	CompressionMethod uint8  `json:"compression_method"`
	FilterMethod      uint8  `json:"filter_method"`
	InterlaceMethod   uint8  `json:"interlace_method"`
}

// InspectionReport is the structured result of reading a PNG container.
type InspectionReport struct {
	// File is the path or name of the inspected input.
	File string `json:"file"`

	// DateInspected is when the inspection ran.
	DateInspected time.Time `json:"date_inspected"`

	// Size is the total number of bytes consumed from the input.
	Size int64 `json:"size"`

	// Header is the decoded image header, nil when the header chunk was
	// missing or invalid.
	Header *HeaderSummary `json:"header,omitempty"`

	// Chunks lists every successfully parsed chunk in file order.
	Chunks []ChunkSummary `json:"chunks"`

	// Entries holds the warnings and errors emitted while parsing.
	Entries []Entry `json:"entries,omitempty"`

	// Findings lists metadata that may identify the author of the image.
	Findings []Finding `json:"findings,omitempty"`

	// Error is set when parsing aborted on a structural failure.
	Error string `json:"error,omitempty"`
}

// NewInspectionReport creates an empty report for the named input.
func NewInspectionReport(file string) *InspectionReport {
	return &InspectionReport{
		File:          file,
		DateInspected: time.Now(),
		Chunks:        make([]ChunkSummary, 0),
		Entries:       make([]Entry, 0),
	}
}

// AddChunk appends a chunk summary and assigns its index.
func (r *InspectionReport) AddChunk(summary ChunkSummary) {
	summary.Index = len(r.Chunks)
	r.Chunks = append(r.Chunks, summary)
}

// AddEntry records a warning or error. Info entries are not stored because
// every chunk already appears in Chunks.
func (r *InspectionReport) AddEntry(severity Severity, message string) {
	if severity == SeverityInfo {
		return
	}
	r.Entries = append(r.Entries, Entry{Severity: severity, Message: message})
}

// InvalidCRCCount returns the number of chunks whose checksum did not match.
func (r *InspectionReport) InvalidCRCCount() int {
	n := 0
	for _, c := range r.Chunks {
		if !c.CRCValid {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning entries.
func (r *InspectionReport) WarningCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// TypeCount is the number of chunks of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// TypeCounts returns chunk counts per type, ordered by first appearance.
func (r *InspectionReport) TypeCounts() []TypeCount {
	order := make([]string, 0)
	counts := make(map[string]int)
	for _, c := range r.Chunks {
		if _, seen := counts[c.Type]; !seen {
			order = append(order, c.Type)
		}
		counts[c.Type]++
	}

	result := make([]TypeCount, 0, len(order))
	for _, t := range order {
		result = append(result, TypeCount{Type: t, Count: counts[t]})
	}
	return result
}

// MetadataChunks returns the chunks that carry decoded metadata, sorted by index.
func (r *InspectionReport) MetadataChunks() []ChunkSummary {
	result := make([]ChunkSummary, 0)
	for _, c := range r.Chunks {
		if len(c.Metadata) > 0 {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result
}

// Failed reports whether parsing aborted.
func (r *InspectionReport) Failed() bool {
	return r.Error != ""
}

// HighestRisk returns the highest risk among the findings and false when
// there are none.
func (r *InspectionReport) HighestRisk() (Risk, bool) {
	if len(r.Findings) == 0 {
		return RiskLow, false
	}
	highest := r.Findings[0].Risk
	for _, f := range r.Findings[1:] {
		highest = max(highest, f.Risk)
	}
	return highest, true
}
