package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/pngcipher/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to show are printed.
	showEmpty bool

	// verbose adds chunk descriptions and CRC values.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.InspectionReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeChunks(&sb, report)
	w.writeMetadata(&sb, report)
	w.writeFindings(&sb, report)
	w.writeEntries(&sb, report)
	w.writeFooter(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, ch string, title string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the file information and image header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.InspectionReport) {
	sb.WriteString("\n")
	rule(sb, "=", "                         PNG INSPECTION REPORT")

	fmt.Fprintf(sb, "File:      %s\n", report.File)
	fmt.Fprintf(sb, "Inspected: %s\n", report.DateInspected.Format(dateFormat))
	fmt.Fprintf(sb, "Size:      %d bytes\n", report.Size)

	if h := report.Header; h != nil {
		interlace := "none"
		if h.InterlaceMethod != 0 {
			interlace = "Adam7"
		}
		fmt.Fprintf(sb, "Image:     %dx%d, %d-bit %s, interlace %s\n",
			h.Width, h.Height, h.BitDepth, h.ColorType, interlace)
	}

	if report.Failed() {
		fmt.Fprintf(sb, "Status:    ERROR - %s\n", report.Error)
	} else {
		sb.WriteString("Status:    Complete\n")
	}
	sb.WriteString("\n")
}

// writeChunks writes one line per chunk.
func (w *SimpleWriter) writeChunks(sb *strings.Builder, report *model.InspectionReport) {
	rule(sb, "-", "CHUNKS")

	if len(report.Chunks) == 0 {
		sb.WriteString("  No chunks parsed\n\n")
		return
	}

	for _, c := range report.Chunks {
		marker := " "
		if !c.PreserveOnAnonymize {
			marker = "*"
		}
		fmt.Fprintf(sb, "  %s %3d  %-4s  %10d bytes  CRC %s", marker, c.Index, c.Type, c.Length, crcText(c))
		if w.verbose {
			fmt.Fprintf(sb, " (0x%08X)", c.CRC)
		}
		sb.WriteString("\n")
		if w.verbose && c.Description != "" {
			fmt.Fprintf(sb, "         %s\n", truncateString(c.Description, 90))
		}
	}
	sb.WriteString("\n  * removed by anonymize\n\n")
}

// writeMetadata writes the decoded key/value pairs.
func (w *SimpleWriter) writeMetadata(sb *strings.Builder, report *model.InspectionReport) {
	chunks := report.MetadataChunks()
	if len(chunks) == 0 && !w.showEmpty {
		return
	}

	rule(sb, "-", "METADATA")

	if len(chunks) == 0 {
		sb.WriteString("  No metadata found\n\n")
		return
	}

	for _, c := range chunks {
		keys := make([]string, 0, len(c.Metadata))
		for k := range c.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		fmt.Fprintf(sb, "  [%s #%d]\n", c.Type, c.Index)
		for _, k := range keys {
			fmt.Fprintf(sb, "    %s: %s\n", k, truncateString(c.Metadata[k], 80))
		}
	}
	sb.WriteString("\n")
}

// writeFindings writes the privacy findings, highest risk first.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.InspectionReport) {
	if len(report.Findings) == 0 && !w.showEmpty {
		return
	}

	rule(sb, "-", "PRIVACY FINDINGS")

	if len(report.Findings) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, f := range report.Findings {
		marker := " "
		if f.Removable {
			marker = "*"
		}
		fmt.Fprintf(sb, "  %s [%-8s] %s (%s)\n", marker, f.Risk, f.Title, f.Location)
		fmt.Fprintf(sb, "             %s\n", truncateString(f.Value, 80))
		if w.verbose {
			fmt.Fprintf(sb, "             %s\n", f.Description)
		}
	}
	sb.WriteString("\n  * removed by anonymize\n\n")
}

// writeEntries writes warnings and errors in the order they were logged.
func (w *SimpleWriter) writeEntries(sb *strings.Builder, report *model.InspectionReport) {
	if len(report.Entries) == 0 && !w.showEmpty {
		return
	}

	rule(sb, "-", "WARNINGS AND ERRORS")

	if len(report.Entries) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, e := range report.Entries {
		fmt.Fprintf(sb, "  [%s] %s\n", e.Severity, e.Message)
	}
	sb.WriteString("\n")
}

// writeFooter writes the summary counts.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.InspectionReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%d chunks, %d with bad CRC, %d warnings\n",
		len(report.Chunks), report.InvalidCRCCount(), report.WarningCount())
}
