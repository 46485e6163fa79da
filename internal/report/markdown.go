package report

import (
	"io"
	"slices"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pngcipher/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown, built with
// nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.InspectionReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeChunks(md, report)
	w.writeMetadata(md, report)
	w.writeFindings(md, report)
	w.writeEntries(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with file information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.InspectionReport) {
	md.H1("PNG Inspection Report")
	md.PlainText("")

	rows := [][]string{
		{"File", "`" + report.File + "`"},
		{"Inspected", report.DateInspected.Format(dateFormat)},
		{"Size", strconv.FormatInt(report.Size, 10) + " bytes"},
	}
	if h := report.Header; h != nil {
		rows = append(rows,
			[]string{"Dimensions", strconv.FormatUint(uint64(h.Width), 10) + " x " + strconv.FormatUint(uint64(h.Height), 10)},
			[]string{"Color", strconv.Itoa(int(h.BitDepth)) + "-bit " + h.ColorType},
			[]string{"Interlaced", strconv.FormatBool(h.InterlaceMethod != 0)},
		)
	}
	rows = append(rows, []string{"Status", w.getStatusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.InspectionReport) string {
	if report.Failed() {
		return "❌ Error - " + report.Error
	}
	if report.InvalidCRCCount() > 0 || report.WarningCount() > 0 {
		return "⚠️ Complete with warnings"
	}
	return "✅ Complete"
}

// writeSummary writes per-type counts, a pie chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.InspectionReport) {
	md.H2("Chunk Types")
	md.PlainText("")

	counts := report.TypeCounts()
	rows := make([][]string, 0, len(counts))
	for _, tc := range counts {
		rows = append(rows, []string{"`" + tc.Type + "`", strconv.Itoa(tc.Count)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(report.Chunks)) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(counts) > 0 {
		w.writePieChart(md, counts)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the chunk type distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts []model.TypeCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Chunk Type Distribution"),
		piechart.WithShowData(true),
	)
	for _, tc := range counts {
		chart.LabelAndIntValue(tc.Type, uint64(tc.Count)) //nolint:gosec // counts are positive
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the report's state.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.InspectionReport) {
	metadata := 0
	for _, c := range report.Chunks {
		if !c.PreserveOnAnonymize {
			metadata++
		}
	}

	switch {
	case report.Failed():
		md.Cautionf("Parsing stopped early: %s", report.Error)
	case report.InvalidCRCCount() > 0:
		md.Warningf("%d chunk(s) failed the CRC check.", report.InvalidCRCCount())
	case len(report.Findings) > 0:
		risk, _ := report.HighestRisk()
		md.Warningf("%d privacy finding(s), highest risk %s.", len(report.Findings), risk)
	case metadata > 0:
		md.Importantf("%d chunk(s) would be removed by anonymize.", metadata)
	default:
		md.Tip("No ancillary chunks found.")
	}
	md.PlainText("")
}

// writeChunks writes the chunk table.
func (w *MarkdownWriter) writeChunks(md *markdown.Markdown, report *model.InspectionReport) {
	md.H2("Chunks")
	md.PlainText("")

	if len(report.Chunks) == 0 {
		md.PlainText("No chunks parsed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Chunks))
	for i, c := range report.Chunks {
		kept := "yes"
		if !c.PreserveOnAnonymize {
			kept = "no"
		}
		desc := c.Description
		if desc == "" {
			desc = "-"
		}
		rows[i] = []string{
			strconv.Itoa(c.Index),
			"`" + c.Type + "`",
			strconv.FormatUint(uint64(c.Length), 10),
			crcText(c),
			kept,
			truncateString(desc, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Type", "Length", "CRC", "Kept by anonymize", "Description"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeMetadata writes one table per metadata chunk.
func (w *MarkdownWriter) writeMetadata(md *markdown.Markdown, report *model.InspectionReport) {
	chunks := report.MetadataChunks()
	if len(chunks) == 0 {
		return
	}

	md.H2("Metadata")
	md.PlainText("")
	for _, c := range chunks {
		keys := make([]string, 0, len(c.Metadata))
		for k := range c.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		rows := make([][]string, len(keys))
		for i, k := range keys {
			rows[i] = []string{k, truncateString(c.Metadata[k], 80)}
		}
		md.H3(c.Type + " #" + strconv.Itoa(c.Index))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Key", "Value"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFindings writes the privacy findings table.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.InspectionReport) {
	if len(report.Findings) == 0 {
		return
	}

	md.H2("Privacy Findings")
	md.PlainText("")

	rows := make([][]string, len(report.Findings))
	for i, f := range report.Findings {
		removed := "no"
		if f.Removable {
			removed = "yes"
		}
		rows[i] = []string{
			"**" + f.Risk.String() + "**",
			f.Title,
			"`" + truncateString(f.Value, 60) + "`",
			f.Location,
			removed,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Risk", "Finding", "Value", "Location", "Removed by anonymize"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeEntries writes warnings and errors as a bullet list.
func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, report *model.InspectionReport) {
	if len(report.Entries) == 0 {
		return
	}

	md.H2("Warnings and Errors")
	md.PlainText("")
	items := make([]string, len(report.Entries))
	for i, e := range report.Entries {
		items[i] = "**" + e.Severity.String() + "** " + e.Message
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pngcipher](https://github.com/nao1215/pngcipher)*")
}
