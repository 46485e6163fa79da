package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/pngcipher/internal/chunk"
	"github.com/nao1215/pngcipher/internal/database"
	"github.com/nao1215/pngcipher/internal/model"
	"github.com/nao1215/pngcipher/internal/privacy"
)

// Constants for risk direction.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
)

var (
	errCompareArgs    = errors.New("compare needs one file with saved reports or two files to inspect")
	errTooFewReports  = errors.New("at least 2 saved reports are required for comparison")
	errReportNotFound = errors.New("saved report not found")
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <png-file> [png-file]",
		Short: "Compare the privacy findings of two inspections",
		Long: `Compare shows which privacy findings appeared or disappeared between two
inspections, and how the chunk count and overall risk changed.

With one file, the latest saved report of that file is compared with an
earlier one (see 'pngcipher inspect --save'). With two files, both are
inspected now and the second is compared with the first, which is useful to
check what anonymize removed.

Examples:
  # Compare the latest two saved reports of a file
  pngcipher compare photo.png

  # Compare with a specific saved report
  pngcipher compare --with-id 5 photo.png

  # Compare with the first report saved on or after a date
  pngcipher compare --since 2025-01-01 photo.png

  # Check what anonymize removed
  pngcipher compare photo.png photo.anonymized.png

  # List files with saved reports
  pngcipher compare --list-files`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list-files", "L", false,
		"List all files with saved reports")
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with a specific saved report by ID (see 'inspect --history')")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first report saved on or after this date (format: YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	listFiles, err := cmd.Flags().GetBool("list-files")
	if err != nil {
		return err
	}
	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}
	since, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)
	ctx, cancel := signalContext(cmd)
	defer cancel()
	out := cmd.OutOrStdout()

	if listFiles {
		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		return listInspectedFiles(ctx, out, store)
	}

	if len(args) == 0 {
		return errCompareArgs
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var previous, current *model.InspectionReport
	switch len(args) {
	case 2:
		if withID != 0 || since != "" {
			return fmt.Errorf("%w: --with-id and --since need a single file", errCompareArgs)
		}
		previous, current, err = inspectPair(ctx, logger, args[0], args[1])
	default:
		var store *database.Store
		store, err = openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		previous, current, err = savedPair(ctx, store, reportName(args[0]), withID, since)
	}
	if err != nil {
		return err
	}

	result := compareReports(previous, current)
	switch {
	case cfg.JSONReport:
		return outputComparisonJSON(out, result)
	case cfg.MarkdownReport:
		return outputComparisonMarkdown(out, result)
	default:
		outputComparisonText(out, result)
		return nil
	}
}

// listInspectedFiles lists every file with saved reports.
func listInspectedFiles(ctx context.Context, out io.Writer, store *database.Store) error {
	files, err := store.ListInspectedFiles(ctx)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Fprintln(out, "No saved reports found in the database.")
		fmt.Fprintln(out, "\nUse 'pngcipher inspect --save <file>' to save a report.")
		return nil
	}

	fmt.Fprintf(out, "Files with saved reports (%d):\n\n", len(files))
	for _, f := range files {
		fmt.Fprintf(out, "  %-4d %s  %s\n", f.Reports, f.Latest.Format("2006-01-02 15:04:05"), f.File)
	}
	return nil
}

// inspectPair inspects two files and returns their reports with findings.
func inspectPair(ctx context.Context, logger *slog.Logger, first, second string) (*model.InspectionReport, *model.InspectionReport, error) {
	parser := chunk.NewParser(chunk.WithLogger(logger))
	analyzer := privacy.NewAnalyzer(privacy.WithLogger(logger))

	reports := make([]*model.InspectionReport, 0, 2)
	for _, input := range []string{first, second} {
		r := inspectFile(ctx, parser, input, reportName(input))
		if r.Failed() {
			return nil, nil, fmt.Errorf("failed to inspect %s: %s", input, r.Error)
		}
		if err := analyzer.Inspect(ctx, r); err != nil {
			return nil, nil, err
		}
		reports = append(reports, r)
	}
	return reports[0], reports[1], nil
}

// savedPair loads the latest saved report of file and the one it is
// compared with: the report with id withID, the first report saved on or
// after since, or else the report saved just before the latest.
func savedPair(ctx context.Context, store *database.Store, file string, withID int64, since string) (*model.InspectionReport, *model.InspectionReport, error) {
	history, err := store.InspectionHistory(ctx, file)
	if err != nil {
		return nil, nil, err
	}
	if len(history) == 0 {
		return nil, nil, fmt.Errorf("%w: no saved reports for %s", errTooFewReports, file)
	}

	latest := history[0]
	var previousID int64
	switch {
	case withID != 0:
		idx := slices.IndexFunc(history, func(m database.InspectionMetadata) bool { return m.ID == withID })
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: id %d for %s", errReportNotFound, withID, file)
		}
		previousID = withID
	case since != "":
		date, err := time.Parse(time.DateOnly, since)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// history is newest first
		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].Timestamp.Before(date) {
				previousID = history[i].ID
				break
			}
		}
		if previousID == 0 {
			return nil, nil, fmt.Errorf("%w: none saved since %s", errReportNotFound, since)
		}
		if previousID == latest.ID {
			return nil, nil, fmt.Errorf("%w: only one saved since %s", errTooFewReports, since)
		}
	default:
		if len(history) < 2 {
			return nil, nil, fmt.Errorf("%w (found %d)", errTooFewReports, len(history))
		}
		previousID = history[1].ID
	}

	previous, err := loadInspection(ctx, store, previousID)
	if err != nil {
		return nil, nil, err
	}
	current, err := loadInspection(ctx, store, latest.ID)
	if err != nil {
		return nil, nil, err
	}
	return previous, current, nil
}

func loadInspection(ctx context.Context, store *database.Store, id int64) (*model.InspectionReport, error) {
	r, err := store.GetInspection(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: id %d", errReportNotFound, id)
	}
	return r, nil
}

// ComparisonResult holds the result of comparing two inspections.
type ComparisonResult struct {
	// Previous describes the earlier inspection.
	Previous InspectionSnapshot `json:"previous"`

	// Current describes the later inspection.
	Current InspectionSnapshot `json:"current"`

	// NewFindings are in the current inspection only.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings are in the previous inspection only.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings present in both.
	UnchangedCount int `json:"unchanged_count"`

	RiskChange RiskChange `json:"risk_change"`
}

// InspectionSnapshot contains the counts of one inspection.
type InspectionSnapshot struct {
	File          string    `json:"file"`
	DateInspected time.Time `json:"date_inspected"`
	Chunks        int       `json:"chunks"`
	TotalFindings int       `json:"total_findings"`
	CriticalCount int       `json:"critical_count"`
	HighCount     int       `json:"high_count"`
	MediumCount   int       `json:"medium_count"`
	LowCount      int       `json:"low_count"`
}

// RiskChange describes the change in risk between two inspections.
type RiskChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction     string `json:"direction"`
	CriticalDelta int    `json:"critical_delta"`
	HighDelta     int    `json:"high_delta"`
	MediumDelta   int    `json:"medium_delta"`
	LowDelta      int    `json:"low_delta"`
}

// snapshot counts the chunks and findings of r.
func snapshot(r *model.InspectionReport) InspectionSnapshot {
	s := InspectionSnapshot{
		File:          r.File,
		DateInspected: r.DateInspected,
		Chunks:        len(r.Chunks),
		TotalFindings: len(r.Findings),
	}
	for _, f := range r.Findings {
		switch f.Risk {
		case model.RiskCritical:
			s.CriticalCount++
		case model.RiskHigh:
			s.HighCount++
		case model.RiskMedium:
			s.MediumCount++
		default:
			s.LowCount++
		}
	}
	return s
}

// compareReports compares two inspections. Findings keep the order they
// have in their report.
func compareReports(previous, current *model.InspectionReport) *ComparisonResult {
	result := &ComparisonResult{
		Previous: snapshot(previous),
		Current:  snapshot(current),
	}

	previousKeys := make(map[string]bool, len(previous.Findings))
	for _, f := range previous.Findings {
		previousKeys[findingKey(f)] = true
	}
	currentKeys := make(map[string]bool, len(current.Findings))
	for _, f := range current.Findings {
		currentKeys[findingKey(f)] = true
	}

	for _, f := range current.Findings {
		if !previousKeys[findingKey(f)] {
			result.NewFindings = append(result.NewFindings, f)
		}
	}
	for _, f := range previous.Findings {
		if currentKeys[findingKey(f)] {
			result.UnchangedCount++
		} else {
			result.ResolvedFindings = append(result.ResolvedFindings, f)
		}
	}

	result.RiskChange = calculateRiskChange(result.Previous, result.Current)
	return result
}

// findingKey identifies a finding across inspections. The location is left
// out because chunk indexes shift when other chunks are removed.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Value
}

// calculateRiskChange weighs the per-risk counts of both inspections.
func calculateRiskChange(previous, current InspectionSnapshot) RiskChange {
	change := RiskChange{
		CriticalDelta: current.CriticalCount - previous.CriticalCount,
		HighDelta:     current.HighCount - previous.HighCount,
		MediumDelta:   current.MediumCount - previous.MediumCount,
		LowDelta:      current.LowCount - previous.LowCount,
	}

	score := func(s InspectionSnapshot) int {
		return s.CriticalCount*100 + s.HighCount*50 + s.MediumCount*10 + s.LowCount*5
	}

	switch previousScore, currentScore := score(previous), score(current); {
	case currentScore < previousScore:
		change.Direction = riskDirectionImproved
	case currentScore > previousScore:
		change.Direction = riskDirectionWorsened
	default:
		change.Direction = riskDirectionUnchanged
	}
	return change
}

// outputComparisonJSON writes the comparison result as indented JSON.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown writes the comparison result in Markdown.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Inspection Comparison")
	md.PlainText("")
	md.PlainTextf("**Risk Status:** %s", formatRiskDirection(result.RiskChange.Direction))
	md.PlainText("")

	p, c, d := result.Previous, result.Current, result.RiskChange
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"File", "`" + p.File + "`", "`" + c.File + "`", "-"},
			{"Date", p.DateInspected.Format("2006-01-02 15:04"), c.DateInspected.Format("2006-01-02 15:04"), "-"},
			{"Chunks", strconv.Itoa(p.Chunks), strconv.Itoa(c.Chunks), formatDelta(c.Chunks - p.Chunks)},
			{"Critical", strconv.Itoa(p.CriticalCount), strconv.Itoa(c.CriticalCount), formatDelta(d.CriticalDelta)},
			{"High", strconv.Itoa(p.HighCount), strconv.Itoa(c.HighCount), formatDelta(d.HighDelta)},
			{"Medium", strconv.Itoa(p.MediumCount), strconv.Itoa(c.MediumCount), formatDelta(d.MediumDelta)},
			{"Low", strconv.Itoa(p.LowCount), strconv.Itoa(c.LowCount), formatDelta(d.LowDelta)},
			{"**Total**", "**" + strconv.Itoa(p.TotalFindings) + "**", "**" + strconv.Itoa(c.TotalFindings) + "**",
				"**" + formatDelta(c.TotalFindings-p.TotalFindings) + "**"},
		},
	})
	md.PlainText("")

	if len(result.NewFindings) > 0 {
		md.H2(fmt.Sprintf("New Findings (%d)", len(result.NewFindings)))
		md.PlainText("")
		items := make([]string, len(result.NewFindings))
		for i, f := range result.NewFindings {
			items[i] = fmt.Sprintf("**[%s]** %s: `%s` (%s)", f.Risk, f.Title, f.Value, f.Location)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(result.ResolvedFindings) > 0 {
		md.H2(fmt.Sprintf("Resolved Findings (%d)", len(result.ResolvedFindings)))
		md.PlainText("")
		items := make([]string, len(result.ResolvedFindings))
		for i, f := range result.ResolvedFindings {
			items[i] = fmt.Sprintf("~~**[%s]** %s: %s~~", f.Risk, f.Title, f.Value)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainTextf("*%d findings unchanged*", result.UnchangedCount)
	}

	return md.Build()
}

// outputComparisonText writes the comparison result for a terminal.
func outputComparisonText(out io.Writer, result *ComparisonResult) {
	p, c, d := result.Previous, result.Current, result.RiskChange

	fmt.Fprintln(out, "Inspection Comparison")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "\nRisk Status: %s\n", formatRiskDirection(d.Direction))

	fmt.Fprintf(out, "\nPrevious: %s  %s\n", p.DateInspected.Format("2006-01-02 15:04:05"), p.File)
	fmt.Fprintf(out, "Current:  %s  %s\n", c.DateInspected.Format("2006-01-02 15:04:05"), c.File)

	row := func(label string, prev, cur, delta int) {
		fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", label, prev, cur, formatDelta(delta))
	}

	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	row("Chunks", p.Chunks, c.Chunks, c.Chunks-p.Chunks)
	row("Critical", p.CriticalCount, c.CriticalCount, d.CriticalDelta)
	row("High", p.HighCount, c.HighCount, d.HighDelta)
	row("Medium", p.MediumCount, c.MediumCount, d.MediumDelta)
	row("Low", p.LowCount, c.LowCount, d.LowDelta)
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	row("Findings", p.TotalFindings, c.TotalFindings, c.TotalFindings-p.TotalFindings)

	if len(result.NewFindings) > 0 {
		fmt.Fprintf(out, "\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Fprintf(out, "  [+] [%s] %s: %s\n", f.Risk, f.Title, f.Value)
			if f.Location != "" {
				fmt.Fprintf(out, "      Location: %s\n", f.Location)
			}
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(out, "\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Fprintf(out, "  [-] [%s] %s: %s\n", f.Risk, f.Title, f.Value)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d findings\n", result.UnchangedCount)
	}
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (risk decreased)"
	case riskDirectionWorsened:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
