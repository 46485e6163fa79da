package privacy

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/nao1215/pngcipher/internal/model"
)

// Analyzer category constants.
const (
	// CategoryIdentity is used by analyzers that find who made an image.
	CategoryIdentity = "identity"
	// CategoryDevice is used by analyzers that find the device or software.
	CategoryDevice = "device"
	// CategoryCorrelation is used by analyzers that find values linking an
	// image to other activity, such as payment addresses.
	CategoryCorrelation = "correlation"
)

// maxValueLength bounds Finding.Value.
const maxValueLength = 120

// CheckAnalyzer is one kind of privacy check.
type CheckAnalyzer interface {
	// Name returns the analyzer's name for logging.
	Name() string

	// Category returns one of the Category constants.
	Category() string

	// Analyze returns the findings in data.
	Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error)
}

// AnalysisData is the input of every check.
type AnalysisData struct {
	// File names the inspected image.
	File string

	// Chunks are the chunk summaries in file order.
	Chunks []model.ChunkSummary
}

// Analyzer runs a set of checks and merges their findings.
type Analyzer struct {
	analyzers []CheckAnalyzer
	logger    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used to report failing checks.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an Analyzer with every built-in check registered.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		analyzers: make([]CheckAnalyzer, 0),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Register(NewEXIFAnalyzer())
	a.Register(NewTextAnalyzer())
	a.Register(NewTimestampAnalyzer())
	a.Register(NewEmailAnalyzer())
	a.Register(NewCryptoAnalyzer())
	a.Register(NewPrivateKeyAnalyzer())

	return a
}

// Register adds a check.
func (a *Analyzer) Register(analyzer CheckAnalyzer) {
	a.analyzers = append(a.analyzers, analyzer)
}

// Analyze runs every check and returns the merged findings, highest risk
// first. A failing check is logged and skipped.
func (a *Analyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	var all []model.Finding

	for _, analyzer := range a.analyzers {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		findings, err := analyzer.Analyze(ctx, data)
		if err != nil {
			a.logger.Warn("privacy check failed",
				"analyzer", analyzer.Name(),
				"file", data.File,
				"error", err,
			)
			continue
		}
		all = append(all, findings...)
	}

	all = deduplicateFindings(all)
	slices.SortStableFunc(all, func(x, y model.Finding) int {
		return int(y.Risk) - int(x.Risk)
	})
	return all, nil
}

// Inspect analyzes the chunks of report and stores the findings in it.
func (a *Analyzer) Inspect(ctx context.Context, report *model.InspectionReport) error {
	findings, err := a.Analyze(ctx, &AnalysisData{File: report.File, Chunks: report.Chunks})
	if err != nil {
		return err
	}
	report.Findings = findings
	return nil
}

// deduplicateFindings keeps the first finding for every title and value,
// raised to the highest risk seen for it.
func deduplicateFindings(findings []model.Finding) []model.Finding {
	seen := make(map[string]int)
	result := make([]model.Finding, 0, len(findings))

	for _, f := range findings {
		key := f.Title + "|" + f.Value
		if idx, exists := seen[key]; exists {
			if f.Risk > result[idx].Risk {
				result[idx].Risk = f.Risk
			}
			continue
		}
		seen[key] = len(result)
		result = append(result, f)
	}
	return result
}

// entry is one metadata pair and the chunk holding it.
type entry struct {
	chunk model.ChunkSummary
	key   string
	value string
}

// entries returns the metadata pairs of chunks, in chunk order and then by
// key.
func entries(chunks []model.ChunkSummary) []entry {
	result := make([]entry, 0)
	for _, c := range chunks {
		for _, k := range slices.Sorted(maps.Keys(c.Metadata)) {
			result = append(result, entry{chunk: c, key: k, value: c.Metadata[k]})
		}
	}
	return result
}

// location names the chunk a finding was found in.
func location(c model.ChunkSummary) string {
	return fmt.Sprintf("%s #%d", c.Type, c.Index)
}

// localName strips an XMP namespace prefix.
func localName(key string) string {
	if _, local, ok := strings.Cut(key, ":"); ok {
		return local
	}
	return key
}

// isXMPKey reports whether key is a prefixed XMP property name.
func isXMPKey(key string) bool {
	prefix, local, ok := strings.Cut(key, ":")
	return ok && prefix != "" && local != "" && !strings.ContainsAny(prefix, " \t")
}

// truncate shortens s to maxValueLength runes.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxValueLength {
		return s
	}
	return string(r[:maxValueLength-3]) + "..."
}

// rule describes the finding produced for a matching key.
type rule struct {
	typ         string
	title       string
	description string
	risk        model.Risk
}

// finding builds the finding of r for a value found in chunk c.
func (r rule) finding(c model.ChunkSummary, value string) model.Finding {
	return model.Finding{
		Type:        r.typ,
		Title:       r.title,
		Description: r.description,
		Risk:        r.risk,
		Value:       truncate(value),
		Location:    location(c),
		Removable:   !c.PreserveOnAnonymize,
	}
}
