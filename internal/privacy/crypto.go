package privacy

import (
	"context"
	"regexp"

	"github.com/nao1215/pngcipher/internal/model"
)

// cryptoPattern matches one kind of payment address.
type cryptoPattern struct {
	name    string
	title   string
	risk    model.Risk
	pattern *regexp.Regexp
}

// CryptoAnalyzer detects cryptocurrency addresses in metadata values.
// Transparent chains can be traced back to the owner of an address.
type CryptoAnalyzer struct {
	patterns []cryptoPattern
}

// NewCryptoAnalyzer creates a new CryptoAnalyzer.
func NewCryptoAnalyzer() *CryptoAnalyzer {
	return &CryptoAnalyzer{
		patterns: []cryptoPattern{
			{
				name:    "bitcoin_legacy",
				title:   "Bitcoin Address Found",
				risk:    model.RiskMedium,
				pattern: regexp.MustCompile(`\b[13][a-km-zA-HJ-NP-Z1-9]{25,34}\b`),
			},
			{
				name:    "bitcoin_bech32",
				title:   "Bitcoin Bech32 Address Found",
				risk:    model.RiskMedium,
				pattern: regexp.MustCompile(`\bbc1[a-z0-9]{39,59}\b`),
			},
			{
				name:    "ethereum",
				title:   "Ethereum Address Found",
				risk:    model.RiskMedium,
				pattern: regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`),
			},
			{
				// Monero hides transactions; only the address itself is noted.
				name:    "monero",
				title:   "Monero Address Found",
				risk:    model.RiskLow,
				pattern: regexp.MustCompile(`\b[48][0-9AB][1-9A-HJ-NP-Za-km-z]{93}\b`),
			},
		},
	}
}

// Name returns the analyzer name.
func (a *CryptoAnalyzer) Name() string {
	return "cryptocurrency"
}

// Category returns the analyzer category.
func (a *CryptoAnalyzer) Category() string {
	return CategoryCorrelation
}

// Analyze searches every metadata value for payment addresses.
func (a *CryptoAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	seen := make(map[string]bool)

	for _, e := range entries(data.Chunks) {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		for _, p := range a.patterns {
			for _, address := range p.pattern.FindAllString(e.value, -1) {
				if seen[address] {
					continue
				}
				seen[address] = true

				r := rule{
					typ:         "crypto_" + p.name,
					title:       p.title,
					description: "A payment address was found. Blockchain analysis may link it to a person.",
					risk:        p.risk,
				}
				findings = append(findings, r.finding(e.chunk, address))
			}
		}
	}

	return findings, nil
}

// Ensure CryptoAnalyzer implements CheckAnalyzer.
var _ CheckAnalyzer = (*CryptoAnalyzer)(nil)
