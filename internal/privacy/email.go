package privacy

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/nao1215/pngcipher/internal/model"
)

// freeProviders are mail domains shared by many unrelated users.
var freeProviders = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"protonmail.com", "proton.me", "tutanota.com", "tutamail.com",
	"aol.com", "icloud.com", "mail.com", "yandex.com",
}

// EmailAnalyzer detects e-mail addresses in any metadata value.
type EmailAnalyzer struct {
	emailRegex *regexp.Regexp
}

// NewEmailAnalyzer creates a new EmailAnalyzer.
func NewEmailAnalyzer() *EmailAnalyzer {
	return &EmailAnalyzer{
		emailRegex: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	}
}

// Name returns the analyzer name.
func (a *EmailAnalyzer) Name() string {
	return "email"
}

// Category returns the analyzer category.
func (a *EmailAnalyzer) Category() string {
	return CategoryIdentity
}

// Analyze searches every metadata value for e-mail addresses.
func (a *EmailAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	seen := make(map[string]bool)

	for _, e := range entries(data.Chunks) {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		for _, email := range a.emailRegex.FindAllString(e.value, -1) {
			email = strings.ToLower(email)
			if seen[email] {
				continue
			}
			seen[email] = true

			r := rule{
				typ:         "email",
				title:       "Email Address Found",
				description: "An e-mail address was found in the metadata. It can identify the author.",
				risk:        assessEmailRisk(email),
			}
			findings = append(findings, r.finding(e.chunk, email))
		}
	}

	return findings, nil
}

// assessEmailRisk rates an address on a personal or corporate domain above
// one on a free provider.
func assessEmailRisk(email string) model.Risk {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return model.RiskMedium
	}
	if slices.Contains(freeProviders, strings.ToLower(domain)) {
		return model.RiskMedium
	}
	return model.RiskHigh
}

// Ensure EmailAnalyzer implements CheckAnalyzer.
var _ CheckAnalyzer = (*EmailAnalyzer)(nil)
