package lexical

import (
	"context"
	"sort"
	"strings"

	"github.com/IvanShishkin/docsentry/internal/detectors"
	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
)

// Detector reports suspicious script and shell tokens in any document
type Detector struct {
	*detectors.BaseDetector
	matcher *signatures.Matcher
}

// NewDetector creates a new lexical detector
func NewDetector(matcher *signatures.Matcher) *Detector {
	return &Detector{
		BaseDetector: detectors.NewBaseDetector("suspicious_strings", 100, []string{"*"}),
		matcher:      matcher,
	}
}

// Detect emits one medium finding listing every distinct token found
func (d *Detector) Detect(ctx context.Context, doc *detectors.Document) ([]models.Finding, error) {
	hits := d.matcher.TokenHits(doc.Text)
	if len(hits) == 0 {
		return nil, nil
	}

	sorted := append([]string(nil), hits...)
	sort.Strings(sorted)

	return []models.Finding{{
		ID:       models.FindingSuspiciousString,
		Severity: models.SeverityMedium,
		Message:  "Suspicious strings found: " + strings.Join(sorted, ", "),
	}}, nil
}
