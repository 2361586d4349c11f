package rtf

import (
	"context"

	"github.com/IvanShishkin/docsentry/internal/detectors"
	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
)

// Detector flags RTF embedded-object and field control words
type Detector struct {
	*detectors.BaseDetector
	matcher *signatures.Matcher
}

// NewDetector creates a new RTF structural detector
func NewDetector(matcher *signatures.Matcher) *Detector {
	return &Detector{
		BaseDetector: detectors.NewBaseDetector("rtf_objects", 90, []string{"rtf"}),
		matcher:      matcher,
	}
}

// Detect searches the decoded text window
func (d *Detector) Detect(ctx context.Context, doc *detectors.Document) ([]models.Finding, error) {
	ms, _, ok := d.matcher.MatchFamily(models.FamilyRTF, []byte(doc.Text), doc.Text)
	if !ok {
		return nil, nil
	}
	return []models.Finding{detectors.MarkerFinding(ms)}, nil
}
