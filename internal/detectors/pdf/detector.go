package pdf

import (
	"bytes"
	"context"
	"strings"

	"github.com/IvanShishkin/docsentry/internal/deobfuscator"
	deobfPDF "github.com/IvanShishkin/docsentry/internal/deobfuscator/pdf"
	"github.com/IvanShishkin/docsentry/internal/detectors"
	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
)

// EscapedNameNote is appended to the finding message when the marker was
// only visible after decoding escaped names
const EscapedNameNote = " (hex-escaped name)"

// Detector flags PDF auto-action and JavaScript dictionary keys
type Detector struct {
	*detectors.BaseDetector
	matcher *signatures.Matcher
	decoder *deobfuscator.Manager
}

// NewDetector creates a new PDF structural detector
func NewDetector(matcher *signatures.Matcher) *Detector {
	return &Detector{
		BaseDetector: detectors.NewBaseDetector("pdf_actions", 90, []string{"pdf"}),
		matcher:      matcher,
		decoder:      deobfuscator.NewManager(4, deobfPDF.NewNameDecoder()),
	}
}

// Detect searches the whole buffer, since action dictionaries may sit
// anywhere in the object table
func (d *Detector) Detect(ctx context.Context, doc *detectors.Document) ([]models.Finding, error) {
	ms, _, ok := d.matcher.MatchFamily(models.FamilyPDF, doc.Raw, doc.Text)
	if ok {
		return []models.Finding{detectors.MarkerFinding(ms)}, nil
	}
	if bytes.IndexByte(doc.Raw, '#') < 0 {
		return nil, nil
	}

	decoded, applied := d.decoder.Deobfuscate(string(doc.Raw))
	if len(applied) == 0 {
		return nil, nil
	}
	ms, _, ok = d.matcher.MatchFamily(models.FamilyPDF, []byte(decoded), strings.ToLower(decoded))
	if !ok {
		return nil, nil
	}
	f := detectors.MarkerFinding(ms)
	f.Message += EscapedNameNote
	return []models.Finding{f}, nil
}
