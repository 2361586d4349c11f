package ooxml

import (
	"bytes"
	"context"
	"strings"

	"github.com/IvanShishkin/docsentry/internal/detectors"
	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
	"github.com/klauspost/compress/zip"
)

// Detector flags macro-project markers in an OOXML package listing
type Detector struct {
	*detectors.BaseDetector
	matcher    *signatures.Matcher
	maxEntries int
}

// NewDetector creates a new OOXML detector. maxEntries bounds how many
// archive names are listed; zero means no bound.
func NewDetector(matcher *signatures.Matcher, maxEntries int) *Detector {
	return &Detector{
		BaseDetector: detectors.NewBaseDetector("ooxml_macros", 90, models.OOXMLExtensions()),
		matcher:      matcher,
		maxEntries:   maxEntries,
	}
}

// Detect matches markers against the archive's entry names. When the
// archive cannot be opened the decoded text window is used instead, where
// local file headers still expose the names.
func (d *Detector) Detect(ctx context.Context, doc *detectors.Document) ([]models.Finding, error) {
	listing, ok := d.listing(doc.Raw)
	if !ok {
		listing = doc.Text
	}

	ms, _, found := d.matcher.MatchFamily(models.FamilyOOXML, []byte(listing), listing)
	if !found {
		return nil, nil
	}
	return []models.Finding{detectors.MarkerFinding(ms)}, nil
}

// listing returns the lowercase newline-joined entry names
func (d *Detector) listing(raw []byte) (string, bool) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", false
	}

	var b strings.Builder
	for i, f := range zr.File {
		if d.maxEntries > 0 && i >= d.maxEntries {
			break
		}
		b.WriteString(strings.ToLower(f.Name))
		b.WriteByte('\n')
	}
	return b.String(), true
}
