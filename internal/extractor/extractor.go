// Package extractor turns raw document bytes into numeric signals and raw
// findings. It is pure: the same bytes and extension always produce the
// same output.
package extractor

import (
	"context"
	"sort"
	"strings"

	"github.com/IvanShishkin/docsentry/internal/detectors"
	"github.com/IvanShishkin/docsentry/internal/detectors/executable"
	"github.com/IvanShishkin/docsentry/internal/detectors/lexical"
	"github.com/IvanShishkin/docsentry/internal/detectors/ooxml"
	"github.com/IvanShishkin/docsentry/internal/detectors/pdf"
	"github.com/IvanShishkin/docsentry/internal/detectors/rtf"
	"github.com/IvanShishkin/docsentry/internal/heuristic"
	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// TextWindow is the number of leading bytes decoded for token search
const TextWindow = 300000

// RuleSaturation is the number of distinct token hits that saturates the
// rule signal
const RuleSaturation = 5.0

// NoObviousTricksMessage accompanies the clean-scan finding
const NoObviousTricksMessage = "No obvious embedded scripts/objects detected via lightweight rules."

// Extraction is the output of one extractor run
type Extraction struct {
	Entropy   float64
	Rules     float64
	TokenHits []string
	Findings  []models.Finding
}

// Extractor computes the entropy and rule signals and runs the detectors
type Extractor struct {
	matcher   *signatures.Matcher
	detectors []detectors.Detector
	logger    *zap.Logger
}

// New creates an extractor with the lexical, structural and payload
// detectors registered. maxZipEntries bounds the OOXML listing.
func New(matcher *signatures.Matcher, maxZipEntries int, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{matcher: matcher, logger: logger}
	e.RegisterDetector(lexical.NewDetector(matcher))
	e.RegisterDetector(pdf.NewDetector(matcher))
	e.RegisterDetector(ooxml.NewDetector(matcher, maxZipEntries))
	e.RegisterDetector(rtf.NewDetector(matcher))
	e.RegisterDetector(executable.NewDetector())
	return e
}

// RegisterDetector adds a detector, keeping higher priorities first
func (e *Extractor) RegisterDetector(d detectors.Detector) {
	e.detectors = append(e.detectors, d)
	sort.SliceStable(e.detectors, func(i, j int) bool {
		return e.detectors[i].Priority() > e.detectors[j].Priority()
	})
	e.logger.Debug("Registered detector",
		zap.String("name", d.Name()),
		zap.Int("priority", d.Priority()))
}

// Detectors returns the registered detectors in execution order
func (e *Extractor) Detectors() []detectors.Detector {
	return e.detectors
}

// Extract runs the extractor over data with the normalized extension ext
func (e *Extractor) Extract(ctx context.Context, data []byte, ext string) *Extraction {
	text := DecodeWindow(data)
	hits := e.matcher.TokenHits(text)

	out := &Extraction{
		Entropy:   heuristic.NormalizedEntropy(data),
		Rules:     RuleScore(len(hits)),
		TokenHits: hits,
	}

	doc := &detectors.Document{
		Raw:       data,
		Text:      text,
		Extension: ext,
		Family:    models.FamilyOf(ext),
	}

	for _, d := range e.detectors {
		if !d.IsEnabled() || !supports(d, ext) {
			continue
		}

		findings, err := d.Detect(ctx, doc)
		if err != nil {
			e.logger.Warn("Detector failed",
				zap.String("detector", d.Name()),
				zap.String("extension", ext),
				zap.Error(err))
			continue
		}
		out.Findings = append(out.Findings, findings...)
	}

	if len(out.Findings) == 0 {
		out.Findings = []models.Finding{{
			ID:       models.FindingNoObviousTricks,
			Severity: models.SeverityInfo,
			Message:  NoObviousTricksMessage,
		}}
	}

	return out
}

// Signals returns the base signal set of an extraction
func (x *Extraction) Signals() models.SignalSet {
	return models.SignalSet{
		models.SignalEntropy: x.Entropy,
		models.SignalRules:   x.Rules,
	}
}

// RuleScore maps a distinct-hit count onto [0,1]
func RuleScore(hits int) float64 {
	score := float64(hits) / RuleSaturation
	if score > 1 {
		return 1
	}
	return score
}

// DecodeWindow decodes the leading TextWindow bytes as ISO-8859-1 and
// lowercases the result
func DecodeWindow(data []byte) string {
	if len(data) > TextWindow {
		data = data[:TextWindow]
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		decoded = data
	}
	return strings.ToLower(string(decoded))
}

// supports checks if a detector should run on a file
func supports(d detectors.Detector, extension string) bool {
	exts := d.SupportedExtensions()
	if len(exts) == 0 || exts[0] == "*" {
		return true
	}

	for _, ext := range exts {
		if ext == extension {
			return true
		}
	}
	return false
}
