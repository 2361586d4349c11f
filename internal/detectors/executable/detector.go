package executable

import (
	"bytes"
	"context"
	"encoding/hex"
	"regexp"

	"github.com/IvanShishkin/docsentry/internal/detectors"
	"github.com/IvanShishkin/docsentry/pkg/models"
)

// Detector flags executable payloads carried inside a document, either as
// raw bytes or hex-encoded as in RTF object data
type Detector struct {
	*detectors.BaseDetector
}

// dosStub is present in virtually every PE image
var dosStub = []byte("This program cannot be run in DOS mode")

var (
	dosStubHex = hex.EncodeToString(dosStub)
	// ELF magic, 32/64-bit class, either byte order, version 1
	elfRaw = regexp.MustCompile(`\x7fELF[\x01\x02][\x01\x02]\x01`)
	elfHex = regexp.MustCompile(`7f454c460[12]0[12]01`)
)

// NewDetector creates a new embedded executable detector
func NewDetector() *Detector {
	return &Detector{
		BaseDetector: detectors.NewBaseDetector("embedded_executable", 60, []string{"*"}),
	}
}

// Detect reports the first executable format found
func (d *Detector) Detect(ctx context.Context, doc *detectors.Document) ([]models.Finding, error) {
	format, encoded := scan(doc)
	if format == "" {
		return nil, nil
	}

	msg := "Embedded executable file detected (" + format + " format)"
	if encoded {
		msg += ", hex-encoded"
	}
	return []models.Finding{{
		ID:       models.FindingExecutable,
		Severity: models.SeverityHigh,
		Message:  msg,
	}}, nil
}

func scan(doc *detectors.Document) (format string, encoded bool) {
	switch {
	case bytes.Contains(doc.Raw, dosStub):
		return "PE", false
	case elfRaw.Match(doc.Raw):
		return "ELF", false
	}

	// Text is lowercase, so are the hex digits
	switch {
	case bytes.Contains([]byte(doc.Text), []byte(dosStubHex)):
		return "PE", true
	case elfHex.MatchString(doc.Text):
		return "ELF", true
	}
	return "", false
}
