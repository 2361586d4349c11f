package extractor

import (
	"bytes"
	"context"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	rs, err := signatures.LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	return New(signatures.NewMatcher(rs), 1000, nil)
}

func findingIDs(findings []models.Finding) []string {
	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.ID)
	}
	return ids
}

func TestRuleScore(t *testing.T) {
	tests := []struct {
		hits int
		want float64
	}{
		{0, 0},
		{1, 0.2},
		{3, 0.6},
		{5, 1},
		{14, 1},
	}

	for _, tt := range tests {
		if got := RuleScore(tt.hits); got != tt.want {
			t.Errorf("RuleScore(%d) = %v, want %v", tt.hits, got, tt.want)
		}
	}
}

func TestDecodeWindow(t *testing.T) {
	if got := DecodeWindow([]byte("PowerShell")); got != "powershell" {
		t.Errorf("DecodeWindow() = %q", got)
	}

	// 0xC0 is LATIN CAPITAL LETTER A WITH GRAVE in ISO-8859-1
	if got := DecodeWindow([]byte{0xC0}); got != "à" {
		t.Errorf("DecodeWindow(0xC0) = %q, want %q", got, "à")
	}

	data := append(bytes.Repeat([]byte{'a'}, TextWindow), []byte("POWERSHELL")...)
	if strings.Contains(DecodeWindow(data), "powershell") {
		t.Error("tokens past the text window must not be decoded")
	}
}

func TestExtract_CleanFile(t *testing.T) {
	e := newTestExtractor(t)
	x := e.Extract(context.Background(), []byte("just some quarterly numbers"), "txt")

	if x.Rules != 0 {
		t.Errorf("Rules = %v, want 0", x.Rules)
	}
	if !reflect.DeepEqual(findingIDs(x.Findings), []string{models.FindingNoObviousTricks}) {
		t.Fatalf("Findings = %v", findingIDs(x.Findings))
	}
	if x.Findings[0].Severity != models.SeverityInfo || x.Findings[0].Message != NoObviousTricksMessage {
		t.Errorf("unexpected clean finding %+v", x.Findings[0])
	}
}

func TestExtract_PDFWithScript(t *testing.T) {
	e := newTestExtractor(t)
	data := []byte("%PDF-1.4\n1 0 obj << /Type /Catalog /OpenAction << /S /JavaScript /JS (app.alert(1)) >> >> endobj")

	x := e.Extract(context.Background(), data, "pdf")

	ids := findingIDs(x.Findings)
	if !reflect.DeepEqual(ids, []string{models.FindingSuspiciousString, models.FindingPDFScript}) {
		t.Fatalf("Findings = %v", ids)
	}
	if x.Rules != 0.2 {
		t.Errorf("Rules = %v, want 0.2 (javascript)", x.Rules)
	}
}

func TestExtract_StructuralOnlyForOwnFamily(t *testing.T) {
	e := newTestExtractor(t)
	data := []byte("<< /OpenAction 3 0 R >>")

	x := e.Extract(context.Background(), data, "rtf")
	if reflect.DeepEqual(findingIDs(x.Findings), []string{models.FindingPDFScript}) {
		t.Error("pdf markers must not fire for rtf files")
	}
	if x.Findings[0].ID != models.FindingNoObviousTricks {
		t.Errorf("Findings = %v", findingIDs(x.Findings))
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := newTestExtractor(t)
	data := make([]byte, 20000)
	rand.New(rand.NewSource(3)).Read(data)

	a := e.Extract(context.Background(), data, "pdf")
	b := e.Extract(context.Background(), data, "pdf")

	if !reflect.DeepEqual(a, b) {
		t.Error("Extract is not deterministic")
	}
	if a.Entropy < 0.95 || a.Entropy > 1 {
		t.Errorf("random bytes entropy = %v, want near 1", a.Entropy)
	}
}

func TestExtraction_Signals(t *testing.T) {
	x := &Extraction{Entropy: 0.4, Rules: 0.6}
	s := x.Signals()

	if s[models.SignalEntropy] != 0.4 || s[models.SignalRules] != 0.6 || len(s) != 2 {
		t.Errorf("Signals() = %v", s)
	}
}

func TestRegisterDetector_PriorityOrder(t *testing.T) {
	e := newTestExtractor(t)
	ds := e.Detectors()
	for i := 1; i < len(ds); i++ {
		if ds[i-1].Priority() < ds[i].Priority() {
			t.Errorf("detectors not sorted by priority: %s before %s", ds[i-1].Name(), ds[i].Name())
		}
	}
}
