package signatures

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/IvanShishkin/docsentry/pkg/models"
)

func TestLoadDefault(t *testing.T) {
	rs, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}

	if len(rs.SuspiciousTokens) != 14 {
		t.Errorf("SuspiciousTokens count = %d, want 14", len(rs.SuspiciousTokens))
	}

	for _, family := range []models.Family{models.FamilyPDF, models.FamilyOOXML, models.FamilyRTF} {
		if rs.GetByFamily(family) == nil {
			t.Errorf("missing marker set for %s", family)
		}
	}

	if rs.GetByFamily(models.FamilyRTF).CompiledRe == nil {
		t.Error("rtf marker set should be compiled as regex")
	}
}

func TestMatcher_TokenHits(t *testing.T) {
	rs, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	matcher := NewMatcher(rs)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"no tokens", "hello world", nil},
		{"single token", "run powershell now", []string{"powershell"}},
		{"repeated token counts once", "eval( eval( eval(", []string{"eval("}},
		{"several tokens", "<script>eval(x)</script> javascript", []string{"javascript", "<script", "eval("}},
		{"case is caller's job", "POWERSHELL", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matcher.TokenHits(tt.text)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("TokenHits(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestMatcher_MatchFamily(t *testing.T) {
	rs, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	matcher := NewMatcher(rs)

	tests := []struct {
		name     string
		family   models.Family
		raw      string
		expected bool
		marker   string
	}{
		{"pdf openaction", models.FamilyPDF, "<< /OpenAction 5 0 R >>", true, "/OpenAction"},
		{"pdf javascript wins first", models.FamilyPDF, "/JavaScript /OpenAction", true, "/JavaScript"},
		{"pdf is case sensitive", models.FamilyPDF, "/javascript /openaction", false, ""},
		{"pdf clean", models.FamilyPDF, "%PDF-1.4 /Type /Catalog", false, ""},
		{"ooxml vba project", models.FamilyOOXML, "word/vbaProject.bin", true, "vbaproject.bin"},
		{"ooxml clean", models.FamilyOOXML, "word/document.xml", false, ""},
		{"rtf object", models.FamilyRTF, `{\rtf1 {\object\objemb}}`, true, `\object`},
		{"rtf field upper", models.FamilyRTF, `{\rtf1 {\FIELD}}`, true, `\field`},
		{"rtf clean", models.FamilyRTF, `{\rtf1\ansi hello}`, false, ""},
		{"unknown family", models.FamilyUnknown, "/JavaScript", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte(tt.raw)
			text := strings.ToLower(tt.raw)
			_, marker, ok := matcher.MatchFamily(tt.family, raw, text)
			if ok != tt.expected {
				t.Fatalf("MatchFamily(%s, %q) = %v, want %v", tt.family, tt.raw, ok, tt.expected)
			}
			if marker != tt.marker {
				t.Errorf("marker = %q, want %q", marker, tt.marker)
			}
		})
	}
}

func TestLoader_Override(t *testing.T) {
	dir := t.TempDir()
	content := `
suspicious_tokens:
  - evil
structural:
  - family: pdf
    finding_id: pdf_script_js
    message: custom
    case_sensitive: true
    markers:
      - /RichMedia
`
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !reflect.DeepEqual(rs.SuspiciousTokens, []string{"evil"}) {
		t.Errorf("SuspiciousTokens = %v, want [evil]", rs.SuspiciousTokens)
	}

	pdf := rs.GetByFamily(models.FamilyPDF)
	if pdf.Message != "custom" || pdf.Severity != models.SeverityHigh {
		t.Errorf("pdf marker set not replaced: %+v", pdf)
	}
	if len(rs.Structural) != 3 {
		t.Errorf("Structural count = %d, want 3", len(rs.Structural))
	}
	if rs.GetByFamily(models.FamilyRTF) == nil {
		t.Error("rtf defaults should survive a pdf override")
	}
}

func TestLoader_MissingPath(t *testing.T) {
	rs, err := NewLoader(filepath.Join(t.TempDir(), "nope")).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rs.SuspiciousTokens) == 0 {
		t.Error("missing path should fall back to defaults")
	}
}

func TestLoader_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	bad := "structural:\n  - family: rtf\n    markers: []\n"
	if err := os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(dir).Load(); err == nil {
		t.Error("expected error for marker set without markers")
	}
}
