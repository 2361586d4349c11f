package lexical

import (
	"context"
	"testing"

	"github.com/IvanShishkin/docsentry/internal/detectors"
	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
)

func TestDetector_Detect(t *testing.T) {
	rs, err := signatures.LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	detector := NewDetector(signatures.NewMatcher(rs))

	tests := []struct {
		name    string
		text    string
		message string
	}{
		{"no tokens", "quarterly figures attached", ""},
		{"sorted distinct tokens", "powershell -enc ...; cmd.exe /c; powershell", "Suspicious strings found: cmd.exe, powershell"},
		{"script tokens", "<script>eval(atob('x'))</script>", "Suspicious strings found: <script, eval("},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, err := detector.Detect(context.Background(), &detectors.Document{Text: tt.text})
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if tt.message == "" {
				if len(findings) != 0 {
					t.Errorf("expected no findings, got %v", findings)
				}
				return
			}
			if len(findings) != 1 {
				t.Fatalf("expected one finding, got %d", len(findings))
			}
			f := findings[0]
			if f.ID != models.FindingSuspiciousString || f.Severity != models.SeverityMedium {
				t.Errorf("unexpected finding %+v", f)
			}
			if f.Message != tt.message {
				t.Errorf("Message = %q, want %q", f.Message, tt.message)
			}
		})
	}
}
