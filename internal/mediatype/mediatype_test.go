package mediatype

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		declared string
		data     []byte
		want     string
	}{
		{"pdf by extension", "report.PDF", "", nil, "application/pdf"},
		{"declared wins over extension", "report.pdf", "application/x-upload", nil, "application/x-upload"},
		{"blank declared falls back to extension", "report.pdf", "  ", nil, "application/pdf"},
		{"docm by extension", "a.docm", "", nil, "application/vnd.ms-word.document.macroEnabled.12"},
		{"declared wins over sniffing", "notes.bin", "application/x-custom", []byte("%PDF-1.7"), "application/x-custom"},
		{"sniffed pdf", "noext", "", []byte("%PDF-1.7\n1 0 obj\n"), "application/pdf"},
		{"empty data", "noext", " ", nil, Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.filename, tt.declared, tt.data); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_SniffsText(t *testing.T) {
	got := Resolve("readme", "", []byte("just some plain words"))
	if !strings.HasPrefix(got, "text/plain") {
		t.Errorf("Resolve() = %q, want text/plain", got)
	}
}

func TestForExtension(t *testing.T) {
	if got := ForExtension(".RTF"); got != "application/rtf" {
		t.Errorf("ForExtension(.RTF) = %q", got)
	}
	if got := ForExtension("exe"); got != "" {
		t.Errorf("ForExtension(exe) = %q, want empty", got)
	}
}
