package core

import "github.com/IvanShishkin/docsentry/pkg/models"

// SandboxTip leads the recommendations for malicious documents
const SandboxTip = "Do not open this file outside a sandbox. Prefer the sanitized version."

var baseTips = []string{
	"Keep OS and document viewers up to date.",
	"Prefer viewing unknown docs in a sandbox/VM or web viewer.",
	"Verify the sender/source before opening sensitive documents.",
}

var pdfTips = []string{
	"Disable JavaScript in your PDF reader.",
	"Avoid auto-open actions; open PDFs in a hardened viewer.",
}

var rtfTips = []string{
	"Open RTF files in a plain-text viewer if possible.",
	"Be cautious of embedded objects and links.",
}

var subtypeTips = map[models.Subtype][]string{
	models.SubtypeWord: {
		"Disable macros (VBA) by default; only enable for trusted documents.",
		"Use Protected View for files from email or the Internet.",
	},
	models.SubtypeSlide: {
		"Be cautious of embedded media and macros in presentations.",
		"Open in Protected View if prompted.",
	},
	models.SubtypeSheet: {
		"Disable macros and external data connections by default.",
		"Avoid clicking 'Enable Content' unless you trust the file.",
	},
}

// Recommendations returns user guidance for a document type and verdict
func Recommendations(ext string, verdict models.Verdict) []string {
	var tips []string
	switch models.FamilyOf(ext) {
	case models.FamilyPDF:
		tips = pdfTips
	case models.FamilyRTF:
		tips = rtfTips
	case models.FamilyOOXML:
		tips = subtypeTips[models.SubtypeOf(ext)]
	}

	out := make([]string, 0, len(baseTips)+len(tips)+1)
	if verdict == models.VerdictMalicious {
		out = append(out, SandboxTip)
	}
	out = append(out, baseTips...)
	out = append(out, tips...)
	return out
}
