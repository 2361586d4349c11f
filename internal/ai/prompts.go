package ai

import (
	"fmt"
	"strings"
)

// ScoringSystemPrompt instructs the model to act as a document risk scorer
const ScoringSystemPrompt = `You are a malware analyst scoring untrusted office documents (PDF, OOXML, RTF).
You receive static features only, never the document itself. Estimate the probability that the document is malicious.

OUTPUT: Valid JSON only, no markdown formatting.
{"probability": 0.0-1.0, "reason": "brief explanation (max 120 chars)"}

STRONG INDICATORS:
- PDF auto-actions or JavaScript (/OpenAction, /AA, /JS, /Launch)
- OOXML macro projects (vbaProject.bin) in documents received from outside
- RTF embedded objects or field instructions, especially with high entropy
- Shell and script tokens: powershell, mshta, wscript.shell, cmd.exe, createobject(

WEAK INDICATORS:
- High entropy alone (compressed streams are normal in PDF and OOXML)
- A single generic token such as "javascript" in a PDF form

Prefer probabilities near 0.5 when evidence is thin.`

// BuildScoringPrompt renders the feature summary for the model
func BuildScoringPrompt(f *FeatureSummary) string {
	var b strings.Builder

	b.WriteString("Document features:\n")
	fmt.Fprintf(&b, "- filename: %s\n", f.Filename)
	fmt.Fprintf(&b, "- family: %s", f.Family)
	if f.Subtype != "" {
		fmt.Fprintf(&b, " (%s)", f.Subtype)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- size: %d bytes\n", f.Size)
	fmt.Fprintf(&b, "- normalized entropy (first 64 KiB): %.3f\n", f.Entropy)
	fmt.Fprintf(&b, "- peak chunk entropy (bits/byte): %.2f\n", f.PeakEntropy)
	fmt.Fprintf(&b, "- rule score: %.2f\n", f.RuleScore)

	if len(f.TokenHits) > 0 {
		fmt.Fprintf(&b, "- suspicious tokens: %s\n", strings.Join(f.TokenHits, ", "))
	} else {
		b.WriteString("- suspicious tokens: none\n")
	}

	if f.StructuralMatch != "" {
		fmt.Fprintf(&b, "- structural marker: %s\n", f.StructuralMatch)
	} else {
		b.WriteString("- structural marker: none\n")
	}

	return b.String()
}
