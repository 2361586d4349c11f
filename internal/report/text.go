package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/IvanShishkin/docsentry/pkg/models"
)

// renderText renders a plain-text report
func renderText(reports []*models.Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString(fmt.Sprintf("  DOCSENTRY DOCUMENT REPORT v%d (%s)\n", models.ReportVersion, models.ReportEngine))
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	// Summary
	malicious, changed := 0, 0
	for _, r := range reports {
		if r.PreScan != nil && r.PreScan.Verdict == models.VerdictMalicious {
			malicious++
		}
		if r.Sanitizer != nil && r.Sanitizer.Changed {
			changed++
		}
	}
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Documents:        %d\n", len(reports)))
	sb.WriteString(fmt.Sprintf("MALICIOUS:        %d\n", malicious))
	sb.WriteString(fmt.Sprintf("Sanitized:        %d\n", changed))
	sb.WriteString("\n")

	for i, r := range reports {
		sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, r.Original.Filename))
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		sb.WriteString(fmt.Sprintf("  Media Type:     %s\n", r.Original.MediaType))
		sb.WriteString(fmt.Sprintf("  Size:           %d bytes\n", r.Original.Size))
		sb.WriteString(fmt.Sprintf("  SHA256:         %s\n", r.Original.SHA256))
		if !r.StartedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("  Duration:       %s\n", FormatDuration(r.FinishedAt.Sub(r.StartedAt))))
		}
		writeReferences(&sb, r.References)

		if pre := r.PreScan; pre != nil {
			sb.WriteString(fmt.Sprintf("  Verdict:        %s\n", strings.ToUpper(string(pre.Verdict))))
			sb.WriteString(fmt.Sprintf("  Risk:           %.4f\n", pre.RiskScore))
			if r.Nudged {
				sb.WriteString("  Nudged:         yes\n")
			}
			writeSignals(&sb, pre.Signals)

			if len(pre.Findings) > 0 {
				sb.WriteString("\n  Findings:\n")
				for _, f := range pre.Findings {
					sb.WriteString(fmt.Sprintf("    [%s] %s: %s\n", strings.ToUpper(string(f.Severity)), f.ID, f.Message))
					if f.Explanation != "" {
						sb.WriteString(fmt.Sprintf("           %s\n", f.Explanation))
					}
				}
			}
		}

		if s := r.Sanitizer; s != nil {
			sb.WriteString("\n  Sanitizer:\n")
			sb.WriteString(fmt.Sprintf("    Engine:       %s\n", s.Engine))
			sb.WriteString(fmt.Sprintf("    Changed:      %t\n", s.Changed))
			if len(s.Removed) > 0 {
				sb.WriteString(fmt.Sprintf("    Removed:      %s\n", strings.Join(s.Removed, ", ")))
			}
			if s.Error != "" {
				sb.WriteString(fmt.Sprintf("    Error:        %s\n", s.Error))
			}
		}

		if p := r.PostCleanScan; p != nil && p.ScanResult != nil {
			sb.WriteString("\n  After Sanitization:\n")
			sb.WriteString(fmt.Sprintf("    File:         %s\n", p.Filename))
			sb.WriteString(fmt.Sprintf("    Verdict:      %s\n", strings.ToUpper(string(p.Verdict))))
			sb.WriteString(fmt.Sprintf("    Risk:         %.4f\n", p.RiskScore))
			sb.WriteString(fmt.Sprintf("    Delta:        %+.4f\n", p.DeltaRisk))
		}

		if len(r.Recommendations) > 0 {
			sb.WriteString("\n  Recommendations:\n")
			for _, rec := range r.Recommendations {
				sb.WriteString(fmt.Sprintf("    - %s\n", rec))
			}
		}

		if len(r.Stages) > 0 {
			sb.WriteString("\n  Stages:\n")
			for _, st := range r.Stages {
				line := fmt.Sprintf("    %-14s %s", st.Stage, FormatDuration(st.Duration))
				if st.Error != "" {
					line += "  error: " + st.Error
				}
				sb.WriteString(line + "\n")
			}
		}
		sb.WriteString("\n")
	}

	// Footer
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString("  End of Report\n")
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")

	return sb.String()
}

func writeSignals(sb *strings.Builder, signals models.SignalSet) {
	if len(signals) == 0 {
		return
	}
	names := make([]string, 0, len(signals))
	for name := range signals {
		names = append(names, string(name))
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.3f", name, signals[models.SignalName(name)]))
	}
	sb.WriteString(fmt.Sprintf("  Signals:        %s\n", strings.Join(parts, " ")))
}

func writeReferences(sb *strings.Builder, refs map[string]string) {
	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s %s\n", k+":", refs[k]))
	}
}
