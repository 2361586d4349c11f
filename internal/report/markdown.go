package report

import (
	"fmt"
	"strings"

	"github.com/IvanShishkin/docsentry/pkg/models"
)

// renderMarkdown renders a Markdown report
func renderMarkdown(reports []*models.Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Docsentry Document Report v%d\n\n", models.ReportVersion))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Document | Verdict | Risk | Sanitizer | Removed | After | Delta |\n")
	sb.WriteString("|----------|---------|------|-----------|---------|-------|-------|\n")
	malicious := 0
	for _, r := range reports {
		verdict, risk := "-", "-"
		if r.PreScan != nil {
			verdict = verdictLabel(r.PreScan.Verdict)
			risk = fmt.Sprintf("%.2f", r.PreScan.RiskScore)
			if r.PreScan.Verdict == models.VerdictMalicious {
				malicious++
			}
		}
		engine, removed := "-", "-"
		if r.Sanitizer != nil {
			engine = r.Sanitizer.Engine
			if len(r.Sanitizer.Removed) > 0 {
				removed = "`" + strings.Join(r.Sanitizer.Removed, "`, `") + "`"
			}
		}
		after, delta := "-", "-"
		if p := r.PostCleanScan; p != nil && p.ScanResult != nil {
			after = verdictLabel(p.Verdict)
			delta = fmt.Sprintf("%+.2f", p.DeltaRisk)
		}
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s | %s | %s | %s |\n",
			r.Original.Filename, verdict, risk, engine, removed, after, delta))
	}
	sb.WriteString("\n")

	if malicious == 0 {
		sb.WriteString("> ✅ **No malicious documents**\n\n")
	}

	// Details
	for _, r := range reports {
		if r.PreScan == nil || len(r.PreScan.Findings) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", r.Original.Filename))
		sb.WriteString(fmt.Sprintf("**SHA256:** `%s`\n\n", r.Original.SHA256))

		sb.WriteString("| Severity | Finding | Details |\n")
		sb.WriteString("|----------|---------|---------|\n")
		for _, f := range r.PreScan.Findings {
			details := escapeCell(f.Message)
			if f.Explanation != "" {
				details += "<br>_" + escapeCell(f.Explanation) + "_"
			}
			sb.WriteString(fmt.Sprintf("| %s %s | `%s` | %s |\n",
				getSeverityEmoji(f.Severity), strings.ToUpper(string(f.Severity)), f.ID, details))
		}
		sb.WriteString("\n")

		if len(r.Recommendations) > 0 {
			sb.WriteString("**Recommendations:**\n\n")
			for _, rec := range r.Recommendations {
				sb.WriteString(fmt.Sprintf("- %s\n", rec))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Generated by docsentry (%s)*\n", models.ReportEngine))

	return sb.String()
}

func verdictLabel(v models.Verdict) string {
	if v == models.VerdictMalicious {
		return "🔴 **MALICIOUS**"
	}
	return "🟢 benign"
}

// getSeverityEmoji returns emoji for severity level
func getSeverityEmoji(severity models.Severity) string {
	switch severity {
	case models.SeverityHigh:
		return "🔴"
	case models.SeverityMedium:
		return "🟡"
	case models.SeverityLow:
		return "🔵"
	case models.SeverityInfo:
		return "⚪"
	default:
		return "⚫"
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
