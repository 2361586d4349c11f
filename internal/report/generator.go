package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IvanShishkin/docsentry/internal/config"
	"github.com/IvanShishkin/docsentry/pkg/models"
	"go.uber.org/zap"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorWhite  = "\033[37m"
	colorOrange = "\033[38;5;208m"
	colorGray   = "\033[38;5;245m"
)

// Stdout as output file writes the report to the console writer
const Stdout = "-"

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		// Milliseconds
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		// Seconds
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else if d < time.Hour {
		// Minutes and seconds
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins*60)
		return fmt.Sprintf("%dm%.2fs", mins, secs)
	}
	// Hours, minutes and seconds
	hours := int(d.Hours())
	mins := int(d.Minutes()) - hours*60
	secs := d.Seconds() - float64(hours*3600) - float64(mins*60)
	return fmt.Sprintf("%dh%dm%.2fs", hours, mins, secs)
}

// Generator generates processing reports in various formats
type Generator struct {
	config *config.Config
	logger *zap.Logger
	out    io.Writer
}

// NewGenerator creates a new report generator
func NewGenerator(cfg *config.Config, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		config: cfg,
		logger: logger,
		out:    os.Stdout,
	}, nil
}

// SetOutput sets the console writer
func (g *Generator) SetOutput(w io.Writer) {
	g.out = w
}

// Generate writes a report for the processed documents and returns the
// absolute path of the file written, or "" for console output
func (g *Generator) Generate(reports []*models.Report) (string, error) {
	format := g.config.ReportFormat
	outputFile := g.config.OutputFile

	// If no format specified, print to console
	if format == "" || format == "console" {
		g.printConsole(reports)
		return "", nil
	}

	// Generate default filename if not specified
	if outputFile == "" {
		timestamp := time.Now().Format("20060102-150405")
		switch format {
		case "json":
			outputFile = fmt.Sprintf("DOCSENTRY-REPORT-%s.json", timestamp)
		case "txt", "text":
			outputFile = fmt.Sprintf("DOCSENTRY-REPORT-%s.txt", timestamp)
		case "md", "markdown":
			outputFile = fmt.Sprintf("DOCSENTRY-REPORT-%s.md", timestamp)
		default:
			return "", fmt.Errorf("unknown report format: %s", format)
		}
	}

	g.logger.Info("Generating report",
		zap.String("format", format),
		zap.String("output", outputFile))

	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = renderJSON(reports)
	case "txt", "text":
		data = []byte(renderText(reports))
	case "md", "markdown":
		data = []byte(renderMarkdown(reports))
	default:
		err = fmt.Errorf("unknown report format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	if outputFile == Stdout {
		_, err := g.out.Write(data)
		return "", err
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s report: %w", format, err)
	}

	// Get absolute path
	absPath, _ := filepath.Abs(outputFile)
	return absPath, nil
}

// printConsole prints reports with colors
func (g *Generator) printConsole(reports []*models.Report) {
	w := g.out
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sPROCESSING COMPLETE%s\n", colorBold, colorOrange, colorReset)
	fmt.Fprintln(w)

	malicious := 0
	for _, r := range reports {
		if r.PreScan != nil && r.PreScan.Verdict == models.VerdictMalicious {
			malicious++
		}
	}
	fmt.Fprintf(w, "  %sDocuments:%s %d\n", colorGray, colorReset, len(reports))
	if malicious == 0 {
		fmt.Fprintf(w, "  %s%s✓ No malicious documents%s\n", colorBold, colorGreen, colorReset)
	} else {
		fmt.Fprintf(w, "  %s%s⚠ MALICIOUS: %d%s\n", colorBold, colorRed, malicious, colorReset)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s───────────────────────────────────────────────────────────────%s\n", colorGray, colorReset)

	for i, r := range reports {
		pre := r.PreScan
		if pre == nil {
			continue
		}
		fmt.Fprintf(w, "\n  %s%s[%d]%s %s%s%s\n", colorBold, colorWhite, i+1, colorReset, colorBold, r.Original.Filename, colorReset)
		fmt.Fprintf(w, "      %sVerdict:%s   %s%s%s (risk %.2f)\n",
			colorGray, colorReset, getVerdictColor(pre.Verdict), strings.ToUpper(string(pre.Verdict)), colorReset, pre.RiskScore)
		fmt.Fprintf(w, "      %sSHA256:%s    %s\n", colorGray, colorReset, r.Original.SHA256)

		for _, f := range pre.Findings {
			fmt.Fprintf(w, "      %s%-6s%s %s\n", getSeverityColor(f.Severity), strings.ToUpper(string(f.Severity)), colorReset, cleanFragment(f.Message, 100))
			if f.Explanation != "" {
				fmt.Fprintf(w, "             %s%s%s\n", colorDim, cleanFragment(f.Explanation, 100), colorReset)
			}
		}

		if s := r.Sanitizer; s != nil {
			switch {
			case s.Error != "":
				fmt.Fprintf(w, "      %sSanitizer:%s %s%s failed: %s%s\n", colorGray, colorReset, colorYellow, s.Engine, cleanFragment(s.Error, 80), colorReset)
			case s.Changed:
				fmt.Fprintf(w, "      %sSanitizer:%s %s removed %s\n", colorGray, colorReset, s.Engine, strings.Join(s.Removed, ", "))
			default:
				fmt.Fprintf(w, "      %sSanitizer:%s %s, nothing removed\n", colorGray, colorReset, s.Engine)
			}
		}
		if p := r.PostCleanScan; p != nil && p.ScanResult != nil {
			fmt.Fprintf(w, "      %sAfter:%s     %s%s%s (delta %+.2f)\n",
				colorGray, colorReset, getVerdictColor(p.Verdict), strings.ToUpper(string(p.Verdict)), colorReset, p.DeltaRisk)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s───────────────────────────────────────────────────────────────%s\n", colorGray, colorReset)
	fmt.Fprintln(w)
}

// getVerdictColor returns ANSI color for a verdict
func getVerdictColor(verdict models.Verdict) string {
	if verdict == models.VerdictMalicious {
		return colorRed + colorBold
	}
	return colorGreen
}

// getSeverityColor returns ANSI color for severity level
func getSeverityColor(severity models.Severity) string {
	switch severity {
	case models.SeverityHigh:
		return colorRed + colorBold
	case models.SeverityMedium:
		return colorYellow
	case models.SeverityLow:
		return colorGreen
	case models.SeverityInfo:
		return colorBlue
	default:
		return colorWhite
	}
}

// cleanFragment collapses whitespace and truncates text for console output
func cleanFragment(fragment string, maxLen int) string {
	// Replace newlines and tabs with spaces
	fragment = strings.ReplaceAll(fragment, "\n", " ")
	fragment = strings.ReplaceAll(fragment, "\r", "")
	fragment = strings.ReplaceAll(fragment, "\t", " ")

	// Collapse multiple spaces
	for strings.Contains(fragment, "  ") {
		fragment = strings.ReplaceAll(fragment, "  ", " ")
	}

	fragment = strings.TrimSpace(fragment)

	if len(fragment) > maxLen {
		fragment = fragment[:maxLen] + "..."
	}

	return fragment
}
