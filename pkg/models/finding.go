package models

import "strings"

// Finding is a single indicator produced by a scan
type Finding struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Explanation string   `json:"explanation,omitempty"`
}

// Well-known finding identifiers
const (
	FindingPDFScript        = "pdf_script_js"
	FindingOOXMLMacro       = "ooxml_vba_macro"
	FindingRTFObject        = "rtf_embedded_object"
	FindingExecutable       = "embedded_executable"
	FindingSuspiciousString = "suspicious_strings"
	FindingNoObviousTricks  = "no_obvious_tricks"
	FindingFallback         = "fallback"
)

// Severity represents the severity level of a finding
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityInfo   Severity = "info"
)

// GetSeverityPriority returns numeric priority for severity (higher = more severe)
func GetSeverityPriority(s Severity) int {
	switch s {
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// ParseSeverity maps free-form severity text onto the closed set.
// Anything unrecognized becomes info.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical":
		return SeverityHigh
	case "medium", "moderate":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return SeverityInfo
	}
}
