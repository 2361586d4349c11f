package models

import "time"

// ScanMetadata describes the scanned buffer
type ScanMetadata struct {
	Filename  string   `json:"filename"`
	MediaType string   `json:"media_type"`
	Extension string   `json:"extension"`
	Size      int      `json:"size"`
	SHA256    string   `json:"sha256"`
	Notes     []string `json:"notes,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ScanResult is the outcome of one scan pass. It is always well-formed,
// including when the scan itself failed internally.
type ScanResult struct {
	Verdict         Verdict              `json:"verdict"`
	RiskScore       float64              `json:"risk_score"`
	Signals         SignalSet            `json:"signals"`
	Findings        []Finding            `json:"findings"`
	Recommendations []string             `json:"recommendations"`
	Metadata        ScanMetadata         `json:"metadata"`
	Sanitization    *SanitizationOutcome `json:"sanitization,omitempty"`
}

// HasFinding reports whether a finding with id is present
func (r *ScanResult) HasFinding(id string) bool {
	for _, f := range r.Findings {
		if f.ID == id {
			return true
		}
	}
	return false
}

// SanitizationOutcome is the result of one sanitizer pass
type SanitizationOutcome struct {
	Artifact *FileArtifact `json:"-"`
	Engine   string        `json:"engine"`
	Removed  []string      `json:"removed"`
	Notes    []string      `json:"notes,omitempty"`
	Error    string        `json:"error,omitempty"`
	Changed  bool          `json:"changed"`
	SHA256   string        `json:"sha256"`
}

// Stage names one step of the processing state machine
type Stage string

const (
	StageReceived    Stage = "received"
	StagePreScanned  Stage = "pre_scanned"
	StageSanitized   Stage = "sanitized"
	StagePostScanned Stage = "post_scanned"
	StageReconciled  Stage = "reconciled"
)

// Stages lists the states in the order they are entered
var Stages = []Stage{StageReceived, StagePreScanned, StageSanitized, StagePostScanned, StageReconciled}

// StageRecord is the trace entry for one stage
type StageRecord struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// PostCleanScan is the re-scan of the sanitized artifact
type PostCleanScan struct {
	Filename  string  `json:"filename"`
	DeltaRisk float64 `json:"delta_risk"`
	*ScanResult
}

// Report is the reconciled result of the full pipeline
type Report struct {
	Version         int                  `json:"version"`
	Engine          string               `json:"engine"`
	References      map[string]string    `json:"references,omitempty"`
	Original        ScanMetadata         `json:"original"`
	PreScan         *ScanResult          `json:"pre_scan"`
	Sanitizer       *SanitizationOutcome `json:"sanitizer"`
	PostCleanScan   *PostCleanScan       `json:"post_clean_scan"`
	Recommendations []string             `json:"recommendations"`
	Nudged          bool                 `json:"nudged"`
	Stages          []StageRecord        `json:"stages"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
}

// ReportVersion is the version of the Report layout
const ReportVersion = 1

// ReportEngine names the scoring engine in reports
const ReportEngine = "safedocs-ensemble"
