package models

import (
	"fmt"
	"regexp"
)

// MarkerSet is the structural marker list for one family
type MarkerSet struct {
	Family        Family         `yaml:"family" json:"family"`
	FindingID     string         `yaml:"finding_id" json:"finding_id"`
	Severity      Severity       `yaml:"severity" json:"severity"`
	Message       string         `yaml:"message" json:"message"`
	Markers       []string       `yaml:"markers" json:"markers"`
	CaseSensitive bool           `yaml:"case_sensitive" json:"case_sensitive"`
	IsRegex       bool           `yaml:"is_regex" json:"is_regex"`
	CompiledRe    *regexp.Regexp `yaml:"-" json:"-"`
}

// RuleSet is the vocabulary used by the signal extractor
type RuleSet struct {
	SuspiciousTokens []string     `yaml:"suspicious_tokens" json:"suspicious_tokens"`
	Structural       []*MarkerSet `yaml:"structural" json:"structural"`
	ByFamily         map[Family]*MarkerSet `yaml:"-" json:"-"`
}

// NewRuleSet creates an empty rule set
func NewRuleSet() *RuleSet {
	return &RuleSet{ByFamily: make(map[Family]*MarkerSet)}
}

// AddMarkers adds a marker set, replacing any previous set for the family
func (rs *RuleSet) AddMarkers(ms *MarkerSet) error {
	if ms.IsRegex {
		pattern := ""
		for i, m := range ms.Markers {
			if i > 0 {
				pattern += "|"
			}
			pattern += m
		}
		if !ms.CaseSensitive {
			pattern = "(?i)(?:" + pattern + ")"
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("family %s: %w", ms.Family, err)
		}
		ms.CompiledRe = re
	}
	if ms.Severity == "" {
		ms.Severity = SeverityHigh
	}

	for i, existing := range rs.Structural {
		if existing.Family == ms.Family {
			rs.Structural = append(rs.Structural[:i], rs.Structural[i+1:]...)
			break
		}
	}
	rs.Structural = append(rs.Structural, ms)
	rs.ByFamily[ms.Family] = ms
	return nil
}

// GetByFamily returns the marker set for family, or nil
func (rs *RuleSet) GetByFamily(family Family) *MarkerSet {
	return rs.ByFamily[family]
}
