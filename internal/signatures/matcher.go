package signatures

import (
	"bytes"
	"strings"

	"github.com/IvanShishkin/docsentry/pkg/models"
)

// Matcher matches content against the rule vocabulary
type Matcher struct {
	rules *models.RuleSet
}

// NewMatcher creates a new matcher
func NewMatcher(rules *models.RuleSet) *Matcher {
	return &Matcher{rules: rules}
}

// Rules returns the underlying rule set
func (m *Matcher) Rules() *models.RuleSet {
	return m.rules
}

// TokenHits returns the distinct suspicious tokens contained in text, in
// vocabulary order. text is expected to be lowercase already.
func (m *Matcher) TokenHits(text string) []string {
	var hits []string
	seen := make(map[string]bool)

	for _, token := range m.rules.SuspiciousTokens {
		token = strings.ToLower(token)
		if token == "" || seen[token] {
			continue
		}
		if strings.Contains(text, token) {
			seen[token] = true
			hits = append(hits, token)
		}
	}

	return hits
}

// MatchFamily looks for the first structural marker of family. raw is
// searched by case-sensitive sets, the lowercase text by the others.
func (m *Matcher) MatchFamily(family models.Family, raw []byte, text string) (*models.MarkerSet, string, bool) {
	ms := m.rules.GetByFamily(family)
	if ms == nil {
		return nil, "", false
	}

	if ms.IsRegex && ms.CompiledRe != nil {
		if ms.CaseSensitive {
			if loc := ms.CompiledRe.FindIndex(raw); loc != nil {
				return ms, string(raw[loc[0]:loc[1]]), true
			}
			return ms, "", false
		}
		if loc := ms.CompiledRe.FindStringIndex(text); loc != nil {
			return ms, text[loc[0]:loc[1]], true
		}
		return ms, "", false
	}

	for _, marker := range ms.Markers {
		if ms.CaseSensitive {
			if bytes.Contains(raw, []byte(marker)) {
				return ms, marker, true
			}
			continue
		}
		if strings.Contains(text, strings.ToLower(marker)) {
			return ms, marker, true
		}
	}

	return ms, "", false
}
