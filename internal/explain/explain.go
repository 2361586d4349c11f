// Package explain attaches human-readable explanations to findings.
package explain

import (
	"fmt"
	"strings"

	"github.com/IvanShishkin/docsentry/pkg/models"
)

// DefaultID is used for findings that carry no identifier
const DefaultID = "Indicator"

// Rule matches lowercase finding text and supplies an explanation
type Rule struct {
	Name        string
	Match       func(text string) bool
	Explanation string
}

func anyOf(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
}

func allOf(preds ...func(string) bool) func(string) bool {
	return func(text string) bool {
		for _, p := range preds {
			if !p(text) {
				return false
			}
		}
		return true
	}
}

// Rules is the keyword table, first match wins
var Rules = []Rule{
	{
		Name:        "macro",
		Match:       anyOf("vba", "macro"),
		Explanation: "This Office document contains a VBA macro that may run code when content is enabled.",
	},
	{
		Name:        "script",
		Match:       anyOf("javascript", "/openaction", "/js"),
		Explanation: "This PDF declares JavaScript or auto-run actions, often abused to execute code on open.",
	},
	{
		Name:        "embedded",
		Match:       allOf(anyOf("embedded"), anyOf("object", "file")),
		Explanation: "Embedded object/file detected; payloads can be hidden inside embedded objects.",
	},
	{
		Name:        "rtf",
		Match:       allOf(anyOf("rtf"), anyOf("object", "field")),
		Explanation: "RTF object/field constructs detected; these are frequently abused to launch external content.",
	},
}

// Explain returns the explanation for a finding id and message, or ""
func Explain(id, message string) string {
	// status findings describe the scan, not the document
	if id == models.FindingNoObviousTricks || id == models.FindingFallback {
		return ""
	}
	text := strings.ToLower(id + " " + message)
	for _, r := range Rules {
		if r.Match(text) {
			return r.Explanation
		}
	}
	return ""
}

// Translate returns a copy of findings with explanations filled in.
// Order and duplicates are preserved.
func Translate(findings []models.Finding) []models.Finding {
	out := make([]models.Finding, len(findings))
	for i, f := range findings {
		f.Explanation = Explain(f.ID, f.Message)
		out[i] = f
	}
	return out
}

var (
	idKeys       = []string{"id", "threat_type", "title", "name", "type"}
	messageKeys  = []string{"message", "indicator", "description", "details"}
	severityKeys = []string{"severity", "sev", "level"}
)

// TranslateRaw coerces loosely shaped findings, such as decoded JSON from
// another service, into explained findings. It never fails: values that
// are not objects become info findings named after their printed value.
func TranslateRaw(raw []interface{}) []models.Finding {
	out := make([]models.Finding, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]interface{})
		if !ok {
			id := fmt.Sprint(v)
			out = append(out, models.Finding{
				ID:          id,
				Severity:    models.SeverityInfo,
				Explanation: Explain(id, ""),
			})
			continue
		}

		id := firstString(m, idKeys)
		if id == "" {
			id = DefaultID
		}
		msg := firstString(m, messageKeys)
		out = append(out, models.Finding{
			ID:          id,
			Severity:    models.ParseSeverity(firstString(m, severityKeys)),
			Message:     msg,
			Explanation: Explain(id, msg),
		})
	}
	return out
}

// firstString returns the first non-empty value among keys
func firstString(m map[string]interface{}, keys []string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	return ""
}
