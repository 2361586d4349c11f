package explain

import (
	"encoding/json"
	"testing"

	"github.com/IvanShishkin/docsentry/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		message string
		want    string
	}{
		{"macro by id", models.FindingOOXMLMacro, "", Rules[0].Explanation},
		{"macro by message", "x", "Contains MACRO code", Rules[0].Explanation},
		{"pdf javascript", models.FindingPDFScript, "PDF contains JavaScript hints", Rules[1].Explanation},
		{"pdf openaction", "indicator", "catalog has /OpenAction", Rules[1].Explanation},
		{"embedded file", "embedded_file", "", Rules[2].Explanation},
		{"embedded needs object or file", "embedded", "stream", ""},
		{"rtf field", "rtf_field", "", Rules[3].Explanation},
		{"rtf alone", "rtf", "plain", ""},
		{"first match wins", "vba", "javascript", Rules[0].Explanation},
		{"status finding", models.FindingNoObviousTricks, "No obvious embedded scripts/objects detected", ""},
		{"unknown", "entropy", "high entropy", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Explain(tt.id, tt.message))
		})
	}
}

func TestTranslate(t *testing.T) {
	in := []models.Finding{
		{ID: models.FindingPDFScript, Severity: models.SeverityHigh, Message: "/OpenAction"},
		{ID: models.FindingPDFScript, Severity: models.SeverityHigh, Message: "/OpenAction"},
		{ID: "other", Severity: models.SeverityLow},
	}

	out := Translate(in)

	require.Len(t, out, 3)
	assert.Equal(t, Rules[1].Explanation, out[0].Explanation)
	assert.Equal(t, Rules[1].Explanation, out[1].Explanation)
	assert.Empty(t, out[2].Explanation)
	assert.Empty(t, in[0].Explanation, "input must not be modified")
}

func TestTranslateRaw(t *testing.T) {
	var raw []interface{}
	err := json.Unmarshal([]byte(`[
		{"threat_type": "VBA Macro", "description": "AutoOpen present", "sev": "critical"},
		{"title": "Embedded file", "details": "attachment.exe", "level": "moderate"},
		{"message": "no id here"},
		"bare string",
		42,
		null,
		{"id": "", "name": "fallback-name", "severity": "bogus"}
	]`), &raw)
	require.NoError(t, err)

	out := TranslateRaw(raw)
	require.Len(t, out, 7)

	assert.Equal(t, "VBA Macro", out[0].ID)
	assert.Equal(t, "AutoOpen present", out[0].Message)
	assert.Equal(t, models.SeverityHigh, out[0].Severity)
	assert.Equal(t, Rules[0].Explanation, out[0].Explanation)

	assert.Equal(t, models.SeverityMedium, out[1].Severity)
	assert.Equal(t, Rules[2].Explanation, out[1].Explanation)

	assert.Equal(t, DefaultID, out[2].ID)
	assert.Equal(t, models.SeverityInfo, out[2].Severity)

	assert.Equal(t, "bare string", out[3].ID)
	assert.Equal(t, models.SeverityInfo, out[3].Severity)
	assert.Equal(t, "42", out[4].ID)
	assert.Equal(t, "<nil>", out[5].ID)

	assert.Equal(t, "fallback-name", out[6].ID)
	assert.Equal(t, models.SeverityInfo, out[6].Severity)
}

func TestTranslateRaw_Empty(t *testing.T) {
	assert.Empty(t, TranslateRaw(nil))
}
