package report

import (
	"encoding/json"

	"github.com/IvanShishkin/docsentry/pkg/models"
)

// renderJSON renders a single report as an object and a batch as an array
func renderJSON(reports []*models.Report) ([]byte, error) {
	var v interface{} = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	if reports == nil {
		v = []*models.Report{}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
