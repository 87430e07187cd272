package report

import "encoding/json"

// renderJSON renders the report as indented JSON
func renderJSON(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
