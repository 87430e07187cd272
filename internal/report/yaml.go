package report

import "gopkg.in/yaml.v3"

// renderYAML renders the report as YAML
func renderYAML(r *Report) ([]byte, error) {
	return yaml.Marshal(r)
}
