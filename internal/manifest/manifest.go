// Package manifest parses project descriptor files
package manifest

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// ParseError reports a descriptor that is not valid TOML
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("manifest parse error at line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("manifest parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Document is a decoded descriptor
type Document map[string]any

// Parse decodes descriptor text into a generic document
func Parse(text string) (Document, error) {
	doc := make(Document)
	if _, err := toml.Decode(text, &doc); err != nil {
		pe := &ParseError{Err: err}
		var tomlErr toml.ParseError
		if errors.As(err, &tomlErr) {
			pe.Line = tomlErr.Position.Line
			pe.Column = tomlErr.Position.Col
		}
		return nil, pe
	}
	return doc, nil
}

// PackageName returns package.name when present
func (d Document) PackageName() (string, bool) {
	pkg, ok := d["package"].(map[string]any)
	if !ok {
		return "", false
	}
	name, ok := pkg["name"].(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// IsWorkspace reports whether the document declares a workspace table
func (d Document) IsWorkspace() bool {
	_, ok := d["workspace"]
	return ok
}
