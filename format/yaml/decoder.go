// Package yaml provides a YAML implementation of the document.Decoder
// interface backed by gopkg.in/yaml.v3.
package yaml

import (
	"fmt"

	"github.com/remotesyssupport/stemcell/document"
	"gopkg.in/yaml.v3"
)

// Decoder parses YAML documents.
type Decoder struct{}

// Ensure Decoder implements the document.Decoder interface.
var _ document.Decoder = (*Decoder)(nil)

// New creates a YAML decoder.
func New() *Decoder {
	return &Decoder{}
}

// Format returns the document format.
func (d *Decoder) Format() document.Format {
	return document.FormatYAML
}

// Decode parses YAML data into a map.
// Empty input (including documents containing only comments) decodes to an
// empty non-nil map.
func (d *Decoder) Decode(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}
