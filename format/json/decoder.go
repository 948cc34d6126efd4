// Package json provides a JSON implementation of the document.Decoder
// interface using the standard library encoding/json.
package json

import (
	"encoding/json"
	"fmt"

	"github.com/remotesyssupport/stemcell/document"
)

// Decoder parses JSON documents.
type Decoder struct{}

// Ensure Decoder implements the document.Decoder interface.
var _ document.Decoder = (*Decoder)(nil)

// New creates a JSON decoder.
func New() *Decoder {
	return &Decoder{}
}

// Format returns the document format.
func (d *Decoder) Format() document.Format {
	return document.FormatJSON
}

// Decode parses JSON data into a map.
// Empty input decodes to an empty non-nil map.
func (d *Decoder) Decode(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return make(map[string]any), nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}
