// Package jsonc provides a JSONC (JSON with comments and trailing commas)
// implementation of the document.Decoder interface. Comment stripping is
// handled by github.com/tailscale/hujson; the standardized output is then
// parsed with encoding/json.
package jsonc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/remotesyssupport/stemcell/document"
	"github.com/tailscale/hujson"
)

// Decoder parses JSONC documents.
type Decoder struct{}

// Ensure Decoder implements the document.Decoder interface.
var _ document.Decoder = (*Decoder)(nil)

// New creates a JSONC decoder.
func New() *Decoder {
	return &Decoder{}
}

// Format returns the document format.
func (d *Decoder) Format() document.Format {
	return document.FormatJSONC
}

// Decode parses JSONC data into a map.
// Empty input (including documents containing only comments) decodes to an
// empty non-nil map.
func (d *Decoder) Decode(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return make(map[string]any), nil
	}

	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSONC: %w", err)
	}
	if len(bytes.TrimSpace(standard)) == 0 {
		return make(map[string]any), nil
	}

	var out map[string]any
	if err := json.Unmarshal(standard, &out); err != nil {
		return nil, fmt.Errorf("failed to parse JSONC: %w", err)
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}
