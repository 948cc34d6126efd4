// Package toml provides a TOML implementation of the document.Decoder
// interface backed by github.com/pelletier/go-toml/v2.
package toml

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/remotesyssupport/stemcell/document"
)

// Decoder parses TOML documents.
type Decoder struct{}

// Ensure Decoder implements the document.Decoder interface.
var _ document.Decoder = (*Decoder)(nil)

// New creates a TOML decoder.
func New() *Decoder {
	return &Decoder{}
}

// Format returns the document format.
func (d *Decoder) Format() document.Format {
	return document.FormatTOML
}

// Decode parses TOML data into a map.
func (d *Decoder) Decode(data []byte) (map[string]any, error) {
	out := make(map[string]any)
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return out, nil
}
