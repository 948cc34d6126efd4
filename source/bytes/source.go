// Package bytes provides a byte slice based source, mainly for tests and
// embedded defaults.
package bytes

import (
	"context"

	"github.com/remotesyssupport/stemcell/source"
)

// Source loads raw data from an in-memory byte slice.
type Source struct {
	data []byte
}

// Ensure Source implements the source.Source interface.
var _ source.Source = (*Source)(nil)

// New creates a source from raw bytes.
func New(data []byte) *Source {
	return &Source{data: data}
}

// FromString creates a source from a string.
//
// Example:
//
//	src := bytes.FromString("default_options:\n  region: us-east-1")
func FromString(data string) *Source {
	return New([]byte(data))
}

// Type returns the source type identifier.
func (s *Source) Type() source.SourceType {
	return source.TypeBytes
}

// Load implements the source.Source interface.
// Returns a copy of the data to prevent callers from modifying the source.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]byte, len(s.data))
	copy(result, s.data)
	return result, nil
}
