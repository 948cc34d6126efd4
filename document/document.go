// Package document defines the decoding contract between raw configuration
// bytes and the map[string]any data model used by the rest of the module.
//
// Decoders are stateless: each Decode call parses one complete document.
// Metadata files are read-only inputs to expansion, so no serialization or
// formatting-preservation support is needed here.
package document

// Format identifies the on-disk format of a configuration document.
type Format string

// Known document formats.
const (
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
)

// Decoder parses raw document bytes into a string-keyed mapping.
// Implementations live under the format/ subpackages, one per format.
type Decoder interface {
	// Format returns the format this decoder handles.
	Format() Format

	// Decode parses data into a map[string]any. An empty or nil input
	// decodes to an empty non-nil map. The top level of the document
	// must be a mapping; anything else is a decode error.
	Decode(data []byte) (map[string]any, error)
}
