// Package format selects document decoders by file extension.
//
// The concrete decoders live in the subpackages (format/yaml, format/toml,
// format/jsonc, format/json); this package only maps file names onto them.
package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/remotesyssupport/stemcell/document"
	"github.com/remotesyssupport/stemcell/format/json"
	"github.com/remotesyssupport/stemcell/format/jsonc"
	"github.com/remotesyssupport/stemcell/format/toml"
	"github.com/remotesyssupport/stemcell/format/yaml"
)

// Extensions recognized by ByExtension, in the order they are tried when
// probing for a file with an unknown extension.
var Extensions = []string{".yml", ".yaml", ".toml", ".jsonc", ".json"}

// ByExtension returns the decoder for the given file name's extension.
// Matching is case-insensitive.
//
// Example:
//
//	dec, err := format.ByExtension("config.yml")   // YAML decoder
//	dec, err := format.ByExtension("roles/web.toml") // TOML decoder
func ByExtension(name string) (document.Decoder, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		return yaml.New(), nil
	case ".toml":
		return toml.New(), nil
	case ".jsonc":
		return jsonc.New(), nil
	case ".json":
		return json.New(), nil
	default:
		return nil, fmt.Errorf("no decoder for file %q", name)
	}
}
