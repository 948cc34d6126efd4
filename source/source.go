// Package source provides read-only raw-data sources for configuration and
// role-metadata documents. A source is responsible only for I/O; parsing is
// handled by document.Decoder implementations.
package source

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Load when the underlying resource does not
// exist. Callers use this to distinguish "nothing declared" (for example a
// role without a metadata file) from real I/O failures.
var ErrNotExist = errors.New("source does not exist")

// SourceType identifies the kind of backend a source reads from.
type SourceType string

// Source type identifiers for the in-tree implementations.
const (
	TypeFS    SourceType = "fs"
	TypeBytes SourceType = "bytes"
)

// Source loads raw configuration data.
// Sources are format-agnostic; they only handle raw bytes.
type Source interface {
	// Type returns the source type identifier.
	Type() SourceType

	// Load reads the raw data from the source.
	// Returns an error wrapping ErrNotExist if the resource is absent.
	// The context can be used for cancellation and timeouts.
	Load(ctx context.Context) ([]byte, error)
}

// PathProvider is an optional interface implemented by sources that are
// addressable by a filesystem-like path (used for introspection and for
// change watching).
type PathProvider interface {
	Path() string
}
