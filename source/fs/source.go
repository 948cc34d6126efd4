// Package fs provides a file system based source.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/remotesyssupport/stemcell/source"
)

// Source loads raw data from a file.
type Source struct {
	path        string
	searchPaths []string
}

// Ensure Source implements the source.Source interface.
var _ source.Source = (*Source)(nil)

// Ensure Source implements the source.PathProvider interface.
var _ source.PathProvider = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithSearchPaths adds additional paths to search for the file.
// During Load, files are tried in order: primary path first, then search
// paths. The first existing file is used.
func WithSearchPaths(paths ...string) Option {
	return func(s *Source) {
		s.searchPaths = append(s.searchPaths, paths...)
	}
}

// New creates a source that reads from a file.
// The path can be absolute or relative. Tilde (~) expansion is supported.
//
// Example:
//
//	src := fs.New("/etc/stemcell/config.yml")
//	src := fs.New("~/.config/stemcell/config.yml",
//	    fs.WithSearchPaths("/etc/stemcell/config.yml"))
func New(path string, opts ...Option) *Source {
	s := &Source{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Type returns the source type identifier.
func (s *Source) Type() source.SourceType {
	return source.TypeFS
}

// Path returns the primary file path.
func (s *Source) Path() string {
	return s.path
}

// Load implements the source.Source interface.
// If search paths are configured, files are tried in order: primary path
// first, then search paths; the first existing file is loaded. A missing
// file is reported as an error wrapping source.ErrNotExist.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, candidate := range append([]string{s.path}, s.searchPaths...) {
		resolved, err := expandHome(candidate)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(resolved)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return nil, fmt.Errorf("failed to read file %q: %w", candidate, err)
	}

	return nil, fmt.Errorf("file %q: %w", s.path, source.ErrNotExist)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory for %q: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}
