// Package repository provides read-only access to the role metadata
// repository used during metadata expansion.
//
// The repository root contains a roles/ directory with one metadata file
// per role (roles/<role>.yml by default; any extension recognized by the
// format package works). The top level of each file maps environment names
// to option mappings:
//
//	production:
//	  backing_store: ebs
//	  instance_type: m2.4xlarge
//	staging: {}
//
// A role whose file or environment entry is missing has no declared
// metadata; that is distinct from an environment entry that is declared
// empty (as "staging" above). Callers see the difference through the
// declared return value of MetadataForRole.
package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/remotesyssupport/stemcell/format"
	"github.com/remotesyssupport/stemcell/maputil"
	"github.com/remotesyssupport/stemcell/source"
	"github.com/remotesyssupport/stemcell/source/fs"
)

// RolesDir is the directory under the repository root that holds role
// metadata files.
const RolesDir = "roles"

// SourceFactory creates a source for a repository-relative path.
// The default factory reads from the local filesystem; an S3-backed
// repository can substitute one that returns s3 sources.
type SourceFactory func(path string) source.Source

// Repository reads role metadata from a metadata repository.
type Repository struct {
	root    string
	sources SourceFactory
}

// Option configures a Repository.
type Option func(*Repository)

// WithSourceFactory overrides how repository files are read.
//
// Example:
//
//	repo := repository.New("stemcell", repository.WithSourceFactory(func(path string) source.Source {
//	    return s3.New("infra-config", path)
//	}))
func WithSourceFactory(factory SourceFactory) Option {
	return func(r *Repository) {
		r.sources = factory
	}
}

// New creates a Repository bound to the given root location.
// No I/O happens until a role is looked up.
func New(root string, opts ...Option) *Repository {
	r := &Repository{root: root}
	for _, opt := range opts {
		opt(r)
	}
	if r.sources == nil {
		r.sources = func(path string) source.Source {
			return fs.New(path)
		}
	}
	return r
}

// Root returns the repository root location.
func (r *Repository) Root() string {
	return r.root
}

// MetadataForRole returns the metadata declared for the role in the given
// environment.
//
// The declared return value reports whether any metadata exists for the
// role/environment pair: declared=false means the role file or its
// environment entry is missing, while a declared-but-empty entry yields
// (empty non-nil map, true, nil). I/O and parse failures are returned
// as-is and do not imply anything about the role's existence.
func (r *Repository) MetadataForRole(ctx context.Context, role, environment string) (map[string]any, bool, error) {
	data, found, err := r.loadRoleFile(ctx, role)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	raw, ok := data[environment]
	if !ok {
		return nil, false, nil
	}
	if raw == nil {
		// Declared with no options (e.g. "staging:" with nothing under it).
		return make(map[string]any), true, nil
	}

	meta := maputil.StringAnyMap(raw)
	if meta == nil {
		return nil, false, fmt.Errorf("role %q environment %q: metadata must be a mapping", role, environment)
	}
	return maputil.DeepCopyMap(meta), true, nil
}

// loadRoleFile reads and decodes the role's metadata file, probing each
// recognized extension in order. found=false means no file exists.
func (r *Repository) loadRoleFile(ctx context.Context, role string) (map[string]any, bool, error) {
	for _, ext := range format.Extensions {
		path := filepath.Join(r.root, RolesDir, role+ext)

		raw, err := r.sources(path).Load(ctx)
		if err != nil {
			if errors.Is(err, source.ErrNotExist) {
				continue
			}
			return nil, false, fmt.Errorf("failed to read role file %q: %w", path, err)
		}

		dec, err := format.ByExtension(path)
		if err != nil {
			return nil, false, err
		}
		data, err := dec.Decode(raw)
		if err != nil {
			return nil, false, fmt.Errorf("failed to decode role file %q: %w", path, err)
		}
		return data, true, nil
	}

	return nil, false, nil
}
