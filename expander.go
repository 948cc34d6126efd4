package stemcell

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/remotesyssupport/stemcell/config"
	"github.com/remotesyssupport/stemcell/maputil"
	"github.com/remotesyssupport/stemcell/repository"
)

// Configuration is the read-only contract the Expander consumes from the
// site configuration. All methods are pure reads and must return consistent
// values within a single expansion (no observable mutation mid-call).
type Configuration interface {
	// Path returns the location the configuration was loaded from.
	Path() string

	// DefaultOptions returns the site-wide default options.
	DefaultOptions() map[string]any

	// AvailabilityZones returns the region to ordered availability-zone
	// list mapping.
	AvailabilityZones() map[string][]string

	// OptionsForBackingStore returns the option bundle for the named
	// backing store. Unknown names yield an empty map.
	OptionsForBackingStore(name string) map[string]any
}

// RoleRepository is the read-only contract the Expander consumes from the
// metadata repository.
type RoleRepository interface {
	// Root returns the repository root location.
	Root() string

	// MetadataForRole returns the metadata declared for the role in the
	// given environment. declared=false means no metadata exists for the
	// pair, which is distinct from declared-but-empty (empty map, true).
	MetadataForRole(ctx context.Context, role, environment string) (map[string]any, bool, error)
}

// Loader is an optional interface implemented by collaborators that load
// their data from an external source. The Expander loads such collaborators
// before their first read.
type Loader interface {
	Load(ctx context.Context) error
}

// Reloader is an optional interface implemented by collaborators that can
// re-read their data, discarding what was previously loaded. Watch uses it
// to pick up external changes.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Expander resolves instance launch metadata for a role/environment pair.
//
// An Expander owns one Configuration and one RoleRepository, each bound to
// fixed locations at construction. It retains no mutable expansion state:
// ExpandRole is a pure function of its arguments and the collaborators'
// current data, so concurrent calls are safe as long as the collaborators
// are safe for concurrent reads (the in-tree ones are).
type Expander struct {
	rootPath       string
	configFilename string

	config Configuration
	roles  RoleRepository

	// subscriber bookkeeping for Watch; see watch.go
	mu          sync.Mutex
	subscribers []subscriber
	nextSubID   uint64
}

// Option configures an Expander.
type Option func(*Expander)

// WithConfiguration substitutes the site configuration collaborator.
// Mainly used with in-memory stand-ins in tests.
func WithConfiguration(c Configuration) Option {
	return func(e *Expander) {
		e.config = c
	}
}

// WithRoleRepository substitutes the role repository collaborator.
func WithRoleRepository(r RoleRepository) Option {
	return func(e *Expander) {
		e.roles = r
	}
}

// New creates an Expander rooted at rootPath.
//
// The site configuration is bound to rootPath/configFilename and the role
// repository to rootPath; neither is read until the first expansion. Both
// arguments are required identity fields: an empty value fails with an
// error matching ErrInvalidArgument, and no partial construction occurs.
//
// Example:
//
//	e, err := stemcell.New("/srv/chef", "config.yml")
//	if err != nil {
//	  return err
//	}
//	meta, err := e.ExpandRole(ctx, "web", "production", nil)
func New(rootPath, configFilename string, opts ...Option) (*Expander, error) {
	if rootPath == "" {
		return nil, &InvalidArgumentError{Arg: "rootPath"}
	}
	if configFilename == "" {
		return nil, &InvalidArgumentError{Arg: "configFilename"}
	}

	e := &Expander{
		rootPath:       rootPath,
		configFilename: configFilename,
		nextSubID:      1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.config == nil {
		e.config = config.New(filepath.Join(rootPath, configFilename))
	}
	if e.roles == nil {
		e.roles = repository.New(rootPath)
	}
	return e, nil
}

// RootPath returns the repository root the Expander was constructed with.
func (e *Expander) RootPath() string {
	return e.rootPath
}

// ConfigFilename returns the configuration file name the Expander was
// constructed with.
func (e *Expander) ConfigFilename() string {
	return e.configFilename
}

// Configuration returns the owned site configuration, for introspection.
func (e *Expander) Configuration() Configuration {
	return e.config
}

// Roles returns the owned role repository, for introspection.
func (e *Expander) Roles() RoleRepository {
	return e.roles
}

// ExpandOption configures a single ExpandRole call.
type ExpandOption func(*expandOptions)

type expandOptions struct {
	allowEmptyRoles bool
}

// AllowEmptyRoles makes expansion of a role with no declared metadata
// succeed with a defaults-only result instead of failing with an error
// matching ErrEmptyRole.
func AllowEmptyRoles() ExpandOption {
	return func(o *expandOptions) {
		o.allowEmptyRoles = true
	}
}

// ExpandRole resolves the full metadata mapping for the role in the given
// environment.
//
// Layers are merged from lowest to highest precedence: built-in defaults,
// site-wide default options, options for the resolved backing store, role
// metadata, then overrides. The backing store itself is resolved ahead of
// the merge through its own precedence chain (override, role metadata,
// site defaults, built-in default) because the bundle to merge depends on
// which store ultimately wins. KeyRole and KeyEnvironment are then set
// unconditionally from the arguments, and the availability zone is derived
// from the merged region if none was set.
//
// role and environment are required; an empty value fails with an error
// matching ErrInvalidArgument before any collaborator is consulted. A role
// with no declared metadata fails with an error matching ErrEmptyRole
// unless AllowEmptyRoles is given. Collaborator failures propagate as-is.
func (e *Expander) ExpandRole(ctx context.Context, role, environment string, overrides map[string]any, opts ...ExpandOption) (map[string]any, error) {
	if role == "" {
		return nil, &InvalidArgumentError{Arg: "role"}
	}
	if environment == "" {
		return nil, &InvalidArgumentError{Arg: "environment"}
	}

	var options expandOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	roleMeta, declared, err := e.roles.MetadataForRole(ctx, role, environment)
	if err != nil {
		return nil, err
	}
	if !declared {
		if !options.allowEmptyRoles {
			return nil, &EmptyRoleError{Role: role, Environment: environment}
		}
		roleMeta = make(map[string]any)
	}

	configDefaults := e.config.DefaultOptions()
	backingStore := resolveBackingStore(overrides, roleMeta, configDefaults)

	merged := maputil.MergeAll(
		builtinDefaults,
		configDefaults,
		e.config.OptionsForBackingStore(backingStore),
		roleMeta,
		overrides,
	)

	merged[KeyRole] = role
	merged[KeyEnvironment] = environment

	e.deriveAvailabilityZone(merged)

	return merged, nil
}

// ensureLoaded loads collaborators that defer their I/O (the file-backed
// Configuration does; in-memory stand-ins typically don't implement Loader).
func (e *Expander) ensureLoaded(ctx context.Context) error {
	if l, ok := e.config.(Loader); ok {
		if err := l.Load(ctx); err != nil {
			return err
		}
	}
	if l, ok := e.roles.(Loader); ok {
		if err := l.Load(ctx); err != nil {
			return err
		}
	}
	return nil
}

// resolveBackingStore resolves which backing store an expansion uses,
// ahead of the full merge: override, then role metadata, then site
// defaults, then the built-in default.
func resolveBackingStore(overrides, roleMeta, configDefaults map[string]any) string {
	for _, layer := range []map[string]any{overrides, roleMeta, configDefaults} {
		if name, ok := maputil.StringValue(layer, KeyBackingStore); ok {
			return name
		}
	}
	return DefaultBackingStore
}

// deriveAvailabilityZone fills in the availability zone from the merged
// region. Runs exactly once, strictly after the merge: it must see the
// final region/availability_zone pair, not any single layer's.
//
// The zone is only derived when the region is set and the zone is not;
// an explicit zone is never touched, and an unknown region leaves the
// zone as-is.
func (e *Expander) deriveAvailabilityZone(merged map[string]any) {
	if az, ok := merged[KeyAvailabilityZone]; ok && az != nil {
		return
	}
	region, ok := maputil.StringValue(merged, KeyRegion)
	if !ok {
		return
	}

	zones := e.config.AvailabilityZones()[region]
	if len(zones) == 0 {
		return
	}
	merged[KeyAvailabilityZone] = zones[0]
}
