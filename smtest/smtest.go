// Package smtest provides in-memory stand-ins for the Expander's
// collaborators, so the expansion algorithm can be tested without any
// file-backed loading.
//
// Example:
//
//	cfg := &smtest.Configuration{
//	    Defaults: map[string]any{"region": "us-east-1"},
//	}
//	repo := &smtest.RoleRepository{
//	    Metadata: smtest.Roles{
//	        "web": {"production": {"instance_type": "m2.4xlarge"}},
//	    },
//	}
//	e, err := stemcell.New(root, "config.yml",
//	    stemcell.WithConfiguration(cfg),
//	    stemcell.WithRoleRepository(repo))
package smtest

import (
	"context"

	"github.com/remotesyssupport/stemcell/maputil"
)

// Configuration is an in-memory stemcell.Configuration.
// The zero value behaves like an empty configuration file.
type Configuration struct {
	// ConfigPath is returned by Path.
	ConfigPath string

	// Defaults is returned by DefaultOptions.
	Defaults map[string]any

	// Zones is returned by AvailabilityZones.
	Zones map[string][]string

	// BackingStores maps backing-store names to their option bundles.
	BackingStores map[string]map[string]any

	// StoreLookups records every name passed to OptionsForBackingStore,
	// in call order.
	StoreLookups []string
}

// Path returns the configured path.
func (c *Configuration) Path() string {
	return c.ConfigPath
}

// DefaultOptions returns a deep copy of Defaults (empty map when nil).
func (c *Configuration) DefaultOptions() map[string]any {
	if c.Defaults == nil {
		return make(map[string]any)
	}
	return maputil.DeepCopyMap(c.Defaults)
}

// AvailabilityZones returns Zones (empty map when nil).
func (c *Configuration) AvailabilityZones() map[string][]string {
	if c.Zones == nil {
		return make(map[string][]string)
	}
	return c.Zones
}

// OptionsForBackingStore returns the bundle for name, recording the lookup.
// Unknown names yield an empty map.
func (c *Configuration) OptionsForBackingStore(name string) map[string]any {
	c.StoreLookups = append(c.StoreLookups, name)
	opts, ok := c.BackingStores[name]
	if !ok {
		return make(map[string]any)
	}
	return maputil.DeepCopyMap(opts)
}

// Roles maps role name to environment name to declared metadata.
// A nil metadata map counts as declared-but-empty.
type Roles map[string]map[string]map[string]any

// RoleRepository is an in-memory stemcell.RoleRepository.
// The zero value behaves like a repository with no roles declared.
type RoleRepository struct {
	// RepoRoot is returned by Root.
	RepoRoot string

	// Metadata holds the declared role metadata.
	Metadata Roles

	// Err, when set, is returned by every MetadataForRole call.
	Err error

	// LastRole and LastEnvironment record the most recent lookup.
	LastRole        string
	LastEnvironment string
}

// Root returns the configured root.
func (r *RoleRepository) Root() string {
	return r.RepoRoot
}

// MetadataForRole returns the declared metadata for the role/environment
// pair, recording the lookup arguments.
func (r *RoleRepository) MetadataForRole(ctx context.Context, role, environment string) (map[string]any, bool, error) {
	r.LastRole = role
	r.LastEnvironment = environment

	if r.Err != nil {
		return nil, false, r.Err
	}

	envs, ok := r.Metadata[role]
	if !ok {
		return nil, false, nil
	}
	meta, ok := envs[environment]
	if !ok {
		return nil, false, nil
	}
	if meta == nil {
		return make(map[string]any), true, nil
	}
	return maputil.DeepCopyMap(meta), true, nil
}
