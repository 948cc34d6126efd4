// Package config provides read-only access to the site-wide configuration
// file used during metadata expansion.
//
// The file is a mapping with three recognized sections:
//
//	default_options:
//	  region: us-east-1
//	availability_zones:
//	  us-east-1: [us-east-1a, us-east-1b]
//	backing_store_options:
//	  ebs:
//	    image_id: ami-12345678
//
// All sections are optional. Once loaded, a Config is immutable until an
// explicit Reload; all accessors are pure reads over the loaded data and
// are safe for concurrent use.
package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/remotesyssupport/stemcell/document"
	"github.com/remotesyssupport/stemcell/format"
	"github.com/remotesyssupport/stemcell/maputil"
	"github.com/remotesyssupport/stemcell/source"
	"github.com/remotesyssupport/stemcell/source/fs"
)

// Section keys recognized in the configuration file.
const (
	KeyDefaultOptions      = "default_options"
	KeyAvailabilityZones   = "availability_zones"
	KeyBackingStoreOptions = "backing_store_options"
)

// Config reads the site configuration file and exposes its sections.
type Config struct {
	path string
	src  source.Source
	dec  document.Decoder

	mu       sync.RWMutex
	loaded   bool
	defaults map[string]any
	zones    map[string][]string
	stores   map[string]map[string]any
}

// Option configures a Config.
type Option func(*Config)

// WithSource overrides the backing source. The default reads the file at
// the configured path from the local filesystem.
func WithSource(src source.Source) Option {
	return func(c *Config) {
		c.src = src
	}
}

// WithDecoder overrides the document decoder. The default is chosen from
// the path's file extension.
func WithDecoder(dec document.Decoder) Option {
	return func(c *Config) {
		c.dec = dec
	}
}

// New creates a Config bound to the given file path.
// No I/O happens until Load is called.
//
// Example:
//
//	cfg := config.New("/srv/chef/config.yml")
//	cfg := config.New("config.yml", config.WithSource(s3src))
func New(path string, opts ...Option) *Config {
	c := &Config{path: path}
	for _, opt := range opts {
		opt(c)
	}
	if c.src == nil {
		c.src = fs.New(path)
	}
	return c
}

// Path returns the location this configuration is bound to.
func (c *Config) Path() string {
	return c.path
}

// Load reads and parses the configuration file. Subsequent calls are no-ops
// once a load has succeeded; use Reload to pick up external changes.
func (c *Config) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

// Reload re-reads the configuration file, replacing any previously loaded
// data. On failure the previous data is kept.
func (c *Config) Reload(ctx context.Context) error {
	dec := c.dec
	if dec == nil {
		var err error
		dec, err = format.ByExtension(c.path)
		if err != nil {
			return fmt.Errorf("failed to resolve decoder for %q: %w", c.path, err)
		}
	}

	raw, err := c.src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration %q: %w", c.path, err)
	}

	data, err := dec.Decode(raw)
	if err != nil {
		return fmt.Errorf("failed to decode configuration %q: %w", c.path, err)
	}

	defaults, zones, stores, err := parseSections(data)
	if err != nil {
		return fmt.Errorf("malformed configuration %q: %w", c.path, err)
	}

	c.mu.Lock()
	c.defaults = defaults
	c.zones = zones
	c.stores = stores
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// parseSections extracts the three recognized sections from the decoded
// document. Missing sections yield empty maps.
func parseSections(data map[string]any) (defaults map[string]any, zones map[string][]string, stores map[string]map[string]any, err error) {
	defaults = make(map[string]any)
	zones = make(map[string][]string)
	stores = make(map[string]map[string]any)

	if raw, ok := data[KeyDefaultOptions]; ok && raw != nil {
		m := maputil.StringAnyMap(raw)
		if m == nil {
			return nil, nil, nil, fmt.Errorf("%s must be a mapping", KeyDefaultOptions)
		}
		defaults = maputil.DeepCopyMap(m)
	}

	if raw, ok := data[KeyAvailabilityZones]; ok && raw != nil {
		m := maputil.StringAnyMap(raw)
		if m == nil {
			return nil, nil, nil, fmt.Errorf("%s must be a mapping", KeyAvailabilityZones)
		}
		for region, value := range m {
			if value == nil {
				continue
			}
			names := maputil.StringSlice(value)
			if names == nil {
				return nil, nil, nil, fmt.Errorf("%s entry %q must be a sequence", KeyAvailabilityZones, region)
			}
			zones[region] = names
		}
	}

	if raw, ok := data[KeyBackingStoreOptions]; ok && raw != nil {
		m := maputil.StringAnyMap(raw)
		if m == nil {
			return nil, nil, nil, fmt.Errorf("%s must be a mapping", KeyBackingStoreOptions)
		}
		for name, value := range m {
			if value == nil {
				stores[name] = make(map[string]any)
				continue
			}
			opts := maputil.StringAnyMap(value)
			if opts == nil {
				return nil, nil, nil, fmt.Errorf("%s entry %q must be a mapping", KeyBackingStoreOptions, name)
			}
			stores[name] = maputil.DeepCopyMap(opts)
		}
	}

	return defaults, zones, stores, nil
}

// DefaultOptions returns the site-wide default options.
// The returned map is a deep copy; callers may modify it freely.
// Returns an empty map if the configuration has not been loaded.
func (c *Config) DefaultOptions() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.defaults == nil {
		return make(map[string]any)
	}
	return maputil.DeepCopyMap(c.defaults)
}

// AvailabilityZones returns the region to availability-zone mapping.
// Zone order within a region is preserved from the configuration file.
// The returned map is a copy; callers may modify it freely.
func (c *Config) AvailabilityZones() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]string, len(c.zones))
	for region, names := range c.zones {
		out[region] = append([]string(nil), names...)
	}
	return out
}

// OptionsForBackingStore returns the option bundle for the named backing
// store. Unknown names yield an empty map, never nil.
func (c *Config) OptionsForBackingStore(name string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	opts, ok := c.stores[name]
	if !ok {
		return make(map[string]any)
	}
	return maputil.DeepCopyMap(opts)
}
