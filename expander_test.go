package stemcell

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/remotesyssupport/stemcell/smtest"
)

// newTestExpander builds an Expander wired to in-memory collaborators.
func newTestExpander(t *testing.T, cfg *smtest.Configuration, repo *smtest.RoleRepository) *Expander {
	t.Helper()

	e, err := New("/srv/metadata", "config.yml", WithConfiguration(cfg), WithRoleRepository(repo))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

// declaredRole returns a repository with a single declared role/environment
// pair carrying the given metadata (nil means declared-but-empty).
func declaredRole(role, environment string, meta map[string]any) *smtest.RoleRepository {
	return &smtest.RoleRepository{
		Metadata: smtest.Roles{
			role: {environment: meta},
		},
	}
}

func TestNew(t *testing.T) {
	t.Run("binds collaborators to joined paths", func(t *testing.T) {
		e, err := New("/srv/metadata", "config.yml")
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		wantPath := filepath.Join("/srv/metadata", "config.yml")
		if got := e.Configuration().Path(); got != wantPath {
			t.Errorf("Configuration().Path() = %q, want %q", got, wantPath)
		}
		if got := e.Roles().Root(); got != "/srv/metadata" {
			t.Errorf("Roles().Root() = %q, want %q", got, "/srv/metadata")
		}
		if got := e.RootPath(); got != "/srv/metadata" {
			t.Errorf("RootPath() = %q, want %q", got, "/srv/metadata")
		}
		if got := e.ConfigFilename(); got != "config.yml" {
			t.Errorf("ConfigFilename() = %q, want %q", got, "config.yml")
		}
	})

	t.Run("empty root path", func(t *testing.T) {
		_, err := New("", "config.yml")
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("New() error = %v, want ErrInvalidArgument", err)
		}

		var invalid *InvalidArgumentError
		if !errors.As(err, &invalid) {
			t.Fatalf("New() error = %T, want *InvalidArgumentError", err)
		}
		if invalid.Arg != "rootPath" {
			t.Errorf("Arg = %q, want %q", invalid.Arg, "rootPath")
		}
	})

	t.Run("empty config filename", func(t *testing.T) {
		_, err := New("/srv/metadata", "")
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("New() error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestExpandRole_InvalidArguments(t *testing.T) {
	repo := declaredRole("web", "production", map[string]any{})
	e := newTestExpander(t, &smtest.Configuration{}, repo)

	t.Run("empty role", func(t *testing.T) {
		_, err := e.ExpandRole(context.Background(), "", "production", nil)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("ExpandRole() error = %v, want ErrInvalidArgument", err)
		}
		// Argument validation runs before any collaborator call.
		if repo.LastRole != "" {
			t.Errorf("repository was consulted for role %q before validation", repo.LastRole)
		}
	})

	t.Run("empty environment", func(t *testing.T) {
		_, err := e.ExpandRole(context.Background(), "web", "", nil)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("ExpandRole() error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestExpandRole_BackingStorePrecedence(t *testing.T) {
	tests := []struct {
		name           string
		configDefaults map[string]any
		roleMeta       map[string]any
		overrides      map[string]any
		want           string
	}{
		{
			name:     "builtin default when nothing is set",
			roleMeta: map[string]any{},
			want:     DefaultBackingStore,
		},
		{
			name:           "config defaults beat builtin",
			configDefaults: map[string]any{KeyBackingStore: "from_defaults"},
			roleMeta:       map[string]any{},
			want:           "from_defaults",
		},
		{
			name:           "role metadata beats config defaults",
			configDefaults: map[string]any{KeyBackingStore: "from_defaults"},
			roleMeta:       map[string]any{KeyBackingStore: "from_role"},
			want:           "from_role",
		},
		{
			name:      "override beats role metadata",
			roleMeta:  map[string]any{KeyBackingStore: "from_role"},
			overrides: map[string]any{KeyBackingStore: "from_override"},
			want:      "from_override",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &smtest.Configuration{Defaults: tt.configDefaults}
			e := newTestExpander(t, cfg, declaredRole("web", "production", tt.roleMeta))

			meta, err := e.ExpandRole(context.Background(), "web", "production", tt.overrides)
			if err != nil {
				t.Fatalf("ExpandRole() error = %v", err)
			}
			if got := meta[KeyBackingStore]; got != tt.want {
				t.Errorf("backing_store = %v, want %q", got, tt.want)
			}

			// The option-bundle fetch must use the resolved name, not any
			// single layer's value.
			if len(cfg.StoreLookups) != 1 || cfg.StoreLookups[0] != tt.want {
				t.Errorf("OptionsForBackingStore lookups = %v, want [%q]", cfg.StoreLookups, tt.want)
			}
		})
	}
}

func TestExpandRole_KeyPrecedence(t *testing.T) {
	cfg := &smtest.Configuration{
		Defaults: map[string]any{"some_key": "from_default"},
	}

	t.Run("role metadata beats config defaults", func(t *testing.T) {
		e := newTestExpander(t, cfg, declaredRole("web", "production", map[string]any{"some_key": "from_role"}))

		meta, err := e.ExpandRole(context.Background(), "web", "production", nil)
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		if got := meta["some_key"]; got != "from_role" {
			t.Errorf("some_key = %v, want %q", got, "from_role")
		}
	})

	t.Run("override beats everything", func(t *testing.T) {
		e := newTestExpander(t, cfg, declaredRole("web", "production", map[string]any{"some_key": "from_role"}))

		meta, err := e.ExpandRole(context.Background(), "web", "production", map[string]any{"some_key": "from_override"})
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		if got := meta["some_key"]; got != "from_override" {
			t.Errorf("some_key = %v, want %q", got, "from_override")
		}
	})

	t.Run("layers union non-overlapping keys", func(t *testing.T) {
		e := newTestExpander(t, &smtest.Configuration{
			Defaults: map[string]any{"from_config": 1},
		}, declaredRole("web", "production", map[string]any{"from_role": 2}))

		meta, err := e.ExpandRole(context.Background(), "web", "production", map[string]any{"from_override": 3})
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		for key, want := range map[string]any{"from_config": 1, "from_role": 2, "from_override": 3} {
			if got := meta[key]; got != want {
				t.Errorf("%s = %v, want %v", key, got, want)
			}
		}
	})
}

func TestExpandRole_IdentityFields(t *testing.T) {
	// Identity fields come from the call arguments, never from any layer.
	roleMeta := map[string]any{
		KeyRole:        "sneaky_role",
		KeyEnvironment: "sneaky_environment",
	}
	e := newTestExpander(t, &smtest.Configuration{}, declaredRole("not_default_role", "not_default_environment", roleMeta))

	meta, err := e.ExpandRole(context.Background(), "not_default_role", "not_default_environment", nil)
	if err != nil {
		t.Fatalf("ExpandRole() error = %v", err)
	}
	if got := meta[KeyRole]; got != "not_default_role" {
		t.Errorf("chef_role = %v, want %q", got, "not_default_role")
	}
	if got := meta[KeyEnvironment]; got != "not_default_environment" {
		t.Errorf("chef_environment = %v, want %q", got, "not_default_environment")
	}
}

func TestExpandRole_BuiltinDefaults(t *testing.T) {
	// With nothing declared anywhere, the result is exactly the floor:
	// every built-in default key/value pair, unmodified.
	e := newTestExpander(t, &smtest.Configuration{}, &smtest.RoleRepository{})

	meta, err := e.ExpandRole(context.Background(), "web", "production", nil, AllowEmptyRoles())
	if err != nil {
		t.Fatalf("ExpandRole() error = %v", err)
	}

	for key, want := range BuiltinDefaults() {
		if got := meta[key]; got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
}

func TestExpandRole_BackingStoreOptions(t *testing.T) {
	cfg := &smtest.Configuration{
		BackingStores: map[string]map[string]any{
			"ebs": {"image_id": "ami-nyancat"},
		},
	}
	e := newTestExpander(t, cfg, declaredRole("web", "production", map[string]any{}))

	meta, err := e.ExpandRole(context.Background(), "web", "production", map[string]any{KeyBackingStore: "ebs"})
	if err != nil {
		t.Fatalf("ExpandRole() error = %v", err)
	}
	if got := meta["image_id"]; got != "ami-nyancat" {
		t.Errorf("image_id = %v, want %q", got, "ami-nyancat")
	}
}

func TestExpandRole_RoleLookupArguments(t *testing.T) {
	repo := declaredRole("api", "staging", map[string]any{})
	e := newTestExpander(t, &smtest.Configuration{}, repo)

	if _, err := e.ExpandRole(context.Background(), "api", "staging", nil); err != nil {
		t.Fatalf("ExpandRole() error = %v", err)
	}
	if repo.LastRole != "api" || repo.LastEnvironment != "staging" {
		t.Errorf("repository lookup = (%q, %q), want (%q, %q)",
			repo.LastRole, repo.LastEnvironment, "api", "staging")
	}
}

func TestExpandRole_AvailabilityZone(t *testing.T) {
	cfg := &smtest.Configuration{
		Zones: map[string][]string{
			"us-east-1": {"us-east-1a", "us-east-1b"},
		},
	}

	t.Run("derived from region when unset", func(t *testing.T) {
		e := newTestExpander(t, cfg, declaredRole("web", "production", map[string]any{}))

		meta, err := e.ExpandRole(context.Background(), "web", "production", map[string]any{
			KeyRegion:           "us-east-1",
			KeyAvailabilityZone: nil,
		})
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		if got := meta[KeyAvailabilityZone]; got != "us-east-1a" {
			t.Errorf("availability_zone = %v, want %q", got, "us-east-1a")
		}
	})

	t.Run("explicit zone is never touched", func(t *testing.T) {
		e := newTestExpander(t, cfg, declaredRole("web", "production", map[string]any{}))

		meta, err := e.ExpandRole(context.Background(), "web", "production", map[string]any{
			KeyRegion:           "us-east-1",
			KeyAvailabilityZone: "us-east-1b",
		})
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		if got := meta[KeyAvailabilityZone]; got != "us-east-1b" {
			t.Errorf("availability_zone = %v, want %q", got, "us-east-1b")
		}
	})

	t.Run("unknown region leaves zone untouched", func(t *testing.T) {
		e := newTestExpander(t, cfg, declaredRole("web", "production", map[string]any{}))

		meta, err := e.ExpandRole(context.Background(), "web", "production", map[string]any{
			KeyRegion: "ap-fakeregion-9",
		})
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		if az, ok := meta[KeyAvailabilityZone]; ok && az != nil {
			t.Errorf("availability_zone = %v, want absent or nil", az)
		}
	})

	t.Run("no region means no derivation", func(t *testing.T) {
		e := newTestExpander(t, cfg, declaredRole("web", "production", map[string]any{}))

		meta, err := e.ExpandRole(context.Background(), "web", "production", nil)
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		if az, ok := meta[KeyAvailabilityZone]; ok && az != nil {
			t.Errorf("availability_zone = %v, want absent or nil", az)
		}
	})

	t.Run("derivation sees merged region from role metadata", func(t *testing.T) {
		e := newTestExpander(t, cfg, declaredRole("web", "production", map[string]any{
			KeyRegion: "us-east-1",
		}))

		meta, err := e.ExpandRole(context.Background(), "web", "production", nil)
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		if got := meta[KeyAvailabilityZone]; got != "us-east-1a" {
			t.Errorf("availability_zone = %v, want %q", got, "us-east-1a")
		}
	})
}

func TestExpandRole_EmptyRoles(t *testing.T) {
	t.Run("absent role fails by default", func(t *testing.T) {
		e := newTestExpander(t, &smtest.Configuration{}, &smtest.RoleRepository{})

		_, err := e.ExpandRole(context.Background(), "ghost", "production", nil)
		if !errors.Is(err, ErrEmptyRole) {
			t.Fatalf("ExpandRole() error = %v, want ErrEmptyRole", err)
		}

		var emptyRole *EmptyRoleError
		if !errors.As(err, &emptyRole) {
			t.Fatalf("ExpandRole() error = %T, want *EmptyRoleError", err)
		}
		if emptyRole.Role != "ghost" || emptyRole.Environment != "production" {
			t.Errorf("EmptyRoleError = (%q, %q), want (%q, %q)",
				emptyRole.Role, emptyRole.Environment, "ghost", "production")
		}
	})

	t.Run("absent role succeeds with AllowEmptyRoles", func(t *testing.T) {
		e := newTestExpander(t, &smtest.Configuration{}, &smtest.RoleRepository{})

		meta, err := e.ExpandRole(context.Background(), "ghost", "production", nil, AllowEmptyRoles())
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		if meta == nil {
			t.Fatal("ExpandRole() returned nil metadata")
		}
	})

	t.Run("declared-but-empty role always succeeds", func(t *testing.T) {
		// nil metadata in the double means declared with no options.
		e := newTestExpander(t, &smtest.Configuration{}, declaredRole("web", "staging", nil))

		meta, err := e.ExpandRole(context.Background(), "web", "staging", nil)
		if err != nil {
			t.Fatalf("ExpandRole() error = %v", err)
		}
		if got := meta[KeyBackingStore]; got != DefaultBackingStore {
			t.Errorf("backing_store = %v, want %q", got, DefaultBackingStore)
		}
	})
}

func TestExpandRole_RepositoryErrorPropagates(t *testing.T) {
	repoErr := errors.New("repository unreadable")
	e := newTestExpander(t, &smtest.Configuration{}, &smtest.RoleRepository{Err: repoErr})

	_, err := e.ExpandRole(context.Background(), "web", "production", nil)
	if !errors.Is(err, repoErr) {
		t.Fatalf("ExpandRole() error = %v, want %v propagated as-is", err, repoErr)
	}
}

func TestExpandRole_ResultIsolation(t *testing.T) {
	roleMeta := map[string]any{
		"tags": map[string]any{"team": "infra"},
	}
	e := newTestExpander(t, &smtest.Configuration{}, declaredRole("web", "production", roleMeta))

	meta, err := e.ExpandRole(context.Background(), "web", "production", nil)
	if err != nil {
		t.Fatalf("ExpandRole() error = %v", err)
	}

	meta["tags"].(map[string]any)["team"] = "mangled"
	if roleMeta["tags"].(map[string]any)["team"] != "infra" {
		t.Error("mutating the expansion result leaked into role metadata")
	}
}

func TestBuiltinDefaults(t *testing.T) {
	t.Run("documented entries", func(t *testing.T) {
		defaults := BuiltinDefaults()
		want := map[string]any{
			KeyBackingStore:  "instance_store",
			"git_branch":     "master",
			"instance_type":  "m1.small",
			"security_group": "default",
		}
		if len(defaults) != len(want) {
			t.Errorf("BuiltinDefaults() has %d entries, want %d", len(defaults), len(want))
		}
		for key, value := range want {
			if got := defaults[key]; got != value {
				t.Errorf("%s = %v, want %v", key, got, value)
			}
		}
	})

	t.Run("returns a copy", func(t *testing.T) {
		BuiltinDefaults()["git_branch"] = "mangled"
		if got := BuiltinDefaults()["git_branch"]; got != DefaultGitBranch {
			t.Errorf("git_branch = %v after caller mutation, want %q", got, DefaultGitBranch)
		}
	})
}
