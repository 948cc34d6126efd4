package stemcell

import "github.com/remotesyssupport/stemcell/maputil"

// Well-known option keys used by the expansion algorithm.
const (
	// KeyBackingStore selects the root-volume storage mechanism and,
	// through it, which backing-store option bundle is merged in.
	KeyBackingStore = "backing_store"

	// KeyRegion and KeyAvailabilityZone drive the post-merge
	// availability-zone derivation.
	KeyRegion           = "region"
	KeyAvailabilityZone = "availability_zone"

	// KeyRole and KeyEnvironment are identity fields, always set from the
	// ExpandRole arguments regardless of what any layer declares.
	KeyRole        = "chef_role"
	KeyEnvironment = "chef_environment"
)

// Built-in default values. These are version-controlled constants: changing
// one changes the floor of every expansion that does not override it.
const (
	DefaultBackingStore  = "instance_store"
	DefaultGitBranch     = "master"
	DefaultInstanceType  = "m1.small"
	DefaultSecurityGroup = "default"
)

// builtinDefaults is the fixed lowest-precedence layer present in every
// expansion. Identity fields and the availability zone are intentionally
// not part of this table: the former are derived from the call arguments,
// the latter from the merged region.
var builtinDefaults = map[string]any{
	KeyBackingStore:  DefaultBackingStore,
	"git_branch":     DefaultGitBranch,
	"instance_type":  DefaultInstanceType,
	"security_group": DefaultSecurityGroup,
}

// BuiltinDefaults returns the built-in default option table.
// The returned map is a deep copy; callers may modify it freely.
func BuiltinDefaults() map[string]any {
	return maputil.DeepCopyMap(builtinDefaults)
}
