// Package stemcell resolves the final set of launch parameters for a cloud
// compute instance from layered configuration sources.
//
// Given a role name and a target environment, the Expander merges four
// precedence-ordered layers into one authoritative metadata mapping:
//
//  1. Built-in defaults (the floor for every expansion)
//  2. Site-wide defaults from the configuration file
//  3. Options specific to the resolved backing store
//  4. Role metadata declared in the metadata repository
//
// plus caller-supplied overrides on top, with later layers overwriting
// earlier ones per key. After the merge, the availability zone is derived
// from the region when not set explicitly.
//
// The two data providers - the site configuration and the role repository -
// are read-only collaborators defined as interfaces, so the expansion
// algorithm can be exercised against in-memory stand-ins (see smtest).
package stemcell
