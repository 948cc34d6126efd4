package stemcell

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument matches InvalidArgumentError values via errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrEmptyRole matches EmptyRoleError values via errors.Is.
var ErrEmptyRole = errors.New("role has no declared metadata")

// InvalidArgumentError reports a missing required identity argument.
// It is returned synchronously, before any collaborator is consulted,
// and is not retryable: the caller must supply valid input.
type InvalidArgumentError struct {
	// Arg is the name of the offending argument.
	Arg string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s must not be empty", e.Arg)
}

// Unwrap makes errors.Is(err, ErrInvalidArgument) work.
func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// EmptyRoleError reports that a role/environment pair has no declared
// metadata in the repository. This is a data-level condition rather than a
// programming error: callers may retry with AllowEmptyRoles to get a
// defaults-only expansion.
type EmptyRoleError struct {
	Role        string
	Environment string
}

func (e *EmptyRoleError) Error() string {
	return fmt.Sprintf("role %q has no declared metadata for environment %q", e.Role, e.Environment)
}

// Unwrap makes errors.Is(err, ErrEmptyRole) work.
func (e *EmptyRoleError) Unwrap() error {
	return ErrEmptyRole
}
