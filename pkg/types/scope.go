// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ScopeUser installs into a location owned by the invoking user.
	ScopeUser Scope = "user"
	// ScopeMachine installs into a machine-wide location.
	ScopeMachine Scope = "machine"
)

// ErrInvalidScope is the sentinel error wrapped by InvalidScopeError.
var ErrInvalidScope = errors.New("invalid scope")

type (
	// Scope records whether an installation is per-user or machine-wide.
	Scope string

	// InvalidScopeError is returned when a Scope value is not recognized.
	InvalidScopeError struct {
		Value Scope
	}
)

// ParseScope converts user input into a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "":
		return ScopeUser, nil
	case "machine", "global":
		return ScopeMachine, nil
	}
	return "", &InvalidScopeError{Value: Scope(s)}
}

// String returns the string representation of the Scope.
func (s Scope) String() string { return string(s) }

// Validate returns an error if the Scope is not one of the known values.
func (s Scope) Validate() error {
	switch s {
	case ScopeUser, ScopeMachine:
		return nil
	}
	return &InvalidScopeError{Value: s}
}

// Error implements the error interface for InvalidScopeError.
func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("invalid scope %q (valid: user, machine)", e.Value)
}

// Unwrap returns ErrInvalidScope for errors.Is() compatibility.
func (e *InvalidScopeError) Unwrap() error { return ErrInvalidScope }
