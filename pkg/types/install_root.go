// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidFilesystemPath is the sentinel error wrapped by InvalidFilesystemPathError.
	ErrInvalidFilesystemPath = errors.New("invalid filesystem path")
	// ErrInvalidInstallRoot is the sentinel error wrapped by InvalidInstallRootError.
	ErrInvalidInstallRoot = errors.New("invalid install root")
)

type (
	// FilesystemPath is a path on the local filesystem. The zero value is invalid.
	FilesystemPath string

	// InvalidFilesystemPathError is returned when a FilesystemPath is empty or
	// whitespace-only.
	InvalidFilesystemPathError struct {
		Value FilesystemPath
	}

	// InstallRoot identifies where a component is installed: a directory plus
	// the architecture of the binaries placed in it. Two roots with the same
	// directory but different architectures are distinct.
	InstallRoot struct {
		Path         FilesystemPath `json:"path"`
		Architecture Architecture   `json:"architecture"`
	}

	// InvalidInstallRootError collects the field errors of an InstallRoot.
	InvalidInstallRootError struct {
		FieldErrors []error
	}
)

// String returns the string representation of the FilesystemPath.
func (p FilesystemPath) String() string { return string(p) }

// Validate returns an error if the path is empty or whitespace-only.
func (p FilesystemPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return &InvalidFilesystemPathError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidFilesystemPathError.
func (e *InvalidFilesystemPathError) Error() string {
	return fmt.Sprintf("invalid filesystem path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidFilesystemPath for errors.Is() compatibility.
func (e *InvalidFilesystemPathError) Unwrap() error { return ErrInvalidFilesystemPath }

// NewInstallRoot builds and validates an InstallRoot.
func NewInstallRoot(path string, arch Architecture) (InstallRoot, error) {
	r := InstallRoot{Path: FilesystemPath(path), Architecture: arch}
	if err := r.Validate(); err != nil {
		return InstallRoot{}, err
	}
	return r, nil
}

// Validate checks both the path and the architecture.
func (r InstallRoot) Validate() error {
	var errs []error
	if err := r.Path.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := r.Architecture.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidInstallRootError{FieldErrors: errs}
	}
	return nil
}

// String renders the root as "path (arch)".
func (r InstallRoot) String() string {
	return fmt.Sprintf("%s (%s)", r.Path, r.Architecture)
}

// Error implements the error interface for InvalidInstallRootError.
func (e *InvalidInstallRootError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid install root: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidInstallRoot for errors.Is() compatibility.
func (e *InvalidInstallRootError) Unwrap() error { return ErrInvalidInstallRoot }
