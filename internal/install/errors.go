// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"

	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

var (
	// ErrAlreadyInstalled marks the skip outcome. Install reports it through
	// Result.Outcome and Transition.Err, never as a returned error.
	ErrAlreadyInstalled = errors.New("already installed")
	// ErrDownloadFailed is wrapped by StageError when the archive source fails.
	ErrDownloadFailed = errors.New("download failed")
	// ErrExtractionFailed is wrapped by StageError when extraction fails.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrNotConcrete is returned when Install is given a wildcard version.
	ErrNotConcrete = errors.New("version is not concrete")
	// ErrRelativeRoot is returned when Install is given a root path that is
	// not absolute. Records are matched by path across processes, so the
	// root must not depend on the working directory.
	ErrRelativeRoot = errors.New("install root path is not absolute")
)

// StageError wraps a failure delegated to the fetch or extract layer with
// the install it belonged to.
type StageError struct {
	Stage     State
	Root      types.InstallRoot
	Component types.Component
	Version   version.Version
	Err       error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s %s into %s: %v", e.Stage, e.Component, e.Version, e.Root, e.Err)
}

// Unwrap returns the stage sentinel and the underlying cause.
func (e *StageError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

func (e *StageError) sentinel() error {
	if e.Stage == StateExtracting {
		return ErrExtractionFailed
	}
	return ErrDownloadFailed
}
