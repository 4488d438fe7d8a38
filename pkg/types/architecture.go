// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const (
	// ArchX64 is 64-bit x86.
	ArchX64 Architecture = "x64"
	// ArchX86 is 32-bit x86.
	ArchX86 Architecture = "x86"
	// ArchARM64 is 64-bit ARM.
	ArchARM64 Architecture = "arm64"
	// ArchARM is 32-bit ARM.
	ArchARM Architecture = "arm"
)

// ErrInvalidArchitecture is the sentinel error wrapped by InvalidArchitectureError.
var ErrInvalidArchitecture = errors.New("invalid architecture")

type (
	// Architecture is a target CPU architecture using the runtime identifier
	// spelling (x64, arm64, ...), not the Go spelling.
	Architecture string

	// InvalidArchitectureError is returned when an Architecture value is not recognized.
	InvalidArchitectureError struct {
		Value Architecture
	}
)

// HostArchitecture returns the architecture of the running process.
func HostArchitecture() Architecture {
	arch, err := ArchitectureFromGOARCH(runtime.GOARCH)
	if err != nil {
		return Architecture(runtime.GOARCH)
	}
	return arch
}

// ArchitectureFromGOARCH maps a GOARCH value to an Architecture.
func ArchitectureFromGOARCH(goarch string) (Architecture, error) {
	switch goarch {
	case "amd64":
		return ArchX64, nil
	case "386":
		return ArchX86, nil
	case "arm64":
		return ArchARM64, nil
	case "arm":
		return ArchARM, nil
	}
	return "", &InvalidArchitectureError{Value: Architecture(goarch)}
}

// ParseArchitecture accepts both runtime identifier and GOARCH spellings.
func ParseArchitecture(s string) (Architecture, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch Architecture(v) {
	case ArchX64, ArchX86, ArchARM64, ArchARM:
		return Architecture(v), nil
	}
	if arch, err := ArchitectureFromGOARCH(v); err == nil {
		return arch, nil
	}
	return "", &InvalidArchitectureError{Value: Architecture(s)}
}

// String returns the string representation of the Architecture.
func (a Architecture) String() string { return string(a) }

// Validate returns an error if the Architecture is not one of the known values.
func (a Architecture) Validate() error {
	switch a {
	case ArchX64, ArchX86, ArchARM64, ArchARM:
		return nil
	}
	return &InvalidArchitectureError{Value: a}
}

// Error implements the error interface for InvalidArchitectureError.
func (e *InvalidArchitectureError) Error() string {
	return fmt.Sprintf("invalid architecture %q (valid: x64, x86, arm64, arm)", e.Value)
}

// Unwrap returns ErrInvalidArchitecture for errors.Is() compatibility.
func (e *InvalidArchitectureError) Unwrap() error { return ErrInvalidArchitecture }
