// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ComponentSDK is the .NET SDK (includes the runtime it was built against).
	ComponentSDK Component = "sdk"
	// ComponentRuntime is the shared Microsoft.NETCore.App runtime.
	ComponentRuntime Component = "runtime"
	// ComponentASPNETCore is the shared Microsoft.AspNetCore.App runtime.
	ComponentASPNETCore Component = "aspnetcore"
)

// ErrInvalidComponent is the sentinel error wrapped by InvalidComponentError.
var ErrInvalidComponent = errors.New("invalid component")

type (
	// Component identifies the kind of installable unit.
	Component string

	// InvalidComponentError is returned when a Component value is not recognized.
	InvalidComponentError struct {
		Value Component
	}
)

// Components returns every known component in display order.
func Components() []Component {
	return []Component{ComponentSDK, ComponentRuntime, ComponentASPNETCore}
}

// ParseComponent converts user input into a Component. Matching is
// case-insensitive and accepts the product names used on the download site.
func ParseComponent(s string) (Component, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sdk", "dotnet-sdk":
		return ComponentSDK, nil
	case "runtime", "dotnet", "dotnet-runtime", "microsoft.netcore.app":
		return ComponentRuntime, nil
	case "aspnetcore", "aspnetcore-runtime", "microsoft.aspnetcore.app":
		return ComponentASPNETCore, nil
	}
	return "", &InvalidComponentError{Value: Component(s)}
}

// String returns the string representation of the Component.
func (c Component) String() string { return string(c) }

// Validate returns an error if the Component is not one of the known values.
func (c Component) Validate() error {
	switch c {
	case ComponentSDK, ComponentRuntime, ComponentASPNETCore:
		return nil
	}
	return &InvalidComponentError{Value: c}
}

// SharedFramework returns the shared framework directory name under
// <root>/shared for runtime components. The SDK has none.
func (c Component) SharedFramework() (string, bool) {
	switch c {
	case ComponentRuntime:
		return "Microsoft.NETCore.App", true
	case ComponentASPNETCore:
		return "Microsoft.AspNetCore.App", true
	case ComponentSDK:
		return "", false
	}
	return "", false
}

// Error implements the error interface for InvalidComponentError.
func (e *InvalidComponentError) Error() string {
	return fmt.Sprintf("invalid component %q (valid: sdk, runtime, aspnetcore)", e.Value)
}

// Unwrap returns ErrInvalidComponent for errors.Is() compatibility.
func (e *InvalidComponentError) Unwrap() error { return ErrInvalidComponent }
