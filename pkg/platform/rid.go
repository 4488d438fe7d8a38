// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrUnsupportedPlatform is returned when no runtime identifier exists for
// an OS/architecture pair.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// RID builds the .NET runtime identifier (for example "linux-x64" or
// "osx-arm64") for a GOOS value and an architecture in RID spelling.
func RID(goos, arch string) (string, error) {
	var prefix string
	switch goos {
	case Linux:
		prefix = "linux"
	case Darwin:
		prefix = "osx"
	case Windows:
		prefix = "win"
	default:
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, arch)
	}
	switch arch {
	case "x64", "arm64":
	case "x86":
		if goos != Windows {
			return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, arch)
		}
	case "arm":
		if goos != Linux && goos != Windows {
			return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, arch)
		}
	default:
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, arch)
	}
	return prefix + "-" + arch, nil
}

// HostRID returns the runtime identifier for the running OS and arch.
func HostRID(arch string) (string, error) { return RID(runtime.GOOS, arch) }
