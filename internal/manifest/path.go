// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"path/filepath"

	"github.com/dotnet/sdk-sub056/pkg/platform"
)

// FileName is the manifest file name inside the versioned data directory.
const FileName = "manifest.json"

// ErrNoDataDir is returned when no per-user data directory can be derived.
var ErrNoDataDir = errors.New("cannot determine data directory")

// DefaultPath returns <data dir>/dotnetup/v1/manifest.json for goos, where
// the data directory is $XDG_DATA_HOME (or ~/.local/share) on Linux,
// ~/Library/Application Support on macOS, and %LOCALAPPDATA% on Windows.
// getenv and home are injected so tests never touch the real environment.
func DefaultPath(goos string, getenv func(string) string, home string) (string, error) {
	var base string
	switch goos {
	case platform.Windows:
		base = getenv("LOCALAPPDATA")
		if base == "" && home != "" {
			base = filepath.Join(home, "AppData", "Local")
		}
	case platform.Darwin:
		if home != "" {
			base = filepath.Join(home, "Library", "Application Support")
		}
	default:
		base = getenv("XDG_DATA_HOME")
		if base == "" && home != "" {
			base = filepath.Join(home, ".local", "share")
		}
	}
	if base == "" {
		return "", ErrNoDataDir
	}
	return filepath.Join(base, "dotnetup", "v1", FileName), nil
}
