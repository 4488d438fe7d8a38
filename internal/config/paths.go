// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"path/filepath"

	"github.com/dotnet/sdk-sub056/internal/manifest"
	"github.com/dotnet/sdk-sub056/pkg/platform"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

const (
	// LockDirName is the lock directory created next to the manifest.
	LockDirName = "locks"
	// CacheFileName is the release feed snapshot kept next to the manifest.
	CacheFileName = "releases-cache.json"
)

// ErrNoInstallRoot is returned when no default install root can be derived.
var ErrNoInstallRoot = errors.New("cannot determine default install root")

// Paths are the concrete filesystem locations derived from a Config.
type Paths struct {
	InstallRoot  string
	ManifestPath string
	LockDir      string
	CachePath    string
}

// DefaultInstallRoot returns the conventional dotnet root for scope on goos.
// User installs go to %LOCALAPPDATA%\Microsoft\dotnet on Windows and
// ~/.dotnet elsewhere. Machine installs use %ProgramFiles%\dotnet,
// /usr/local/share/dotnet on macOS and /usr/share/dotnet on Linux.
func DefaultInstallRoot(goos string, scope types.Scope, getenv func(string) string, home string) (string, error) {
	if scope == types.ScopeMachine {
		switch goos {
		case platform.Windows:
			if pf := getenv("ProgramFiles"); pf != "" {
				return filepath.Join(pf, "dotnet"), nil
			}
			return `C:\Program Files\dotnet`, nil
		case platform.Darwin:
			return "/usr/local/share/dotnet", nil
		default:
			return "/usr/share/dotnet", nil
		}
	}

	if goos == platform.Windows {
		if local := getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "Microsoft", "dotnet"), nil
		}
	}
	if home == "" {
		return "", ErrNoInstallRoot
	}
	return filepath.Join(home, ".dotnet"), nil
}

// ResolvePaths fills every empty location with its platform default.
func (c *Config) ResolvePaths(goos string, getenv func(string) string, home string) (Paths, error) {
	var p Paths

	p.InstallRoot = string(c.InstallRoot)
	if p.InstallRoot == "" {
		root, err := DefaultInstallRoot(goos, c.Scope, getenv, home)
		if err != nil {
			return Paths{}, err
		}
		p.InstallRoot = root
	}

	p.ManifestPath = string(c.ManifestPath)
	if p.ManifestPath == "" {
		path, err := manifest.DefaultPath(goos, getenv, home)
		if err != nil {
			return Paths{}, err
		}
		p.ManifestPath = path
	}

	dataDir := filepath.Dir(p.ManifestPath)
	p.LockDir = string(c.LockDir)
	if p.LockDir == "" {
		p.LockDir = filepath.Join(dataDir, LockDirName)
	}
	p.CachePath = filepath.Join(dataDir, CacheFileName)
	return p, nil
}
