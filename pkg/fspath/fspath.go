// SPDX-License-Identifier: MPL-2.0

// Package fspath provides typed wrappers around path/filepath functions that
// accept and return types.FilesystemPath, plus the normalization used when
// two install roots are compared for identity.
package fspath

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dotnet/sdk-sub056/pkg/platform"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

// Join wraps filepath.Join, accepting and returning types.FilesystemPath.
func Join(elem ...types.FilesystemPath) types.FilesystemPath {
	strs := make([]string, len(elem))
	for i, e := range elem {
		strs[i] = string(e)
	}
	return types.FilesystemPath(filepath.Join(strs...))
}

// JoinStr wraps filepath.Join, accepting a typed base path and raw string
// segments such as version directories or archive entry names.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Dir wraps filepath.Dir for FilesystemPath.
func Dir(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Dir(string(p)))
}

// Abs wraps filepath.Abs for FilesystemPath. Returns an error if the
// underlying OS call fails.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// Clean wraps filepath.Clean for FilesystemPath.
func Clean(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Clean(string(p)))
}

// IsAbs wraps filepath.IsAbs for FilesystemPath.
func IsAbs(p types.FilesystemPath) bool {
	return filepath.IsAbs(string(p))
}

// Normalize returns the comparison key for a path on goos: cleaned, made
// absolute when possible, without a trailing separator, and lower-cased on
// case-insensitive platforms. The result is not meant to be displayed.
func Normalize(p types.FilesystemPath, goos string) string {
	s := filepath.Clean(string(p))
	if abs, err := filepath.Abs(s); err == nil {
		s = abs
	}
	if len(s) > 1 {
		s = strings.TrimRight(s, `/\`)
		if s == "" {
			s = string(filepath.Separator)
		}
	}
	if platform.CaseInsensitivePaths(goos) {
		s = strings.ToLower(s)
	}
	return s
}

// Equal reports whether a and b name the same directory on the running OS.
func Equal(a, b types.FilesystemPath) bool {
	return Normalize(a, runtime.GOOS) == Normalize(b, runtime.GOOS)
}

// Within reports whether child is root itself or lies beneath it. Both
// paths must already be cleaned and absolute.
func Within(root, child string) bool {
	rel, err := filepath.Rel(root, child)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
