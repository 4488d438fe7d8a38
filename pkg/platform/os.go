// SPDX-License-Identifier: MPL-2.0

package platform

import "runtime"

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// DotnetHostName returns the file name of the dotnet muxer for goos.
func DotnetHostName(goos string) string {
	if goos == Windows {
		return "dotnet.exe"
	}
	return "dotnet"
}

// HostDotnetName returns the dotnet muxer file name for the running OS.
func HostDotnetName() string { return DotnetHostName(runtime.GOOS) }

// CaseInsensitivePaths reports whether the default filesystem on goos
// treats paths case-insensitively. APFS and NTFS do by default.
func CaseInsensitivePaths(goos string) bool {
	return goos == Windows || goos == Darwin
}

// ArchiveExtension returns the archive suffix Microsoft publishes for goos.
func ArchiveExtension(goos string) string {
	if goos == Windows {
		return ".zip"
	}
	return ".tar.gz"
}
