// SPDX-License-Identifier: MPL-2.0

// Package platform centralizes the host facts the installer keys off:
// operating system names, runtime identifiers used in archive names,
// the dotnet host executable name, and whether paths compare
// case-insensitively.
package platform
