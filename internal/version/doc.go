// SPDX-License-Identifier: MPL-2.0

// Package version implements the .NET version grammar.
//
// A version is MAJOR.MINOR.PATCH with an optional prerelease label after
// the first '-' and optional build metadata after '+'. PATCH is either a
// concrete number (0-999) or a feature-band wildcard: "Dxx" (D in 1-9)
// covers D00-D99 and "DDx" (DD in 10-99) covers DD0-DD9. Wildcards are
// only meaningful for range resolution and are never installed as-is.
//
// Versions are immutable values. Compare defines a total order in which
// build metadata never participates, a wildcard patch orders before every
// concrete patch of the same major.minor, and a release orders after every
// prerelease of the same major.minor.patch.
package version
