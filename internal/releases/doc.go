// SPDX-License-Identifier: MPL-2.0

// Package releases models the read-only release index the resolver works
// against and provides the adapters that produce it: an HTTP client for
// the public .NET release metadata feed, an on-disk snapshot cache, and a
// loader for offline index files. It also implements archive.Source by
// downloading the platform archive listed for a release and verifying its
// SHA-512 hash.
package releases
