// SPDX-License-Identifier: MPL-2.0

// Package archive defines the seam through which the installer obtains
// component archives (Source) and extracts them safely: entries that
// escape the destination, absolute names, links pointing outside the
// tree, and archives whose expanded size exceeds the configured limit are
// all rejected. Hash verification uses SHA-512, the digest the .NET
// release metadata publishes.
package archive
