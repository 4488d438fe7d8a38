// SPDX-License-Identifier: MPL-2.0

// Package validate checks that an extracted tree is a well-formed install of
// a component at a version. It only reads the filesystem.
package validate
