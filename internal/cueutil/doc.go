// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles an embedded CUE schema, unifies user data with one
// of its definitions, and decodes the result into a Go value. Errors carry the
// file name and a JSON-style path to the offending field.
package cueutil
