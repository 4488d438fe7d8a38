// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the dotnetup command tree. Handlers parse flags,
// load configuration, and delegate to internal/install; they never touch the
// manifest or the install root directly.
package cmd
