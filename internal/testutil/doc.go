// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers cover file operations (MustMkdirAll, MustWriteFile,
// MustReadFile, MustClose), a fake clock, and fixture builders that produce
// install trees and tar.gz/zip archives shaped like the published .NET SDK
// and runtime archives.
package testutil
