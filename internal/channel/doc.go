// SPDX-License-Identifier: MPL-2.0

// Package channel parses user-facing channel selectors and resolves them to
// a single concrete version against a release index.
//
// A Channel is a closed sum type: Explicit, MajorOnly, MajorMinor,
// FeatureBand, or Keyword. Resolution never falls back to an unrelated
// version; when nothing matches it returns an UnresolvableError.
package channel
