// SPDX-License-Identifier: MPL-2.0

// Package manifest persists the registry of installed components.
//
// The manifest is a single JSON document:
//
//	{"schema_version": 1, "installs": [{...}, ...]}
//
// Readers fail closed: a document that cannot be decoded, carries an
// unknown schema version or unknown fields, or holds an invalid record is
// reported as ErrManifestCorrupt and never treated as empty. Writes go to
// a temporary file in the same directory that is synced and renamed over
// the manifest, so a crash leaves either the old or the new document.
//
// Store does no locking. Every read that informs a write, and every
// write, must happen while the caller holds the installer's gate.
package manifest
