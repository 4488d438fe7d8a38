// SPDX-License-Identifier: MPL-2.0

// Package install orchestrates a single install: resolve a channel, check
// the manifest, fetch and extract outside the lock, validate, then commit
// under the lock after re-checking the manifest.
//
// The manifest store and the gate are injected so that tests and
// embedders can run against isolated state. Every manifest read that
// informs a write happens while the gate is held; fetch and extract never
// hold it, so installs of distinct versions proceed in parallel across
// processes.
package install
