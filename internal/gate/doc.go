// SPDX-License-Identifier: MPL-2.0

// Package gate provides a named, machine-wide mutual exclusion lock built
// on OS advisory file locks (flock on Unix, LockFileEx on Windows).
//
// The kernel releases the lock when the owning process exits for any
// reason, so a crashed holder can never wedge other processes and Acquire
// has no implicit timeout. Callers bound the wait through their context.
//
// A Guard releases exactly once. Contexts derived from Guard.Context mark
// the lock as held, and acquiring the same lock with such a context
// returns a nested guard instead of deadlocking against itself.
package gate
