// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform config directory. The CLI sets it
// from --config-dir; tests set it to a temp dir.
var configDirOverride string

// Reset clears the config directory override.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride makes ConfigDir return dir.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
