// SPDX-License-Identifier: MPL-2.0

// Package config handles dotnetup configuration using Viper with CUE as the
// file format.
//
// Configuration is loaded from config.cue in the platform config directory
// ($XDG_CONFIG_HOME/dotnetup on Linux, ~/Library/Application Support/dotnetup
// on macOS, %APPDATA%\dotnetup on Windows), validated against the embedded
// #Config schema and merged over built-in defaults. Every key can be
// overridden from the environment with the DOTNETUP_ prefix, dots replaced by
// underscores (DOTNETUP_RELEASES_CACHE_TTL=1h).
package config
