// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dotnet/sdk-sub056/internal/channel"
	"github.com/dotnet/sdk-sub056/internal/releases"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

const (
	// DefaultParallelism bounds concurrent installs in a batch.
	DefaultParallelism = 2
	// MaxParallelism is the upper bound accepted for install.parallelism.
	MaxParallelism = 16
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidIndexURL is returned when releases.index_url is not an http(s) URL.
	ErrInvalidIndexURL = errors.New("invalid index url")
	// ErrInvalidCacheTTL is returned for a negative releases.cache_ttl.
	ErrInvalidCacheTTL = errors.New("invalid cache ttl")
	// ErrInvalidParallelism is returned when install.parallelism is out of range.
	ErrInvalidParallelism = errors.New("invalid parallelism")
)

type (
	// Config is the merged dotnetup configuration.
	Config struct {
		// InstallRoot is the dotnet root. Empty means DefaultInstallRoot.
		InstallRoot types.FilesystemPath `json:"install_root" mapstructure:"install_root"`
		// Architecture is the install target. Empty means the host.
		Architecture types.Architecture `json:"architecture" mapstructure:"architecture"`
		Scope        types.Scope        `json:"scope" mapstructure:"scope"`
		// ManifestPath is the install manifest. Empty means manifest.DefaultPath.
		ManifestPath types.FilesystemPath `json:"manifest_path" mapstructure:"manifest_path"`
		// LockDir holds the named locks. Empty means the manifest's directory.
		LockDir  types.FilesystemPath `json:"lock_dir" mapstructure:"lock_dir"`
		Resolve  ResolveConfig        `json:"resolve" mapstructure:"resolve"`
		Releases ReleasesConfig       `json:"releases" mapstructure:"releases"`
		Install  InstallConfig        `json:"install" mapstructure:"install"`
		UI       UIConfig             `json:"ui" mapstructure:"ui"`
	}

	// ResolveConfig controls channel resolution.
	ResolveConfig struct {
		ExplicitPolicy channel.ExplicitPolicy `json:"explicit_policy" mapstructure:"explicit_policy"`
	}

	// ReleasesConfig locates the release feed and its on-disk cache.
	ReleasesConfig struct {
		IndexURL string        `json:"index_url" mapstructure:"index_url"`
		CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl"`
	}

	// InstallConfig tunes the installer.
	InstallConfig struct {
		Parallelism int `json:"parallelism" mapstructure:"parallelism"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// InvalidConfigError collects every field that failed validation.
	// It wraps ErrInvalidConfig and each field error for errors.Is().
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Scope: types.ScopeUser,
		Resolve: ResolveConfig{
			ExplicitPolicy: channel.PolicyRequireListed,
		},
		Releases: ReleasesConfig{
			IndexURL: releases.DefaultIndexURL,
			CacheTTL: releases.DefaultCacheTTL,
		},
		Install: InstallConfig{
			Parallelism: DefaultParallelism,
		},
	}
}

// Validate checks the fields CUE cannot express in terms of the Go types,
// which matters for values that arrive through environment overrides.
func (c *Config) Validate() error {
	var errs []error
	if c.InstallRoot != "" {
		if err := c.InstallRoot.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("install_root: %w", err))
		}
	}
	if c.Architecture != "" {
		if err := c.Architecture.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("architecture: %w", err))
		}
	}
	if err := c.Scope.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scope: %w", err))
	}
	if c.ManifestPath != "" {
		if err := c.ManifestPath.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("manifest_path: %w", err))
		}
	}
	if c.LockDir != "" {
		if err := c.LockDir.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("lock_dir: %w", err))
		}
	}
	if err := c.Resolve.ExplicitPolicy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("resolve.explicit_policy: %w", err))
	}
	if u := c.Releases.IndexURL; !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		errs = append(errs, fmt.Errorf("releases.index_url %q: %w", u, ErrInvalidIndexURL))
	}
	if c.Releases.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("releases.cache_ttl %s: %w", c.Releases.CacheTTL, ErrInvalidCacheTTL))
	}
	if p := c.Install.Parallelism; p < 1 || p > MaxParallelism {
		errs = append(errs, fmt.Errorf("install.parallelism %d not in 1-%d: %w", p, MaxParallelism, ErrInvalidParallelism))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// TargetArchitecture returns the configured architecture or the host's.
func (c *Config) TargetArchitecture() types.Architecture {
	if c.Architecture != "" {
		return c.Architecture
	}
	return types.HostArchitecture()
}
