// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotnet/sdk-sub056/internal/config"
	"github.com/dotnet/sdk-sub056/internal/issue"
)

// newConfigCommand creates the `dotnetup config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dotnetup configuration",
		Long: `Manage dotnetup configuration.

Configuration is stored in:
  - Linux: ~/.config/dotnetup/config.cue
  - macOS: ~/Library/Application Support/dotnetup/config.cue
  - Windows: %APPDATA%\dotnetup\config.cue

Every key can be overridden with a DOTNETUP_ environment variable, for
example DOTNETUP_INSTALL_PARALLELISM=4.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration and paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	path, exists, err := app.configFilePath()
	if err != nil {
		return err
	}
	home, _ := app.homeDir()
	paths, err := cfg.ResolvePaths(app.goos, app.getenv, home)
	if err != nil {
		return err
	}

	w := app.stdout
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	kv := func(indent, key string, value any) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if exists {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	kv("", "install_root", paths.InstallRoot)
	kv("", "architecture", cfg.TargetArchitecture())
	kv("", "scope", cfg.Scope)
	kv("", "manifest_path", paths.ManifestPath)
	kv("", "lock_dir", paths.LockDir)

	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("resolve"))
	kv("  ", "explicit_policy", cfg.Resolve.ExplicitPolicy)

	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("releases"))
	kv("  ", "index_url", cfg.Releases.IndexURL)
	kv("  ", "cache_ttl", cfg.Releases.CacheTTL)
	kv("  ", "cache_file", paths.CachePath)

	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("install"))
	kv("  ", "parallelism", cfg.Install.Parallelism)

	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("ui"))
	kv("  ", "verbose", cfg.UI.Verbose)
	return nil
}

func initConfig(app *App) error {
	path, err := config.CreateDefaultConfig(app.flags.configDir)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("create configuration file").
			WithIssue(issue.PermissionDeniedId).
			Wrap(err).
			BuildError()
	}
	fmt.Fprintf(app.stdout, "%s configuration file at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App) error {
	path, _, err := app.configFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, path)
	return nil
}
