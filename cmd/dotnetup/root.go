// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/dotnet/sdk-sub056/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the dotnetup command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dotnetup",
		Short: "Install and manage .NET SDKs and runtimes",
		Long: TitleStyle.Render("dotnetup") + SubtitleStyle.Render(" - .NET SDK and runtime installer") + `

dotnetup resolves release channels against the official .NET release feed,
downloads and verifies the matching archive, and records every install in a
manifest so repeated and concurrent installs are safe.

` + SubtitleStyle.Render("Channels:") + `
  latest, lts, sts, preview   newest release of that kind
  9, 8.0                      newest release of a major or major.minor
  9.0.1xx                     newest SDK in a feature band
  9.0.102                     an exact version

` + SubtitleStyle.Render("Examples:") + `
  dotnetup install lts                        Install the newest LTS SDK
  dotnetup install 8.0 --component runtime    Install the 8.0 runtime
  dotnetup install                            Install what dotnetup.toml pins
  dotnetup list                               Show recorded installs`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configFile, "config", "", "config file (default is <config dir>/dotnetup/config.cue)")
	rootCmd.PersistentFlags().StringVar(&app.flags.configDir, "config-dir", "", "directory holding config.cue")

	rootCmd.AddCommand(
		newInstallCommand(app),
		newResolveCommand(app),
		newListCommand(app),
		newPinCommand(app),
		newConfigCommand(app),
		newExplainCommand(app),
	)
	return rootCmd
}

// Run executes the CLI with args and returns the process exit code. Errors
// are rendered to stderr before returning.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) types.ExitCode {
	app := NewApp(Dependencies{Stdout: stdout, Stderr: stderr})
	return app.Run(ctx, args)
}

// Run executes the command tree for app.
func (a *App) Run(ctx context.Context, args []string) types.ExitCode {
	rootCmd := NewRootCommand(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	// Cobra reports bad flags and arguments before any RunE starts.
	started := false
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) { started = true }

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, a.verbose()))
		}),
	)
	if err == nil {
		return types.ExitOK
	}
	if !started {
		return types.ExitUserError
	}
	return exitCodeFor(err)
}

// Execute runs dotnetup with the process arguments and exits. This is
// called by main.main().
func Execute() {
	os.Exit(int(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)))
}
