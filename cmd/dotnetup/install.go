// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dotnet/sdk-sub056/internal/channel"
	"github.com/dotnet/sdk-sub056/internal/install"
	"github.com/dotnet/sdk-sub056/internal/pin"
	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

func newInstallCommand(app *App) *cobra.Command {
	var (
		flags     installFlags
		component string
	)
	cmd := &cobra.Command{
		Use:   "install [channel]",
		Short: "Install an SDK or runtime",
		Long: `Install the newest release matching a channel.

Without a channel, the nearest dotnetup.toml above the working directory
selects what to install; without one, the latest SDK is installed. Installs
that are already recorded for the install root are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), app, flags, component, args)
		},
	}
	addInstallFlags(cmd, &flags)
	cmd.Flags().StringVarP(&component, "component", "c", string(types.ComponentSDK), "component to install (sdk, runtime, aspnetcore)")
	return cmd
}

// addInstallFlags registers the target overrides on cmd.
func addInstallFlags(cmd *cobra.Command, f *installFlags) {
	cmd.Flags().StringVar(&f.installPath, "install-path", "", "dotnet root to install into")
	cmd.Flags().StringVar(&f.arch, "arch", "", "target architecture (x64, x86, arm64, arm)")
	cmd.Flags().StringVar(&f.scope, "scope", "", "install scope (user, machine)")
	cmd.Flags().StringVar(&f.indexFile, "index-file", "", "read releases from a local JSON file instead of the feed")
	cmd.Flags().StringVar(&f.archiveDir, "archive-dir", "", "read archives from a local directory instead of downloading")
}

func runInstall(ctx context.Context, app *App, flags installFlags, component string, args []string) error {
	c, err := types.ParseComponent(component)
	if err != nil {
		return err
	}

	var observer install.Observer
	if app.verbose() {
		observer = progressObserver(app.stderr)
	}
	s, err := app.newSession(ctx, flags, observer)
	if err != nil {
		return err
	}

	reqs, err := installRequests(app, s, c, args)
	if err != nil {
		return err
	}

	idx, err := s.index(ctx)
	if err != nil {
		return releaseFeedError(err)
	}

	results, err := s.installer.InstallAll(ctx, reqs, idx, s.source)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		rec := r.Result.Record
		label := fmt.Sprintf("%s %s", rec.Component, VersionStyle.Render(rec.Version.String()))
		switch r.Result.Outcome {
		case install.OutcomeSkipped:
			fmt.Fprintf(app.stdout, "%s %s already installed in %s\n", WarningStyle.Render("•"), label, rec.InstallRoot.Path)
		default:
			fmt.Fprintf(app.stdout, "%s installed %s into %s\n", SuccessStyle.Render("✓"), label, rec.InstallRoot.Path)
		}
	}
	return err
}

// installRequests turns the argument or the pin file into requests.
func installRequests(app *App, s *session, c types.Component, args []string) ([]install.Request, error) {
	if len(args) == 1 {
		return []install.Request{{Channel: args[0], Component: c, Root: s.root, Scope: s.scope}}, nil
	}

	wd, err := app.getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	path, err := pin.Find(wd)
	if errors.Is(err, pin.ErrNotFound) {
		s.logger.Debug("no pin file, installing latest", "component", c)
		return []install.Request{{Channel: string(channel.Latest), Component: c, Root: s.root, Scope: s.scope}}, nil
	}
	if err != nil {
		return nil, err
	}
	pinned, err := pin.Load(path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("using pin file", "path", path, "entries", len(pinned))

	reqs := make([]install.Request, 0, len(pinned))
	for _, p := range pinned {
		reqs = append(reqs, install.Request{
			Channel:   p.Channel.String(),
			Component: p.Component,
			Root:      s.root,
			Scope:     s.scope,
		})
	}
	return reqs, nil
}

// progressObserver prints each state transition. InstallAll reports from
// several goroutines, so writes are serialized.
func progressObserver(w io.Writer) install.Observer {
	var mu sync.Mutex
	return install.ObserverFunc(func(t install.Transition) {
		mu.Lock()
		defer mu.Unlock()
		line := fmt.Sprintf("%s %s -> %s", t.Component, t.From, t.To)
		if t.Version != (version.Version{}) {
			line = fmt.Sprintf("%s %s %s -> %s", t.Component, t.Version, t.From, t.To)
		}
		fmt.Fprintln(w, VerboseStyle.Render(line))
	})
}
