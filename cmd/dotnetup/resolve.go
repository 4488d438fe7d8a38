// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotnet/sdk-sub056/internal/issue"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

func newResolveCommand(app *App) *cobra.Command {
	var (
		flags     installFlags
		component string
	)
	cmd := &cobra.Command{
		Use:   "resolve <channel>",
		Short: "Show the version a channel selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), app, flags, component, args[0])
		},
	}
	cmd.Flags().StringVarP(&component, "component", "c", string(types.ComponentSDK), "component to resolve (sdk, runtime, aspnetcore)")
	cmd.Flags().StringVar(&flags.indexFile, "index-file", "", "read releases from a local JSON file instead of the feed")
	return cmd
}

func runResolve(ctx context.Context, app *App, flags installFlags, component, ch string) error {
	c, err := types.ParseComponent(component)
	if err != nil {
		return err
	}
	s, err := app.newSession(ctx, flags, nil)
	if err != nil {
		return err
	}
	idx, err := s.index(ctx)
	if err != nil {
		return releaseFeedError(err)
	}
	v, err := s.installer.Resolve(ctx, ch, c, idx)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, v)
	return nil
}

// releaseFeedError explains a failure to obtain the release index.
func releaseFeedError(err error) error {
	return issue.NewErrorContext().
		WithOperation("load the release index").
		WithIssue(issue.ReleaseFeedUnavailableId).
		WithSuggestion("Check your network connection, or pass --index-file with a saved index").
		Wrap(err).
		BuildError()
}
