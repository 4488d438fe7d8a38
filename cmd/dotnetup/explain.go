// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotnet/sdk-sub056/internal/issue"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

func newExplainCommand(app *App) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "explain [topic]",
		Short: "Show help for an error",
		Long: `Show the long-form help for an error topic. Error messages name their
topic; without one, the available topics are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, iss := range issue.Values() {
					fmt.Fprintln(app.stdout, iss.Slug())
				}
				return nil
			}
			iss, ok := issue.Lookup(args[0])
			if !ok {
				return &ExitError{
					Code: types.ExitUserError,
					Err:  fmt.Errorf("unknown topic %q (known: %s)", args[0], strings.Join(topics(), ", ")),
				}
			}
			out, err := iss.Render(style)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "notty", "glamour style (dark, light, notty)")
	return cmd
}

func topics() []string {
	var out []string
	for _, iss := range issue.Values() {
		out = append(out, iss.Slug())
	}
	return out
}
