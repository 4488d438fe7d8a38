// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dotnet/sdk-sub056/internal/manifest"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

func newListCommand(app *App) *cobra.Command {
	var (
		flags     installFlags
		component string
		all       bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded installs",
		Long: `List the installs recorded in the manifest for the install root.

Only installs made by dotnetup are listed. Pass --all to include every
install root recorded in the manifest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), app, flags, component, all, asJSON)
		},
	}
	cmd.Flags().StringVar(&flags.installPath, "install-path", "", "dotnet root to list")
	cmd.Flags().StringVar(&flags.arch, "arch", "", "architecture of the install root")
	cmd.Flags().StringVarP(&component, "component", "c", "", "only list this component")
	cmd.Flags().BoolVar(&all, "all", false, "list every install root")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

func runList(ctx context.Context, app *App, flags installFlags, component string, all, asJSON bool) error {
	filters := []manifest.Filter{}
	if component != "" {
		c, err := types.ParseComponent(component)
		if err != nil {
			return err
		}
		filters = append(filters, manifest.ByComponent(c))
	}

	s, err := app.newSession(ctx, flags, nil)
	if err != nil {
		return err
	}
	if !all {
		filters = append(filters, manifest.ByRoot(s.root))
	}

	seq, err := s.installer.ListInstalled(ctx, manifest.And(filters...))
	if err != nil {
		return err
	}
	records := slices.SortedFunc(seq, func(a, b manifest.Record) int {
		return cmp.Or(
			cmp.Compare(a.Component, b.Component),
			a.Version.Compare(b.Version),
		)
	})

	if asJSON {
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []manifest.Record{}
		}
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("No installs recorded."))
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("COMPONENT", "VERSION", "ARCH", "SCOPE", "INSTALLED", "ROOT").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	for _, r := range records {
		t.Row(
			string(r.Component),
			r.Version.String(),
			string(r.InstallRoot.Architecture),
			string(r.Scope),
			r.InstalledAt.Local().Format("2006-01-02 15:04"),
			string(r.InstallRoot.Path),
		)
	}
	fmt.Fprintln(app.stdout, t.Render())
	return nil
}
