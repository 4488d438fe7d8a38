// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dotnet/sdk-sub056/internal/channel"
	"github.com/dotnet/sdk-sub056/internal/pin"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

func newPinCommand(app *App) *cobra.Command {
	var component string
	cmd := &cobra.Command{
		Use:   "pin <channel>",
		Short: "Pin a channel in dotnetup.toml",
		Long: `Record a channel for a component in dotnetup.toml in the working
directory. 'dotnetup install' with no channel installs what the nearest
dotnetup.toml pins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPin(app, component, args[0])
		},
	}
	cmd.Flags().StringVarP(&component, "component", "c", string(types.ComponentSDK), "component to pin (sdk, runtime, aspnetcore)")
	return cmd
}

func runPin(app *App, component, text string) error {
	c, err := types.ParseComponent(component)
	if err != nil {
		return err
	}
	ch, err := channel.Parse(text)
	if err != nil {
		return err
	}
	wd, err := app.getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}

	path := filepath.Join(wd, pin.FileName)
	f, err := pin.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		f, err = &pin.File{}, nil
	}
	if err != nil {
		return err
	}
	f.Set(c, ch)
	if err := pin.Save(path, f); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s pinned %s to %s in %s\n", SuccessStyle.Render("✓"), c, VersionStyle.Render(ch.String()), path)
	return nil
}
