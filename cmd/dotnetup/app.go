// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/dotnet/sdk-sub056/internal/archive"
	"github.com/dotnet/sdk-sub056/internal/channel"
	"github.com/dotnet/sdk-sub056/internal/config"
	"github.com/dotnet/sdk-sub056/internal/gate"
	"github.com/dotnet/sdk-sub056/internal/install"
	"github.com/dotnet/sdk-sub056/internal/logging"
	"github.com/dotnet/sdk-sub056/internal/manifest"
	"github.com/dotnet/sdk-sub056/internal/releases"
	"github.com/dotnet/sdk-sub056/internal/validate"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and builds its session from it.
	App struct {
		Config     config.Provider
		HTTPClient *http.Client
		stdout     io.Writer
		stderr     io.Writer
		getenv     func(string) string
		getwd      func() (string, error)
		homeDir    func() (string, error)
		goos       string

		flags globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		HTTPClient *http.Client
		Stdout     io.Writer
		Stderr     io.Writer
		Getenv     func(string) string
		Getwd      func() (string, error)
		HomeDir    func() (string, error)
		GOOS       string
	}

	globalFlags struct {
		verbose    bool
		configFile string
		configDir  string
	}

	// installFlags are the target overrides shared by commands that touch
	// an install root.
	installFlags struct {
		installPath string
		arch        string
		scope       string
		indexFile   string
		archiveDir  string
	}

	// session is everything one command invocation needs, resolved from
	// config and flags.
	session struct {
		cfg       *config.Config
		paths     config.Paths
		root      types.InstallRoot
		scope     types.Scope
		logger    *log.Logger
		catalogs  releases.CatalogProvider
		source    archive.Source
		installer *install.Installer
	}
)

// NewApp creates an App with production defaults for nil dependencies.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:     deps.Config,
		HTTPClient: deps.HTTPClient,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		getenv:     deps.Getenv,
		getwd:      deps.Getwd,
		homeDir:    deps.HomeDir,
		goos:       deps.GOOS,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.HTTPClient == nil {
		app.HTTPClient = http.DefaultClient
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.getenv == nil {
		app.getenv = os.Getenv
	}
	if app.getwd == nil {
		app.getwd = os.Getwd
	}
	if app.homeDir == nil {
		app.homeDir = os.UserHomeDir
	}
	if app.goos == "" {
		app.goos = runtime.GOOS
	}
	return app
}

// loadConfig reads the configuration selected by the global flags.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(a.flags.configFile),
		ConfigDirPath:  types.FilesystemPath(a.flags.configDir),
	})
}

// configFilePath returns the config file the global flags select and
// whether it exists.
func (a *App) configFilePath() (string, bool, error) {
	path := a.flags.configFile
	if path == "" {
		dir := a.flags.configDir
		if dir == "" {
			var err error
			if dir, err = config.ConfigDir(); err != nil {
				return "", false, err
			}
		}
		path = filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
	}
	info, err := os.Stat(path)
	return path, err == nil && !info.IsDir(), nil
}

// logger returns the stderr logger, verbose when the flag or the config asks.
func (a *App) logger(cfg *config.Config) *log.Logger {
	return logging.New(a.stderr, a.flags.verbose || (cfg != nil && cfg.UI.Verbose))
}

// verbose reports whether verbose output is enabled by flag.
func (a *App) verbose() bool {
	return a.flags.verbose
}

// newSession loads config, applies the flag overrides and builds the
// catalog, the archive source and the installer.
func (a *App) newSession(ctx context.Context, f installFlags, observer install.Observer) (*session, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := applyInstallFlags(cfg, f); err != nil {
		return nil, err
	}

	// A missing home only matters when a default path needs it.
	home, _ := a.homeDir()
	paths, err := cfg.ResolvePaths(a.goos, a.getenv, home)
	if err != nil {
		return nil, err
	}
	rootPath, err := filepath.Abs(paths.InstallRoot)
	if err != nil {
		return nil, fmt.Errorf("install root: %w", err)
	}
	root, err := types.NewInstallRoot(rootPath, cfg.TargetArchitecture())
	if err != nil {
		return nil, err
	}

	logger := a.logger(cfg)
	s := &session{
		cfg:    cfg,
		paths:  paths,
		root:   root,
		scope:  cfg.Scope,
		logger: logger,
	}

	client := releases.NewClient(
		releases.WithHTTPClient(a.HTTPClient),
		releases.WithIndexURL(cfg.Releases.IndexURL),
		releases.WithUserAgent(config.AppName+"/"+Version),
		releases.WithParallelism(cfg.Install.Parallelism),
		releases.WithLogger(logger),
	)
	if f.indexFile != "" {
		s.catalogs = releases.NewFileProvider(f.indexFile)
	} else {
		s.catalogs = releases.NewCache(paths.CachePath, client,
			releases.WithTTL(cfg.Releases.CacheTTL),
			releases.WithCacheLogger(logger),
		)
	}
	if f.archiveDir != "" {
		s.source = archive.NewDirSource(f.archiveDir, a.goos)
	} else {
		s.source = releases.NewDownloader(s.catalogs, client,
			releases.WithTargetOS(a.goos),
			releases.WithDownloadLogger(logger),
		)
	}

	opts := []install.Option{
		install.WithResolver(channel.NewResolver(channel.WithExplicitPolicy(cfg.Resolve.ExplicitPolicy))),
		install.WithValidator(validate.NewForOS(a.goos)),
		install.WithLogger(logger),
		install.WithScope(cfg.Scope),
		install.WithParallelism(cfg.Install.Parallelism),
	}
	if observer != nil {
		opts = append(opts, install.WithObserver(observer))
	}
	s.installer = install.New(
		manifest.NewStore(paths.ManifestPath),
		gate.New(paths.LockDir, gate.WithLogger(logger)),
		opts...,
	)
	return s, nil
}

// index loads the release index through the session's catalog provider.
func (s *session) index(ctx context.Context) (*releases.Index, error) {
	cat, err := s.catalogs.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Index(), nil
}

// applyInstallFlags overlays command-line target overrides on cfg.
func applyInstallFlags(cfg *config.Config, f installFlags) error {
	if f.installPath != "" {
		cfg.InstallRoot = types.FilesystemPath(f.installPath)
	}
	if f.arch != "" {
		arch, err := types.ParseArchitecture(f.arch)
		if err != nil {
			return err
		}
		cfg.Architecture = arch
	}
	if f.scope != "" {
		scope, err := types.ParseScope(f.scope)
		if err != nil {
			return err
		}
		cfg.Scope = scope
	}
	return nil
}
