// SPDX-License-Identifier: MPL-2.0

package releases

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dotnet/sdk-sub056/internal/archive"
	"github.com/dotnet/sdk-sub056/internal/logging"
	"github.com/dotnet/sdk-sub056/pkg/platform"
)

var (
	// ErrNotPublished is returned when the catalog does not list the requested version.
	ErrNotPublished = errors.New("version not published")
	// ErrNoMatchingFile is returned when a release has no archive for the platform.
	ErrNoMatchingFile = errors.New("no archive for platform")
)

type (
	// Downloader implements archive.Source by downloading the archive the
	// catalog lists for the request and verifying its SHA-512 hash.
	Downloader struct {
		catalogs CatalogProvider
		client   *Client
		goos     string
		tempDir  string
		logger   *log.Logger

		mu      sync.Mutex
		catalog *Catalog
	}

	// DownloaderOption configures a Downloader.
	DownloaderOption func(*Downloader)
)

// WithTargetOS selects archives built for goos instead of the running OS.
func WithTargetOS(goos string) DownloaderOption {
	return func(d *Downloader) { d.goos = goos }
}

// WithTempDir sets where downloads are staged. The default is os.TempDir.
func WithTempDir(dir string) DownloaderOption {
	return func(d *Downloader) { d.tempDir = dir }
}

// WithDownloadLogger sets the logger.
func WithDownloadLogger(l *log.Logger) DownloaderOption {
	return func(d *Downloader) { d.logger = l }
}

// NewDownloader returns a Downloader that looks files up in catalogs and
// fetches them with client.
func NewDownloader(catalogs CatalogProvider, client *Client, opts ...DownloaderOption) *Downloader {
	d := &Downloader{catalogs: catalogs, client: client, goos: runtime.GOOS}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrDiscard(d.logger)
	return d
}

// Fetch implements archive.Source. The returned Cleanup removes the
// downloaded file.
func (d *Downloader) Fetch(ctx context.Context, req archive.Request) (*archive.Fetched, error) {
	file, format, err := d.lookup(ctx, req)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(d.tempDir, "dotnetup-*"+format.Extension())
	if err != nil {
		return nil, fmt.Errorf("creating download file: %w", err)
	}
	path := tmp.Name()
	cleanup := func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	d.logger.Info("downloading", "component", req.Component, "version", req.Version, "file", file.Name)
	n, err := d.client.Download(ctx, file.URL, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = archive.VerifySHA512(path, file.Hash)
	}
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	d.logger.Debug("download verified", "file", file.Name, "bytes", n)
	return &archive.Fetched{Path: path, Format: format, Cleanup: cleanup}, nil
}

func (d *Downloader) lookup(ctx context.Context, req archive.Request) (File, archive.Format, error) {
	cat, err := d.loadCatalog(ctx)
	if err != nil {
		return File{}, "", err
	}
	files, ok := cat.Files(req.Component, req.Version)
	if !ok {
		return File{}, "", fmt.Errorf("%w: %s %s", ErrNotPublished, req.Component, req.Version)
	}
	rid, err := platform.RID(d.goos, req.Architecture.String())
	if err != nil {
		return File{}, "", err
	}
	format := archive.FormatForOS(d.goos)
	f, ok := pickFile(files, rid, format)
	if !ok {
		return File{}, "", fmt.Errorf("%w: %s %s has no %s%s", ErrNoMatchingFile, req.Component, req.Version, rid, format.Extension())
	}
	if f.Hash == "" {
		return File{}, "", fmt.Errorf("%w: %s lists no hash", ErrMalformedFeed, f.Name)
	}
	return f, format, nil
}

// loadCatalog fetches the catalog once per Downloader; failures are retried
// on the next call.
func (d *Downloader) loadCatalog(ctx context.Context) (*Catalog, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.catalog != nil {
		return d.catalog, nil
	}
	cat, err := d.catalogs.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	d.catalog = cat
	return cat, nil
}

func pickFile(files []File, rid string, format archive.Format) (File, bool) {
	for _, f := range files {
		if f.RID == rid && strings.HasSuffix(strings.ToLower(f.Name), format.Extension()) && f.URL != "" {
			return f, true
		}
	}
	return File{}, false
}
