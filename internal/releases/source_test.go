// SPDX-License-Identifier: MPL-2.0

package releases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotnet/sdk-sub056/internal/archive"
	"github.com/dotnet/sdk-sub056/internal/testutil"
	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/platform"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

type staticCatalog struct{ cat *Catalog }

func (s staticCatalog) Index(context.Context) (*Index, error)     { return s.cat.Index(), nil }
func (s staticCatalog) Catalog(context.Context) (*Catalog, error) { return s.cat, nil }

func newDownloadFixture(t *testing.T, hashOverride string) (*Downloader, *feedServer) {
	t.Helper()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "sdk.tar.gz")
	testutil.WriteTarGz(t, archivePath, testutil.SDKEntries("9.0.100", "9.0.0"))
	hash, err := archive.ComputeSHA512(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	if hashOverride != "" {
		hash = hashOverride
	}

	srv := newFeedServer(t, nil, map[string][]byte{"/sdk.tar.gz": testutil.MustReadFile(t, archivePath)})
	cat, err := NewCatalog(ChannelDocument{
		ChannelVersion: "9.0",
		ReleaseType:    "sts",
		Releases: []ReleaseNode{{
			ReleaseVersion: "9.0.0",
			SDK: &ProductNode{Version: "9.0.100", Files: []File{
				{Name: "dotnet-sdk-win-x64.zip", RID: "win-x64", URL: srv.URL + "/nope.zip", Hash: "00"},
				{Name: "dotnet-sdk-linux-x64.tar.gz", RID: "linux-x64", URL: srv.URL + "/sdk.tar.gz", Hash: strings.ToUpper(hash)},
			}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	d := NewDownloader(staticCatalog{cat}, NewClient(), WithTargetOS(platform.Linux), WithTempDir(t.TempDir()))
	return d, srv
}

func sdkRequest(v string, arch types.Architecture) archive.Request {
	return archive.Request{Component: types.ComponentSDK, Version: version.MustParse(v), Architecture: arch}
}

func TestDownloader_FetchVerifies(t *testing.T) {
	t.Parallel()

	d, srv := newDownloadFixture(t, "")
	fetched, err := d.Fetch(context.Background(), sdkRequest("9.0.100", types.ArchX64))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if fetched.Format != archive.FormatTarGz {
		t.Errorf("Format = %q", fetched.Format)
	}
	if _, err := os.Stat(fetched.Path); err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if err := fetched.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(fetched.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Release() left the download behind: %v", err)
	}
	if got := srv.requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1 (the windows file must not be fetched)", got)
	}
}

func TestDownloader_ChecksumMismatchRemovesFile(t *testing.T) {
	t.Parallel()

	d, _ := newDownloadFixture(t, strings.Repeat("ab", 64))
	_, err := d.Fetch(context.Background(), sdkRequest("9.0.100", types.ArchX64))
	if !errors.Is(err, archive.ErrChecksumMismatch) {
		t.Fatalf("Fetch() error = %v, want ErrChecksumMismatch", err)
	}
	entries, err := os.ReadDir(d.tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir holds %d leftover files", len(entries))
	}
}

func TestDownloader_LookupErrors(t *testing.T) {
	t.Parallel()

	d, _ := newDownloadFixture(t, "")
	tests := []struct {
		name string
		req  archive.Request
		want error
	}{
		{"unlisted version", sdkRequest("9.0.101", types.ArchX64), ErrNotPublished},
		{"no file for arch", sdkRequest("9.0.100", types.ArchARM64), ErrNoMatchingFile},
		{"unsupported arch", sdkRequest("9.0.100", types.ArchX86), platform.ErrUnsupportedPlatform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := d.Fetch(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDownloader_ImplementsSource(t *testing.T) {
	t.Parallel()

	var _ archive.Source = (*Downloader)(nil)
	var _ CatalogProvider = (*Client)(nil)
	var _ CatalogProvider = (*Cache)(nil)
	var _ CatalogProvider = (*FileProvider)(nil)
}
