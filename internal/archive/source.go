// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/platform"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

const (
	// FormatTarGz is a gzip-compressed tarball (Linux, macOS).
	FormatTarGz Format = "tar.gz"
	// FormatZip is a zip file (Windows).
	FormatZip Format = "zip"
)

// ErrUnknownFormat is returned when a file name has no recognized archive suffix.
var ErrUnknownFormat = errors.New("unknown archive format")

type (
	// Format identifies the container format of an archive.
	Format string

	// Request describes the archive the installer needs.
	Request struct {
		Component    types.Component
		Version      version.Version
		Architecture types.Architecture
	}

	// Fetched is an archive available on the local filesystem. Cleanup, when
	// set, removes any temporary file the source created; the caller invokes
	// it once extraction is finished.
	Fetched struct {
		Path    string
		Format  Format
		Cleanup func() error
	}

	// Source produces the archive for a request. Implementations own their
	// transport, caching and retries; the installer never retries.
	Source interface {
		Fetch(ctx context.Context, req Request) (*Fetched, error)
	}

	// SourceFunc adapts a function to the Source interface.
	SourceFunc func(ctx context.Context, req Request) (*Fetched, error)
)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context, req Request) (*Fetched, error) { return f(ctx, req) }

// Release runs Cleanup if present. Safe on a nil receiver.
func (f *Fetched) Release() error {
	if f == nil || f.Cleanup == nil {
		return nil
	}
	err := f.Cleanup()
	f.Cleanup = nil
	return err
}

// FormatFromName infers the format from a file name suffix.
func FormatFromName(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(name))
}

// Extension returns the file suffix for the format, including the dot.
func (f Format) Extension() string { return "." + string(f) }

// FileName returns the name Microsoft publishes for a component archive,
// e.g. "dotnet-sdk-9.0.100-linux-x64.tar.gz".
func FileName(c types.Component, v version.Version, rid string, f Format) string {
	return fmt.Sprintf("%s-%s-%s%s", productPrefix(c), v, rid, f.Extension())
}

// FormatForOS returns the archive format published for goos.
func FormatForOS(goos string) Format {
	if platform.ArchiveExtension(goos) == FormatZip.Extension() {
		return FormatZip
	}
	return FormatTarGz
}

// DirSource serves archives from a local directory using the published
// file names. It is the offline counterpart of the download source.
type DirSource struct {
	dir  string
	goos string
}

// NewDirSource creates a DirSource for archives built for goos.
func NewDirSource(dir, goos string) *DirSource {
	return &DirSource{dir: dir, goos: goos}
}

// Fetch implements Source. The archive is used in place, so Cleanup is nil.
func (s *DirSource) Fetch(ctx context.Context, req Request) (*Fetched, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rid, err := platform.RID(s.goos, req.Architecture.String())
	if err != nil {
		return nil, err
	}
	format := FormatForOS(s.goos)
	path := filepath.Join(s.dir, FileName(req.Component, req.Version, rid, format))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("archive for %s %s: %w", req.Component, req.Version, err)
	}
	return &Fetched{Path: path, Format: format}, nil
}

func productPrefix(c types.Component) string {
	switch c {
	case types.ComponentSDK:
		return "dotnet-sdk"
	case types.ComponentRuntime:
		return "dotnet-runtime"
	case types.ComponentASPNETCore:
		return "aspnetcore-runtime"
	}
	return string(c)
}
