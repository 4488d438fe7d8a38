// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dotnet/sdk-sub056/pkg/fspath"
	"github.com/dotnet/sdk-sub056/pkg/platform"
)

const (
	// defaultMaxBytes bounds the expanded size of one archive (8 GiB). The
	// largest SDK archives expand to well under 1 GiB.
	defaultMaxBytes = 8 << 30
	// defaultMaxEntries bounds the number of entries in one archive.
	defaultMaxEntries = 500_000
	// maxLinkTarget bounds the size of a zip symlink body.
	maxLinkTarget = 4 << 10
)

var (
	// ErrUnsafePath is returned for entries that would land outside the
	// destination directory.
	ErrUnsafePath = errors.New("unsafe archive entry path")
	// ErrTooLarge is returned when an archive exceeds its size or entry limits.
	ErrTooLarge = errors.New("archive exceeds extraction limits")
	// ErrUnsupportedEntry is returned for device files and other entry types
	// an SDK archive never contains.
	ErrUnsupportedEntry = errors.New("unsupported archive entry")
)

type (
	// Limits bounds the work one extraction may do.
	Limits struct {
		MaxBytes   int64
		MaxEntries int
	}

	// EntryError wraps a failure with the archive entry that caused it.
	EntryError struct {
		Archive string
		Entry   string
		Err     error
	}

	extractor struct {
		ctx     context.Context
		dest    string
		limits  Limits
		written int64
		entries int
	}
)

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxBytes: defaultMaxBytes, MaxEntries: defaultMaxEntries}
}

// Error implements the error interface.
func (e *EntryError) Error() string {
	return fmt.Sprintf("extracting %s from %s: %v", e.Entry, filepath.Base(e.Archive), e.Err)
}

// Unwrap returns the underlying cause.
func (e *EntryError) Unwrap() error { return e.Err }

// Extract expands the archive at src into dest, creating dest if needed.
// The context is checked between entries. On error dest may hold a partial
// tree; the caller owns its removal.
func Extract(ctx context.Context, src string, format Format, dest string, limits Limits) error {
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = defaultMaxBytes
	}
	if limits.MaxEntries <= 0 {
		limits.MaxEntries = defaultMaxEntries
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolving extraction directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("creating extraction directory: %w", err)
	}

	x := &extractor{ctx: ctx, dest: abs, limits: limits}
	switch format {
	case FormatTarGz:
		return x.tarGz(src)
	case FormatZip:
		return x.zip(src)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func (x *extractor) tarGz(src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}
		if errors.Is(nextErr, tar.ErrInsecurePath) {
			return &EntryError{Archive: src, Entry: hdr.Name, Err: fmt.Errorf("%w: %q", ErrUnsafePath, hdr.Name)}
		}
		if nextErr != nil {
			return fmt.Errorf("reading tar entry: %w", nextErr)
		}
		if err := x.step(); err != nil {
			return err
		}

		var entryErr error
		switch hdr.Typeflag {
		case tar.TypeDir:
			entryErr = x.mkdir(hdr.Name)
		case tar.TypeReg:
			entryErr = x.writeFile(hdr.Name, tr, hdr.FileInfo().Mode())
		case tar.TypeSymlink:
			entryErr = x.symlink(hdr.Name, hdr.Linkname)
		case tar.TypeLink:
			entryErr = x.hardlink(hdr.Name, hdr.Linkname)
		case tar.TypeXGlobalHeader, tar.TypeXHeader:
			continue
		default:
			entryErr = fmt.Errorf("%w: type %q", ErrUnsupportedEntry, hdr.Typeflag)
		}
		if entryErr != nil {
			return &EntryError{Archive: src, Entry: hdr.Name, Err: entryErr}
		}
	}
}

func (x *extractor) zip(src string) error {
	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = zr.Close()
		return fmt.Errorf("%w: %s", ErrUnsafePath, err)
	}
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = zr.Close() }() // read-only

	for _, zf := range zr.File {
		if err := x.step(); err != nil {
			return err
		}
		mode := zf.Mode()

		var entryErr error
		switch {
		case mode.IsDir() || strings.HasSuffix(zf.Name, "/"):
			entryErr = x.mkdir(zf.Name)
		case mode&fs.ModeSymlink != 0:
			entryErr = x.zipSymlink(zf)
		case mode.IsRegular():
			entryErr = x.zipFile(zf)
		default:
			entryErr = fmt.Errorf("%w: mode %s", ErrUnsupportedEntry, mode)
		}
		if entryErr != nil {
			return &EntryError{Archive: src, Entry: zf.Name, Err: entryErr}
		}
	}
	return nil
}

func (x *extractor) zipFile(zf *zip.File) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	return x.writeFile(zf.Name, rc, zf.Mode())
}

func (x *extractor) zipSymlink(zf *zip.File) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	target, err := io.ReadAll(io.LimitReader(rc, maxLinkTarget+1))
	if err != nil {
		return err
	}
	if len(target) > maxLinkTarget {
		return fmt.Errorf("%w: symlink target too long", ErrTooLarge)
	}
	return x.symlink(zf.Name, string(target))
}

// step counts an entry and checks for cancellation.
func (x *extractor) step() error {
	if err := x.ctx.Err(); err != nil {
		return err
	}
	x.entries++
	if x.entries > x.limits.MaxEntries {
		return fmt.Errorf("%w: more than %d entries", ErrTooLarge, x.limits.MaxEntries)
	}
	return nil
}

func (x *extractor) mkdir(name string) error {
	target, err := x.resolve(name)
	if err != nil {
		return err
	}
	return os.MkdirAll(target, 0o755)
}

func (x *extractor) writeFile(name string, r io.Reader, mode fs.FileMode) (err error) {
	target, err := x.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := mode.Perm() | 0o600
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	remaining := x.limits.MaxBytes - x.written
	n, err := io.Copy(f, io.LimitReader(r, remaining+1))
	x.written += n
	if err != nil {
		return err
	}
	if n > remaining {
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, x.limits.MaxBytes)
	}
	return nil
}

func (x *extractor) symlink(name, linkname string) error {
	target, err := x.resolve(name)
	if err != nil {
		return err
	}
	if linkname == "" || filepath.IsAbs(linkname) || path.IsAbs(linkname) {
		return fmt.Errorf("%w: symlink to %q", ErrUnsafePath, linkname)
	}
	resolved := filepath.Clean(filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname)))
	if !fspath.Within(x.dest, resolved) {
		return fmt.Errorf("%w: symlink to %q", ErrUnsafePath, linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.Symlink(linkname, target)
}

func (x *extractor) hardlink(name, linkname string) error {
	target, err := x.resolve(name)
	if err != nil {
		return err
	}
	source, err := x.resolve(linkname)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.Link(source, target)
}

// resolve maps an archive entry name to a path under dest, rejecting
// absolute names, drive letters, and names that climb out of dest.
func (x *extractor) resolve(name string) (string, error) {
	clean, err := CleanEntryName(name)
	if err != nil {
		return "", err
	}
	target := filepath.Join(x.dest, filepath.FromSlash(clean))
	if !fspath.Within(x.dest, target) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return target, nil
}

// CleanEntryName normalizes an archive entry name to a slash-separated
// relative path. Backslashes are treated as separators and Windows device
// names are rejected.
func CleanEntryName(name string) (string, error) {
	n := strings.ReplaceAll(name, `\`, "/")
	if n == "" || strings.HasPrefix(n, "/") || filepath.VolumeName(n) != "" ||
		(len(n) >= 2 && n[1] == ':') {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	clean := path.Clean(n)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	// Archives are shared across platforms; a device name would break the
	// root on Windows.
	for seg := range strings.SplitSeq(clean, "/") {
		if platform.IsWindowsReservedName(seg) {
			return "", fmt.Errorf("%w: %q names a Windows device", ErrUnsafePath, name)
		}
	}
	return clean, nil
}
