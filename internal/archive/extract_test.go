// SPDX-License-Identifier: MPL-2.0

package archive_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dotnet/sdk-sub056/internal/archive"
	"github.com/dotnet/sdk-sub056/internal/testutil"
	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/platform"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

func TestExtract_Formats(t *testing.T) {
	t.Parallel()

	for _, format := range []archive.Format{archive.FormatTarGz, archive.FormatZip} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			src := filepath.Join(dir, "sdk"+format.Extension())
			entries := testutil.SDKEntries("9.0.100", "9.0.0")
			if format == archive.FormatZip {
				testutil.WriteZip(t, src, entries)
			} else {
				testutil.WriteTarGz(t, src, entries)
			}

			dest := filepath.Join(dir, "out")
			if err := archive.Extract(context.Background(), src, format, dest, archive.DefaultLimits()); err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			stamp := testutil.MustReadFile(t, filepath.Join(dest, "sdk", "9.0.100", ".version"))
			if string(stamp) != testutil.VersionStamp("9.0.100") {
				t.Errorf(".version = %q", stamp)
			}
			if runtime.GOOS != platform.Windows {
				info, err := os.Stat(filepath.Join(dest, platform.HostDotnetName()))
				if err != nil {
					t.Fatal(err)
				}
				if info.Mode().Perm()&0o100 == 0 {
					t.Errorf("host mode = %v, want executable", info.Mode())
				}
			}
		})
	}
}

func TestExtract_RejectsUnsafeEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []testutil.Entry
		wantErr error
	}{
		{"parent traversal", []testutil.Entry{{Name: "../evil", Body: "x"}}, archive.ErrUnsafePath},
		{"nested traversal", []testutil.Entry{{Name: "sdk/../../evil", Body: "x"}}, archive.ErrUnsafePath},
		{"absolute", []testutil.Entry{{Name: "/etc/evil", Body: "x"}}, archive.ErrUnsafePath},
		{"backslash traversal", []testutil.Entry{{Name: `..\evil`, Body: "x"}}, archive.ErrUnsafePath},
		{"absolute symlink", []testutil.Entry{{Name: "link", Link: "/etc/passwd"}}, archive.ErrUnsafePath},
		{"escaping symlink", []testutil.Entry{{Name: "a/link", Link: "../../outside"}}, archive.ErrUnsafePath},
	}

	for _, tt := range tests {
		for _, format := range []archive.Format{archive.FormatTarGz, archive.FormatZip} {
			t.Run(tt.name+"/"+string(format), func(t *testing.T) {
				t.Parallel()

				dir := t.TempDir()
				src := filepath.Join(dir, "bad"+format.Extension())
				if format == archive.FormatZip {
					testutil.WriteZip(t, src, tt.entries)
				} else {
					testutil.WriteTarGz(t, src, tt.entries)
				}
				dest := filepath.Join(dir, "out")
				err := archive.Extract(context.Background(), src, format, dest, archive.DefaultLimits())
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
				}
				if _, statErr := os.Stat(filepath.Join(dir, "evil")); !os.IsNotExist(statErr) {
					t.Error("entry escaped the destination directory")
				}
			})
		}
	}
}

func TestExtract_AllowsInternalSymlink(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == platform.Windows {
		t.Skip("symlinks need developer mode on Windows")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "ok.tar.gz")
	testutil.WriteTarGz(t, src, []testutil.Entry{
		{Name: "lib/libfoo.so.1", Body: "elf"},
		{Name: "lib/libfoo.so", Link: "libfoo.so.1"},
	})
	dest := filepath.Join(dir, "out")
	if err := archive.Extract(context.Background(), src, archive.FormatTarGz, dest, archive.DefaultLimits()); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dest, "lib", "libfoo.so")); string(got) != "elf" {
		t.Errorf("symlink target content = %q", got)
	}
}

func TestExtract_Limits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "big.tar.gz")
	testutil.WriteTarGz(t, src, []testutil.Entry{
		{Name: "a", Body: strings.Repeat("x", 600)},
		{Name: "b", Body: strings.Repeat("y", 600)},
	})

	err := archive.Extract(context.Background(), src, archive.FormatTarGz, filepath.Join(dir, "out1"), archive.Limits{MaxBytes: 1000})
	if !errors.Is(err, archive.ErrTooLarge) {
		t.Errorf("byte limit error = %v, want ErrTooLarge", err)
	}
	err = archive.Extract(context.Background(), src, archive.FormatTarGz, filepath.Join(dir, "out2"), archive.Limits{MaxEntries: 1})
	if !errors.Is(err, archive.ErrTooLarge) {
		t.Errorf("entry limit error = %v, want ErrTooLarge", err)
	}
}

func TestExtract_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "sdk.tar.gz")
	testutil.WriteTarGz(t, src, testutil.SDKEntries("9.0.100", "9.0.0"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := archive.Extract(ctx, src, archive.FormatTarGz, filepath.Join(dir, "out"), archive.DefaultLimits())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}

func TestCleanEntryName(t *testing.T) {
	t.Parallel()

	good := map[string]string{
		"sdk/9.0.100/dotnet.dll": "sdk/9.0.100/dotnet.dll",
		"./dotnet":               "dotnet",
		"a/./b/../c":             "a/c",
		`shared\x\y`:             "shared/x/y",
		"host/console.txt":       "host/console.txt",
	}
	for in, want := range good {
		got, err := archive.CleanEntryName(in)
		if err != nil || got != want {
			t.Errorf("CleanEntryName(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "/abs", "..", "../x", "a/../../x", `C:\x`, "C:/x", "sdk/nul", "shared/COM1.dll/x"} {
		if _, err := archive.CleanEntryName(in); !errors.Is(err, archive.ErrUnsafePath) {
			t.Errorf("CleanEntryName(%q) error = %v, want ErrUnsafePath", in, err)
		}
	}
}

func TestVerifySHA512(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "blob")
	testutil.MustWriteFile(t, path, []byte("abc"), 0o644)

	const abcDigest = "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a" +
		"2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"
	if err := archive.VerifySHA512(path, strings.ToUpper(abcDigest)); err != nil {
		t.Errorf("VerifySHA512() unexpected error: %v", err)
	}
	err := archive.VerifySHA512(path, strings.Repeat("0", 128))
	if !errors.Is(err, archive.ErrChecksumMismatch) {
		t.Fatalf("VerifySHA512() error = %v, want ErrChecksumMismatch", err)
	}
	var ce *archive.ChecksumError
	if !errors.As(err, &ce) || ce.Got != abcDigest {
		t.Errorf("ChecksumError = %#v", ce)
	}
}

func TestFormatAndFileName(t *testing.T) {
	t.Parallel()

	if f, err := archive.FormatFromName("x.TGZ"); err != nil || f != archive.FormatTarGz {
		t.Errorf("FormatFromName(x.TGZ) = %q, %v", f, err)
	}
	if _, err := archive.FormatFromName("x.rar"); !errors.Is(err, archive.ErrUnknownFormat) {
		t.Errorf("FormatFromName(x.rar) error = %v", err)
	}
	if archive.FormatForOS(platform.Windows) != archive.FormatZip || archive.FormatForOS(platform.Linux) != archive.FormatTarGz {
		t.Error("FormatForOS mismatch")
	}
	got := archive.FileName(types.ComponentASPNETCore, version.MustParse("9.0.0"), "linux-x64", archive.FormatTarGz)
	if got != "aspnetcore-runtime-9.0.0-linux-x64.tar.gz" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestDirSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	v := version.MustParse("9.0.100")
	name := archive.FileName(types.ComponentSDK, v, "linux-x64", archive.FormatTarGz)
	testutil.WriteTarGz(t, filepath.Join(dir, name), testutil.SDKEntries("9.0.100", "9.0.0"))

	src := archive.NewDirSource(dir, platform.Linux)
	got, err := src.Fetch(context.Background(), archive.Request{
		Component: types.ComponentSDK, Version: v, Architecture: types.ArchX64,
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if filepath.Base(got.Path) != name || got.Format != archive.FormatTarGz {
		t.Errorf("Fetch() = %+v", got)
	}
	if err := got.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}

	_, err = src.Fetch(context.Background(), archive.Request{
		Component: types.ComponentSDK, Version: version.MustParse("9.0.101"), Architecture: types.ArchX64,
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Fetch(missing) error = %v, want ErrNotExist", err)
	}
}
