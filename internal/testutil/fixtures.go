// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotnet/sdk-sub056/pkg/platform"
)

const (
	// NETCoreFramework is the shared framework directory of the base runtime.
	NETCoreFramework = "Microsoft.NETCore.App"
	// AspNetCoreFramework is the shared framework directory of ASP.NET Core.
	AspNetCoreFramework = "Microsoft.AspNetCore.App"

	fixtureCommit = "b2f7e5ad10"
)

// Entry is one file, directory or symlink in a fixture tree or archive.
// Names are slash-separated and relative.
type Entry struct {
	Name string
	Body string
	Mode fs.FileMode
	Dir  bool
	Link string
}

// SDKEntries returns the files of a minimal SDK archive for version v,
// bundled with the runtime runtimeVersion.
func SDKEntries(v, runtimeVersion string) []Entry {
	entries := []Entry{
		{Name: "sdk/", Dir: true},
		{Name: "sdk/" + v + "/", Dir: true},
		{Name: "sdk/" + v + "/dotnet.dll", Body: "sdk " + v},
		{Name: "sdk/" + v + "/.version", Body: VersionStamp(v)},
	}
	return append(entries, RuntimeEntries(NETCoreFramework, runtimeVersion)...)
}

// RuntimeEntries returns the files of a minimal shared framework archive.
// The host executable and hostfxr are included, as in the published archives.
func RuntimeEntries(framework, v string) []Entry {
	return []Entry{
		{Name: platform.HostDotnetName(), Body: "#!/bin/sh\necho dotnet\n", Mode: 0o755},
		{Name: "LICENSE.txt", Body: "MIT"},
		{Name: "host/fxr/" + v + "/libhostfxr.so", Body: "hostfxr " + v},
		{Name: "shared/" + framework + "/" + v + "/.version", Body: VersionStamp(v)},
		{Name: "shared/" + framework + "/" + v + "/System.Private.CoreLib.dll", Body: framework + " " + v},
	}
}

// AspNetCoreEntries returns the files of an ASP.NET Core runtime archive,
// which also carries the base runtime of the same version.
func AspNetCoreEntries(v string) []Entry {
	entries := RuntimeEntries(NETCoreFramework, v)
	return append(entries, Entry{
		Name: "shared/" + AspNetCoreFramework + "/" + v + "/.version",
		Body: VersionStamp(v),
	})
}

// VersionStamp returns the contents of a .version file: commit hash, then
// the version on the second line.
func VersionStamp(v string) string {
	return fixtureCommit + "\n" + v + "\n"
}

// WriteTree materializes entries under root.
func WriteTree(t testing.TB, root string, entries []Entry) {
	t.Helper()
	for _, e := range entries {
		target := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(e.Name, "/")))
		switch {
		case e.Dir:
			MustMkdirAll(t, target, 0o755)
		case e.Link != "":
			MustMkdirAll(t, filepath.Dir(target), 0o755)
			if err := os.Symlink(e.Link, target); err != nil {
				t.Fatalf("failed to create symlink %s: %v", target, err)
			}
		default:
			MustWriteFile(t, target, []byte(e.Body), modeOrDefault(e.Mode))
		}
	}
}

// WriteTarGz writes entries to a gzip-compressed tarball at path.
func WriteTarGz(t testing.TB, path string, entries []Entry) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: int64(modeOrDefault(e.Mode))}
		switch {
		case e.Dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		case e.Link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Link
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.Body)); err != nil {
				t.Fatalf("failed to write tar body %s: %v", e.Name, err)
			}
		}
	}
	MustClose(t, tw)
	MustClose(t, gz)
	MustClose(t, f)
}

// WriteZip writes entries to a zip file at path.
func WriteZip(t testing.TB, path string, entries []Entry) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		body := e.Body
		switch {
		case e.Dir:
			if !strings.HasSuffix(hdr.Name, "/") {
				hdr.Name += "/"
			}
			hdr.SetMode(fs.ModeDir | 0o755)
		case e.Link != "":
			hdr.SetMode(fs.ModeSymlink | 0o777)
			body = e.Link
		default:
			hdr.SetMode(modeOrDefault(e.Mode))
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("failed to write zip header %s: %v", e.Name, err)
		}
		if !e.Dir {
			if _, err := w.Write([]byte(body)); err != nil {
				t.Fatalf("failed to write zip body %s: %v", e.Name, err)
			}
		}
	}
	MustClose(t, zw)
	MustClose(t, f)
}

func modeOrDefault(m fs.FileMode) fs.FileMode {
	if m == 0 {
		return 0o644
	}
	return m
}
