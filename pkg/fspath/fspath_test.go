// SPDX-License-Identifier: MPL-2.0

package fspath_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dotnet/sdk-sub056/pkg/fspath"
	"github.com/dotnet/sdk-sub056/pkg/platform"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

func TestJoinStr_MultipleSegments(t *testing.T) {
	t.Parallel()

	got := fspath.JoinStr(types.FilesystemPath("root"), "sdk", "8.0.100")
	want := types.FilesystemPath(filepath.Join("root", "sdk", "8.0.100"))
	if got != want {
		t.Errorf("JoinStr() = %q, want %q", got, want)
	}
}

func TestJoinAndDir(t *testing.T) {
	t.Parallel()

	joined := fspath.Join(types.FilesystemPath("home"), types.FilesystemPath("user"))
	if joined != types.FilesystemPath(filepath.Join("home", "user")) {
		t.Errorf("Join() = %q", joined)
	}
	if got := fspath.Dir(joined); got != types.FilesystemPath("home") {
		t.Errorf("Dir() = %q, want home", got)
	}
}

func TestAbs(t *testing.T) {
	t.Parallel()

	got, err := fspath.Abs(types.FilesystemPath("."))
	if err != nil {
		t.Fatalf("Abs() error = %v", err)
	}
	if !fspath.IsAbs(got) {
		t.Errorf("Abs() = %q is not absolute", got)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	withSlash := types.FilesystemPath(dir + string(filepath.Separator))
	dotted := types.FilesystemPath(filepath.Join(dir, "a", ".."))

	if fspath.Normalize(withSlash, runtime.GOOS) != fspath.Normalize(types.FilesystemPath(dir), runtime.GOOS) {
		t.Error("trailing separator should not change the key")
	}
	if !fspath.Equal(dotted, types.FilesystemPath(dir)) {
		t.Error("dot segments should not change the key")
	}

	upper := fspath.Normalize(types.FilesystemPath(filepath.Join(dir, "SDK")), platform.Windows)
	lower := fspath.Normalize(types.FilesystemPath(filepath.Join(dir, "sdk")), platform.Windows)
	if upper != lower {
		t.Error("windows keys should be case-insensitive")
	}
	upper = fspath.Normalize(types.FilesystemPath(filepath.Join(dir, "SDK")), platform.Linux)
	lower = fspath.Normalize(types.FilesystemPath(filepath.Join(dir, "sdk")), platform.Linux)
	if upper == lower {
		t.Error("linux keys should be case-sensitive")
	}
}

func TestWithin(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "root")
	tests := []struct {
		child string
		want  bool
	}{
		{root, true},
		{filepath.Join(root, "sdk", "8.0.100"), true},
		{filepath.Join(root, ".."), false},
		{filepath.Join(root, "..", "other"), false},
		{filepath.Join(root, "..foo"), true},
	}
	for _, tt := range tests {
		if got := fspath.Within(root, filepath.Clean(tt.child)); got != tt.want {
			t.Errorf("Within(%q, %q) = %v, want %v", root, tt.child, got, tt.want)
		}
	}
}
