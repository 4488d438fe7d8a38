// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dotnet/sdk-sub056/pkg/types"

	"github.com/google/go-cmp/cmp"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDefaultInstallRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		goos  string
		scope types.Scope
		vars  map[string]string
		home  string
		want  string
	}{
		{"linux user", "linux", types.ScopeUser, nil, "/home/u", filepath.Join("/home/u", ".dotnet")},
		{"darwin user", "darwin", types.ScopeUser, nil, "/Users/u", filepath.Join("/Users/u", ".dotnet")},
		{"windows user", "windows", types.ScopeUser, map[string]string{"LOCALAPPDATA": "L"}, "H", filepath.Join("L", "Microsoft", "dotnet")},
		{"windows user no localappdata", "windows", types.ScopeUser, nil, "H", filepath.Join("H", ".dotnet")},
		{"linux machine", "linux", types.ScopeMachine, nil, "", "/usr/share/dotnet"},
		{"darwin machine", "darwin", types.ScopeMachine, nil, "", "/usr/local/share/dotnet"},
		{"windows machine", "windows", types.ScopeMachine, map[string]string{"ProgramFiles": "P"}, "", filepath.Join("P", "dotnet")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DefaultInstallRoot(tt.goos, tt.scope, env(tt.vars), tt.home)
			if err != nil {
				t.Fatalf("DefaultInstallRoot() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DefaultInstallRoot() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := DefaultInstallRoot("linux", types.ScopeUser, env(nil), ""); !errors.Is(err, ErrNoInstallRoot) {
		t.Errorf("no home: error = %v, want ErrNoInstallRoot", err)
	}
}

func TestConfig_Resolve(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"XDG_DATA_HOME": "/data"}
	data := filepath.Join("/data", "dotnetup", "v1")

	got, err := DefaultConfig().ResolvePaths("linux", env(vars), "/home/u")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := Paths{
		InstallRoot:  filepath.Join("/home/u", ".dotnet"),
		ManifestPath: filepath.Join(data, "manifest.json"),
		LockDir:      filepath.Join(data, LockDirName),
		CachePath:    filepath.Join(data, CacheFileName),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}

	cfg := DefaultConfig()
	cfg.InstallRoot = "/opt/dotnet"
	cfg.ManifestPath = "/state/m.json"
	cfg.LockDir = "/run/locks"
	got, err = cfg.ResolvePaths("linux", env(nil), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want = Paths{
		InstallRoot:  "/opt/dotnet",
		ManifestPath: "/state/m.json",
		LockDir:      "/run/locks",
		CachePath:    filepath.Join("/state", CacheFileName),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() explicit mismatch (-want +got):\n%s", diff)
	}
}
