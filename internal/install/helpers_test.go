// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dotnet/sdk-sub056/internal/archive"
	"github.com/dotnet/sdk-sub056/internal/gate"
	"github.com/dotnet/sdk-sub056/internal/manifest"
	"github.com/dotnet/sdk-sub056/internal/releases"
	"github.com/dotnet/sdk-sub056/internal/testutil"
	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

// fakeSource serves tarballs built up front from the entries registered
// for a component and version. Every Fetch hands out a private copy that
// its Cleanup removes.
type fakeSource struct {
	t       testing.TB
	dir     string
	fetches atomic.Int64

	mu       sync.Mutex
	archives map[string]string
	hook     func(ctx context.Context, req archive.Request) error
}

func newFakeSource(t testing.TB) *fakeSource {
	t.Helper()
	return &fakeSource{t: t, dir: t.TempDir(), archives: make(map[string]string)}
}

func (s *fakeSource) add(c types.Component, v string, entries []testutil.Entry) *fakeSource {
	s.t.Helper()
	path := filepath.Join(s.dir, string(c)+"-"+v+".tar.gz")
	testutil.WriteTarGz(s.t, path, entries)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archives[string(c)+"/"+v] = path
	return s
}

func (s *fakeSource) Fetch(ctx context.Context, req archive.Request) (*archive.Fetched, error) {
	s.fetches.Add(1)
	if s.hook != nil {
		if err := s.hook(ctx, req); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	src, ok := s.archives[string(req.Component)+"/"+req.Version.String()]
	s.mu.Unlock()
	if !ok {
		return nil, errors.New("no such archive")
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = in.Close() }()
	out, err := os.CreateTemp(s.dir, "fetch-*.tar.gz")
	if err != nil {
		return nil, err
	}
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	path := out.Name()
	return &archive.Fetched{Path: path, Format: archive.FormatTarGz, Cleanup: func() error { return os.Remove(path) }}, nil
}

type env struct {
	root      types.InstallRoot
	store     *manifest.Store
	gate      *gate.Gate
	source    *fakeSource
	installer *Installer
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()

	base := t.TempDir()
	root, err := types.NewInstallRoot(filepath.Join(base, "dotnet"), types.ArchX64)
	if err != nil {
		t.Fatal(err)
	}
	e := &env{
		root:   root,
		store:  manifest.NewStore(filepath.Join(base, "data", "manifest.json")),
		gate:   gate.New(filepath.Join(base, "locks"), gate.WithPollInterval(time.Millisecond, 5*time.Millisecond)),
		source: newFakeSource(t),
	}
	clock := testutil.NewFakeClock(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	e.installer = New(e.store, e.gate, append([]Option{WithClock(clock.Now)}, opts...)...)

	e.source.
		add(types.ComponentSDK, "9.0.100", testutil.SDKEntries("9.0.100", "9.0.0")).
		add(types.ComponentSDK, "9.0.101", testutil.SDKEntries("9.0.101", "9.0.0")).
		add(types.ComponentSDK, "8.0.404", testutil.SDKEntries("8.0.404", "8.0.11")).
		add(types.ComponentRuntime, "8.0.11", testutil.RuntimeEntries(testutil.NETCoreFramework, "8.0.11")).
		add(types.ComponentASPNETCore, "8.0.11", testutil.AspNetCoreEntries("8.0.11"))
	return e
}

func (e *env) records(t *testing.T) []manifest.Record {
	t.Helper()
	seq, err := e.store.List(manifest.All())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var out []manifest.Record
	for r := range seq {
		out = append(out, r)
	}
	return out
}

// rootEntries lists the top-level names in the install root, or nil when
// the root does not exist.
func (e *env) rootEntries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(string(e.root.Path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, de := range entries {
		names = append(names, de.Name())
	}
	return names
}

func testIndex() *releases.Index {
	return releases.NewIndex(
		releases.Entry{Component: types.ComponentSDK, Version: version.MustParse("9.0.100")},
		releases.Entry{Component: types.ComponentSDK, Version: version.MustParse("9.0.101")},
		releases.Entry{Component: types.ComponentSDK, Version: version.MustParse("9.0.200-preview.1"), Prerelease: true},
		releases.Entry{Component: types.ComponentSDK, Version: version.MustParse("8.0.404"), LTS: true},
		releases.Entry{Component: types.ComponentRuntime, Version: version.MustParse("8.0.11"), LTS: true},
		releases.Entry{Component: types.ComponentASPNETCore, Version: version.MustParse("8.0.11"), LTS: true},
	)
}

type recordingObserver struct {
	mu     sync.Mutex
	states []State
	errs   []error
}

func (o *recordingObserver) OnTransition(tr Transition) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, tr.To)
	o.errs = append(o.errs, tr.Err)
}

func (o *recordingObserver) snapshot() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]State(nil), o.states...)
}
