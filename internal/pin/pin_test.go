// SPDX-License-Identifier: MPL-2.0

package pin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dotnet/sdk-sub056/internal/channel"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

func TestParse(t *testing.T) {
	t.Parallel()

	reqs, err := Parse([]byte(`
[sdk]
channel = "9.0.1xx"

[[runtime]]
channel = "8.0"
component = "aspnetcore"

[[runtime]]
channel = "lts"
`), FileName)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []struct {
		channel   string
		component types.Component
	}{
		{"9.0.1xx", types.ComponentSDK},
		{"8.0", types.ComponentASPNETCore},
		{"lts", types.ComponentRuntime},
	}
	if len(reqs) != len(want) {
		t.Fatalf("Parse() returned %d requests, want %d", len(reqs), len(want))
	}
	for i, w := range want {
		if reqs[i].Channel.String() != w.channel || reqs[i].Component != w.component {
			t.Errorf("request %d = %s/%s, want %s/%s", i, reqs[i].Component, reqs[i].Channel, w.component, w.channel)
		}
	}
	if _, ok := reqs[0].Channel.(channel.FeatureBand); !ok {
		t.Errorf("sdk channel type = %T, want channel.FeatureBand", reqs[0].Channel)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"syntax", `[sdk`},
		{"unknown key", "[sdk]\nchannel = \"9.0\"\nversion = \"1\""},
		{"unknown table", "[tools]\nchannel = \"9.0\""},
		{"bad channel", "[sdk]\nchannel = \"nine\""},
		{"missing channel", "[sdk]\n"},
		{"sdk in runtime", "[[runtime]]\nchannel = \"9.0\"\ncomponent = \"sdk\""},
		{"bad component", "[[runtime]]\nchannel = \"9.0\"\ncomponent = \"desktop\""},
		{"sdk with runtime component", "[sdk]\nchannel = \"9.0\"\ncomponent = \"runtime\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.data), "p.toml")
			if !errors.Is(err, ErrInvalidPin) {
				t.Fatalf("Parse() error = %v, want ErrInvalidPin", err)
			}
			var pinErr *InvalidPinError
			if !errors.As(err, &pinErr) || pinErr.Source != "p.toml" {
				t.Errorf("error = %#v, want InvalidPinError for p.toml", err)
			}
		})
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "src", "app", "bin")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	pinPath := filepath.Join(root, "src", FileName)
	if err := os.WriteFile(pinPath, []byte("[sdk]\nchannel = \"9.0\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Find(nested)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != pinPath {
		t.Errorf("Find() = %q, want %q", got, pinPath)
	}

	// A directory with the pin name is not a pin file.
	shadow := filepath.Join(root, "src", "app", FileName)
	if err := os.Mkdir(shadow, 0o755); err != nil {
		t.Fatal(err)
	}
	if got, _ := Find(nested); got != pinPath {
		t.Errorf("Find() with shadow dir = %q, want %q", got, pinPath)
	}
}

func TestFind_NotFound(t *testing.T) {
	t.Parallel()

	if _, err := Find(t.TempDir()); err != nil && !errors.Is(err, ErrNotFound) {
		t.Errorf("Find() error = %v, want ErrNotFound", err)
	}
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), FileName)
	f := &File{
		SDK:      &Entry{Channel: "9.0.102"},
		Runtimes: []Entry{{Channel: "8.0", Component: "aspnetcore"}},
	}
	if err := Save(path, f); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reqs, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(reqs) != 2 || reqs[0].Channel.String() != "9.0.102" || reqs[1].Component != types.ComponentASPNETCore {
		t.Errorf("Load() = %+v", reqs)
	}

	if err := Save(path, &File{}); !errors.Is(err, ErrInvalidPin) {
		t.Errorf("Save(empty) error = %v, want ErrInvalidPin", err)
	}
}

func TestFile_Set(t *testing.T) {
	t.Parallel()

	f := &File{}
	f.Set(types.ComponentSDK, channel.MustParse("9.0.1xx"))
	f.Set(types.ComponentRuntime, channel.MustParse("8.0"))
	f.Set(types.ComponentASPNETCore, channel.MustParse("8.0"))
	f.Set(types.ComponentRuntime, channel.MustParse("9.0"))
	f.Set(types.ComponentSDK, channel.MustParse("lts"))

	if f.SDK == nil || f.SDK.Channel != "lts" {
		t.Errorf("SDK = %+v, want lts", f.SDK)
	}
	want := []Entry{{Channel: "9.0"}, {Channel: "8.0", Component: "aspnetcore"}}
	if len(f.Runtimes) != len(want) {
		t.Fatalf("Runtimes = %+v, want %+v", f.Runtimes, want)
	}
	for i := range want {
		if f.Runtimes[i] != want[i] {
			t.Errorf("Runtimes[%d] = %+v, want %+v", i, f.Runtimes[i], want[i])
		}
	}
}

func TestRead_KeepsUnvalidatedEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("[sdk]\nchannel = \"nine\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if f.SDK.Channel != "nine" {
		t.Errorf("SDK.Channel = %q", f.SDK.Channel)
	}
	if _, err := f.Requests(); !errors.Is(err, channel.ErrInvalidChannel) {
		t.Errorf("Requests() error = %v, want ErrInvalidChannel", err)
	}
}
