// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	name:     string & !=""
	workers:  int & >=1 & <=16 | *2
	channel?: string
	tags?: [...string]
}
`

type testSettings struct {
	Name    string   `json:"name"`
	Workers int      `json:"workers"`
	Channel string   `json:"channel,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    testSettings
		wantErr string
	}{
		{
			name: "defaults applied",
			data: `name: "a"`,
			want: testSettings{Name: "a", Workers: 2},
		},
		{
			name: "all fields",
			data: `name: "a", workers: 4, channel: "8.0", tags: ["x", "y"]`,
			want: testSettings{Name: "a", Workers: 4, Channel: "8.0", Tags: []string{"x", "y"}},
		},
		{
			name:    "constraint violated",
			data:    `name: "a", workers: 40`,
			wantErr: "workers",
		},
		{
			name:    "wrong type",
			data:    `name: 3`,
			wantErr: "name",
		},
		{
			name:    "closed definition rejects unknown field",
			data:    `name: "a", colour: "red"`,
			wantErr: "colour",
		},
		{
			name:    "syntax error",
			data:    `name: "a`,
			wantErr: "settings.cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(tt.data), "#Settings", WithFilename("settings.cue"))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseAndDecode() = %+v, want error containing %q", res.Value, tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAndDecode() error = %v", err)
			}
			got := *res.Value
			if got.Name != tt.want.Name || got.Workers != tt.want.Workers || got.Channel != tt.want.Channel || strings.Join(got.Tags, ",") != strings.Join(tt.want.Tags, ",") {
				t.Errorf("ParseAndDecode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseAndDecode_NonConcrete(t *testing.T) {
	t.Parallel()

	schema := `#S: { name: string, label?: string }`
	if _, err := ParseAndDecode[testSettings]([]byte(schema), []byte(`{}`), "#S"); err == nil {
		t.Error("concrete validation should reject a missing required field")
	}
	if _, err := ParseAndDecode[testSettings]([]byte(schema), []byte(`{}`), "#S", WithConcrete(false)); err != nil {
		t.Errorf("non-concrete validation failed: %v", err)
	}
}

func TestParseAndDecode_MaxFileSize(t *testing.T) {
	t.Parallel()

	data := []byte(`name: "` + strings.Repeat("a", 64) + `"`)
	_, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings", WithMaxFileSize(16), WithFilename("big.cue"))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("error = %v, want size limit error", err)
	}
}

func TestParseAndDecode_MissingDefinition(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(`name: "a"`), "#Nope")
	if err == nil || !strings.Contains(err.Error(), "#Nope") {
		t.Fatalf("error = %v, want missing definition error", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"install_root"}, "install_root"},
		{[]string{"releases", "cache_ttl"}, "releases.cache_ttl"},
		{[]string{"runtimes", "1", "channel"}, "runtimes[1].channel"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.in); got != tt.want {
			t.Errorf("formatPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatError_NonCUE(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := FormatError(base, "config.cue")
	if !errors.Is(err, base) {
		t.Errorf("FormatError() should wrap non-CUE errors, got %v", err)
	}
	if FormatError(nil, "x") != nil {
		t.Error("FormatError(nil) should be nil")
	}
}
