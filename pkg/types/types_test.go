// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestParseComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Component
		wantErr bool
	}{
		{"sdk", ComponentSDK, false},
		{"SDK", ComponentSDK, false},
		{" runtime ", ComponentRuntime, false},
		{"dotnet", ComponentRuntime, false},
		{"Microsoft.AspNetCore.App", ComponentASPNETCore, false},
		{"aspnetcore", ComponentASPNETCore, false},
		{"windowsdesktop", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseComponent(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidComponent) {
					t.Fatalf("ParseComponent(%q) error = %v, want ErrInvalidComponent", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseComponent(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseComponent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestComponentSharedFramework(t *testing.T) {
	t.Parallel()

	if _, ok := ComponentSDK.SharedFramework(); ok {
		t.Error("sdk should not have a shared framework")
	}
	if fw, ok := ComponentRuntime.SharedFramework(); !ok || fw != "Microsoft.NETCore.App" {
		t.Errorf("runtime framework = %q, %v", fw, ok)
	}
	if fw, ok := ComponentASPNETCore.SharedFramework(); !ok || fw != "Microsoft.AspNetCore.App" {
		t.Errorf("aspnetcore framework = %q, %v", fw, ok)
	}
}

func TestParseArchitecture(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Architecture
		wantErr bool
	}{
		{"x64", ArchX64, false},
		{"amd64", ArchX64, false},
		{"ARM64", ArchARM64, false},
		{"386", ArchX86, false},
		{"riscv64", "", true},
	}

	for _, tt := range tests {
		got, err := ParseArchitecture(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseArchitecture(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidArchitecture) {
			t.Errorf("ParseArchitecture(%q) error should wrap ErrInvalidArchitecture", tt.in)
		}
		if got != tt.want {
			t.Errorf("ParseArchitecture(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHostArchitectureIsValid(t *testing.T) {
	t.Parallel()

	// The test suite only runs on supported GOARCH values.
	if err := HostArchitecture().Validate(); err != nil {
		t.Errorf("HostArchitecture() invalid: %v", err)
	}
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	if s, err := ParseScope(""); err != nil || s != ScopeUser {
		t.Errorf("ParseScope(\"\") = %q, %v; want user", s, err)
	}
	if s, err := ParseScope("Machine"); err != nil || s != ScopeMachine {
		t.Errorf("ParseScope(\"Machine\") = %q, %v; want machine", s, err)
	}
	if _, err := ParseScope("system"); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("ParseScope(\"system\") error = %v, want ErrInvalidScope", err)
	}
}

func TestInstallRootValidate(t *testing.T) {
	t.Parallel()

	if _, err := NewInstallRoot("/opt/dotnet", ArchX64); err != nil {
		t.Fatalf("NewInstallRoot() unexpected error: %v", err)
	}

	_, err := NewInstallRoot("  ", "sparc")
	if !errors.Is(err, ErrInvalidInstallRoot) {
		t.Fatalf("NewInstallRoot() error = %v, want ErrInvalidInstallRoot", err)
	}
	var rootErr *InvalidInstallRootError
	if !errors.As(err, &rootErr) {
		t.Fatalf("error should be *InvalidInstallRootError, got %T", err)
	}
	if len(rootErr.FieldErrors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(rootErr.FieldErrors), rootErr.FieldErrors)
	}
}

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value     ExitCode
		wantValid bool
	}{
		{ExitOK, true},
		{ExitUserError, true},
		{ExitFailure, true},
		{255, true},
		{-1, false},
		{256, false},
	}

	for _, tt := range tests {
		err := tt.value.Validate()
		if (err == nil) != tt.wantValid {
			t.Errorf("ExitCode(%d).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
		}
		if !tt.wantValid && !errors.Is(err, ErrInvalidExitCode) {
			t.Errorf("ExitCode(%d).Validate() should wrap ErrInvalidExitCode", tt.value)
		}
	}

	if !ExitOK.IsSuccess() || ExitFailure.IsSuccess() {
		t.Error("IsSuccess mismatch")
	}
}
