// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

const manifestPath = "/home/u/.local/share/dotnetup/v1/manifest.json"

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "read install manifest"},
			expected: "failed to read install manifest",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "read install manifest", Resource: manifestPath},
			expected: "failed to read install manifest: " + manifestPath,
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "resolve channel 9.0.1xx", Cause: errors.New("no match")},
			expected: "failed to resolve channel 9.0.1xx: no match",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "read install manifest",
				Resource:  manifestPath,
				Cause:     errors.New("unexpected EOF"),
			},
			expected: "failed to read install manifest: " + manifestPath + ": unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("install sdk 9.0.100").
		Wrap(fmt.Errorf("open root: %w", fs.ErrPermission)).
		BuildError()
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("errors.Is should see through ActionableError: %v", err)
	}
	var ae *ActionableError
	if !errors.As(err, &ae) || ae.Operation != "install sdk 9.0.100" {
		t.Errorf("errors.As() = %v", ae)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("read install manifest").
		WithResource(manifestPath).
		WithSuggestions("Inspect the file", "Move it aside").
		WithIssue(ManifestCorruptId).
		Wrap(fmt.Errorf("decode: %w", errors.New("unexpected EOF"))).
		Build()

	quiet := err.Format(false)
	for _, want := range []string{"failed to read install manifest", "• Inspect the file", "• Move it aside"} {
		if !strings.Contains(quiet, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, quiet)
		}
	}
	if strings.Contains(quiet, "Error chain") {
		t.Errorf("Format(false) should not include the error chain:\n%s", quiet)
	}
	if !strings.Contains(quiet, "dotnetup explain manifest-corrupt") {
		t.Errorf("Format(false) should point at the issue help:\n%s", quiet)
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. decode: unexpected EOF", "2. unexpected EOF", "dotnetup explain manifest-corrupt"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without an operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without an operation should return a nil interface")
	}

	ae := NewErrorContext().WithOperation("acquire lock").WithSuggestion("Wait").Build()
	if !ae.HasSuggestions() || ae.Issue != 0 || ae.Cause != nil {
		t.Errorf("Build() = %+v", ae)
	}
	if (&ActionableError{Operation: "x"}).HasSuggestions() {
		t.Error("HasSuggestions() should be false without suggestions")
	}
}

func TestErrorContext_Reuse(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithOperation("download archive").WithResource("sdk 9.0.100")
	err1 := ctx.Wrap(errors.New("error 1")).Build()
	err2 := ctx.Wrap(errors.New("error 2")).Build()
	if err1.Cause.Error() == err2.Cause.Error() {
		t.Error("reused context should allow different causes")
	}
	if err1.Operation != err2.Operation || err1.Resource != err2.Resource {
		t.Error("reused context should keep operation and resource")
	}
}
