// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// maxNumericLen bounds major and minor so they always fit in an int.
const maxNumericLen = 9

// ErrInvalidVersion is the sentinel error wrapped by ParseError.
var ErrInvalidVersion = errors.New("invalid version")

type (
	// Version is an immutable parsed version. The zero value is "0.0.0".
	Version struct {
		major      int
		minor      int
		patch      Patch
		prerelease string
		build      string
	}

	// ParseError is returned when a string does not follow the version grammar.
	ParseError struct {
		Input  string
		Reason string
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Input, e.Reason)
}

// Unwrap returns ErrInvalidVersion for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrInvalidVersion }

// New returns the concrete release version major.minor.patch.
func New(major, minor, patch int) (Version, error) {
	if major < 0 || minor < 0 {
		return Version{}, &ParseError{Input: fmt.Sprintf("%d.%d.%d", major, minor, patch), Reason: "negative component"}
	}
	p, err := ConcretePatch(patch)
	if err != nil {
		return Version{}, &ParseError{Input: fmt.Sprintf("%d.%d.%d", major, minor, patch), Reason: err.Error()}
	}
	return Version{major: major, minor: minor, patch: p}, nil
}

// Parse parses text into a Version. Surrounding whitespace is ignored; the
// wildcard placeholder is accepted in either case and stored lower-case.
func Parse(text string) (Version, error) {
	s := strings.TrimSpace(text)
	fail := func(reason string) (Version, error) {
		return Version{}, &ParseError{Input: text, Reason: reason}
	}
	if s == "" {
		return fail("empty input")
	}

	var v Version
	if core, build, ok := strings.Cut(s, "+"); ok {
		if build == "" {
			return fail("empty build metadata")
		}
		if strings.Contains(build, "+") {
			return fail("more than one '+'")
		}
		if reason := checkIdentifiers(build, "build metadata"); reason != "" {
			return fail(reason)
		}
		s, v.build = core, build
	}
	if core, pre, ok := strings.Cut(s, "-"); ok {
		if pre == "" {
			return fail("empty prerelease label")
		}
		if reason := checkIdentifiers(pre, "prerelease label"); reason != "" {
			return fail(reason)
		}
		if !semver.IsValid("v0.0.0-" + pre) {
			return fail(fmt.Sprintf("prerelease label %q has a numeric identifier with a leading zero", pre))
		}
		s, v.prerelease = core, pre
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return fail(fmt.Sprintf("want MAJOR.MINOR.PATCH, got %d segment(s)", len(parts)))
	}
	var reason string
	if v.major, reason = parseNumber(parts[0], "major"); reason != "" {
		return fail(reason)
	}
	if v.minor, reason = parseNumber(parts[1], "minor"); reason != "" {
		return fail(reason)
	}
	if v.patch, reason = parsePatch(strings.ToLower(parts[2])); reason != "" {
		return fail(reason)
	}
	if v.patch.IsWildcard() && (v.prerelease != "" || v.build != "") {
		return fail("wildcard patch cannot carry a prerelease or build suffix")
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major component.
func (v Version) Major() int { return v.major }

// Minor returns the minor component.
func (v Version) Minor() int { return v.minor }

// Patch returns the patch component.
func (v Version) Patch() Patch { return v.patch }

// Prerelease returns the prerelease label without the leading '-'.
func (v Version) Prerelease() string { return v.prerelease }

// Build returns the build metadata without the leading '+'.
func (v Version) Build() string { return v.build }

// IsConcrete reports whether the version can be installed, i.e. its patch
// is not a wildcard.
func (v Version) IsConcrete() bool { return !v.patch.IsWildcard() }

// IsPreview reports whether a prerelease label is present.
func (v Version) IsPreview() bool { return v.prerelease != "" }

// IsPreview is the function form of Version.IsPreview.
func IsPreview(v Version) bool { return v.IsPreview() }

// String returns the canonical text form.
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(v.major))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(v.minor))
	b.WriteByte('.')
	b.WriteString(v.patch.String())
	if v.prerelease != "" {
		b.WriteByte('-')
		b.WriteString(v.prerelease)
	}
	if v.build != "" {
		b.WriteByte('+')
		b.WriteString(v.build)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func parseNumber(s, field string) (int, string) {
	switch {
	case s == "":
		return 0, "empty " + field
	case !isDigits(s):
		return 0, fmt.Sprintf("%s %q is not numeric", field, s)
	case len(s) > 1 && s[0] == '0':
		return 0, fmt.Sprintf("%s %q has a leading zero", field, s)
	case len(s) > maxNumericLen:
		return 0, fmt.Sprintf("%s %q is too large", field, s)
	}
	n, _ := strconv.Atoi(s)
	return n, ""
}

// checkIdentifiers validates a dot-separated list of [0-9A-Za-z-]+ identifiers.
func checkIdentifiers(s, field string) string {
	for id := range strings.SplitSeq(s, ".") {
		if id == "" {
			return fmt.Sprintf("%s %q has an empty identifier", field, s)
		}
		for _, r := range id {
			if !isIdentRune(r) {
				return fmt.Sprintf("%s %q contains %q", field, s, r)
			}
		}
	}
	return ""
}

func isIdentRune(r rune) bool {
	return r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
