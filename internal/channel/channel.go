// SPDX-License-Identifier: MPL-2.0

package channel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dotnet/sdk-sub056/internal/version"
)

const (
	// Latest selects the newest release of any line.
	Latest KeywordKind = "latest"
	// LTS selects the newest long-term-support release.
	LTS KeywordKind = "lts"
	// STS selects the newest standard-term-support release.
	STS KeywordKind = "sts"
	// Preview selects the newest prerelease.
	Preview KeywordKind = "preview"
)

// maxSelectorNumber bounds major and minor selectors.
const maxSelectorNumber = 1_000_000

// ErrInvalidChannel is the sentinel error wrapped by InvalidChannelError.
var ErrInvalidChannel = errors.New("invalid channel")

type (
	// Channel is a parsed selector. The set of implementations is closed.
	Channel interface {
		fmt.Stringer
		isChannel()
	}

	// Explicit selects one exact version.
	Explicit struct {
		Version version.Version
	}

	// MajorOnly selects the newest release of a major line ("9").
	MajorOnly struct {
		Major int
	}

	// MajorMinor selects the newest release of a major.minor line ("9.0").
	MajorMinor struct {
		Major int
		Minor int
	}

	// FeatureBand selects the newest version whose patch lies in a wildcard
	// band ("9.0.1xx").
	FeatureBand struct {
		Band version.Version
	}

	// KeywordKind names a keyword channel.
	KeywordKind string

	// Keyword selects by release-line policy instead of by number.
	Keyword struct {
		Kind KeywordKind
	}

	// InvalidChannelError is returned when a string is not a valid selector.
	InvalidChannelError struct {
		Value string
		Err   error
	}
)

func (Explicit) isChannel()    {}
func (MajorOnly) isChannel()   {}
func (MajorMinor) isChannel()  {}
func (FeatureBand) isChannel() {}
func (Keyword) isChannel()     {}

// String implements fmt.Stringer.
func (c Explicit) String() string { return c.Version.String() }

// String implements fmt.Stringer.
func (c MajorOnly) String() string { return strconv.Itoa(c.Major) }

// String implements fmt.Stringer.
func (c MajorMinor) String() string { return fmt.Sprintf("%d.%d", c.Major, c.Minor) }

// String implements fmt.Stringer.
func (c FeatureBand) String() string { return c.Band.String() }

// String implements fmt.Stringer.
func (c Keyword) String() string { return string(c.Kind) }

// Error implements the error interface.
func (e *InvalidChannelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid channel %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid channel %q (want a version, MAJOR, MAJOR.MINOR, MAJOR.MINOR.Nxx, latest, lts, sts or preview)", e.Value)
}

// Unwrap returns ErrInvalidChannel. The version parse error, when present,
// stays reachable through errors.As on the Err field.
func (e *InvalidChannelError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidChannel, e.Err}
	}
	return []error{ErrInvalidChannel}
}

// Keywords returns the keyword kinds in display order.
func Keywords() []KeywordKind { return []KeywordKind{Latest, LTS, STS, Preview} }

// Parse maps text to exactly one Channel variant. Keywords are
// case-insensitive and "current" is accepted as an alias for sts.
func Parse(text string) (Channel, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, &InvalidChannelError{Value: text}
	}

	switch strings.ToLower(s) {
	case string(Latest):
		return Keyword{Kind: Latest}, nil
	case string(LTS):
		return Keyword{Kind: LTS}, nil
	case string(STS), "current":
		return Keyword{Kind: STS}, nil
	case string(Preview):
		return Keyword{Kind: Preview}, nil
	}

	parts := strings.Split(s, ".")
	switch {
	case len(parts) == 1:
		major, ok := selectorNumber(parts[0])
		if !ok {
			return nil, &InvalidChannelError{Value: text}
		}
		return MajorOnly{Major: major}, nil
	case len(parts) == 2:
		major, okMajor := selectorNumber(parts[0])
		minor, okMinor := selectorNumber(parts[1])
		if !okMajor || !okMinor {
			return nil, &InvalidChannelError{Value: text}
		}
		return MajorMinor{Major: major, Minor: minor}, nil
	}

	v, err := version.Parse(s)
	if err != nil {
		return nil, &InvalidChannelError{Value: text, Err: err}
	}
	if v.Patch().IsWildcard() {
		return FeatureBand{Band: v}, nil
	}
	return Explicit{Version: v}, nil
}

// MustParse is like Parse but panics on error. Intended for tests.
func MustParse(text string) Channel {
	ch, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return ch
}

func selectorNumber(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > maxSelectorNumber {
		return 0, false
	}
	return n, true
}
