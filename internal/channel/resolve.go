// SPDX-License-Identifier: MPL-2.0

package channel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dotnet/sdk-sub056/internal/releases"
	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

const (
	// PolicyRequireListed accepts an explicit version only when the index
	// lists it for the requested component.
	PolicyRequireListed ExplicitPolicy = "require-listed"
	// PolicyAcceptUnlisted accepts any well-formed explicit version without
	// consulting the index.
	PolicyAcceptUnlisted ExplicitPolicy = "accept-unlisted"
)

var (
	// ErrChannelUnresolvable is the sentinel error wrapped by UnresolvableError.
	ErrChannelUnresolvable = errors.New("channel unresolvable")
	// ErrInvalidExplicitPolicy is the sentinel error wrapped by InvalidExplicitPolicyError.
	ErrInvalidExplicitPolicy = errors.New("invalid explicit policy")
)

type (
	// ExplicitPolicy decides how Explicit channels are checked.
	ExplicitPolicy string

	// InvalidExplicitPolicyError is returned when an ExplicitPolicy value is
	// not recognized.
	InvalidExplicitPolicyError struct {
		Value ExplicitPolicy
	}

	// UnresolvableError reports that no index entry satisfies a channel.
	UnresolvableError struct {
		Channel   string
		Component types.Component
	}

	// Resolver resolves channels against an index. The zero value uses
	// PolicyRequireListed.
	Resolver struct {
		policy ExplicitPolicy
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// Error implements the error interface.
func (e *InvalidExplicitPolicyError) Error() string {
	return fmt.Sprintf("invalid explicit policy %q (valid: %s, %s)", e.Value, PolicyRequireListed, PolicyAcceptUnlisted)
}

// Unwrap returns ErrInvalidExplicitPolicy for errors.Is() compatibility.
func (e *InvalidExplicitPolicyError) Unwrap() error { return ErrInvalidExplicitPolicy }

// Validate returns an error if the policy is not one of the known values.
func (p ExplicitPolicy) Validate() error {
	switch p {
	case PolicyRequireListed, PolicyAcceptUnlisted:
		return nil
	}
	return &InvalidExplicitPolicyError{Value: p}
}

// String returns the string representation of the policy.
func (p ExplicitPolicy) String() string { return string(p) }

// ParseExplicitPolicy converts a configuration value into an ExplicitPolicy.
// The empty string selects the default.
func ParseExplicitPolicy(s string) (ExplicitPolicy, error) {
	p := ExplicitPolicy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PolicyRequireListed, nil
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Error implements the error interface.
func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("no %s release matches channel %q", e.Component, e.Channel)
}

// Unwrap returns ErrChannelUnresolvable for errors.Is() compatibility.
func (e *UnresolvableError) Unwrap() error { return ErrChannelUnresolvable }

// WithExplicitPolicy sets how Explicit channels are checked.
func WithExplicitPolicy(p ExplicitPolicy) Option {
	return func(r *Resolver) {
		r.policy = p
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{policy: PolicyRequireListed}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the explicit-version policy in effect.
func (r *Resolver) Policy() ExplicitPolicy {
	if r == nil || r.policy == "" {
		return PolicyRequireListed
	}
	return r.policy
}

// ResolveString parses text and resolves it.
func (r *Resolver) ResolveString(text string, c types.Component, idx *releases.Index) (version.Version, error) {
	ch, err := Parse(text)
	if err != nil {
		return version.Version{}, err
	}
	return r.Resolve(ch, c, idx)
}

// Resolve returns the single concrete version selected by ch for component
// c. The index is only read. Results are deterministic for an unchanged index.
func (r *Resolver) Resolve(ch Channel, c types.Component, idx *releases.Index) (version.Version, error) {
	var match func(releases.Entry) bool

	switch ch := ch.(type) {
	case Explicit:
		if !ch.Version.IsConcrete() {
			return version.Version{}, &UnresolvableError{Channel: ch.String(), Component: c}
		}
		if r.Policy() == PolicyAcceptUnlisted {
			return ch.Version, nil
		}
		e, ok := idx.Lookup(c, ch.Version)
		if !ok {
			return version.Version{}, &UnresolvableError{Channel: ch.String(), Component: c}
		}
		return e.Version, nil
	case MajorOnly:
		match = func(e releases.Entry) bool {
			return !e.Prerelease && e.Version.Major() == ch.Major
		}
	case MajorMinor:
		match = func(e releases.Entry) bool {
			return !e.Prerelease && e.Version.Major() == ch.Major && e.Version.Minor() == ch.Minor
		}
	case FeatureBand:
		band := ch.Band
		match = func(e releases.Entry) bool {
			n, ok := e.Version.Patch().Value()
			return ok && e.Version.Major() == band.Major() && e.Version.Minor() == band.Minor() &&
				band.Patch().Contains(n)
		}
	case Keyword:
		switch ch.Kind {
		case Latest:
			match = func(e releases.Entry) bool { return !e.Prerelease }
		case LTS:
			match = func(e releases.Entry) bool {
				return !e.Prerelease && e.LTS && e.Version.Major()%2 == 0
			}
		case STS:
			match = func(e releases.Entry) bool {
				return !e.Prerelease && !e.LTS && e.Version.Major()%2 == 1
			}
		case Preview:
			match = func(e releases.Entry) bool { return e.Prerelease }
		default:
			return version.Version{}, &InvalidChannelError{Value: string(ch.Kind)}
		}
	default:
		return version.Version{}, fmt.Errorf("unsupported channel type %T", ch)
	}

	best, ok := maxMatching(idx, c, match)
	if !ok {
		return version.Version{}, &UnresolvableError{Channel: ch.String(), Component: c}
	}
	return best, nil
}

// maxMatching returns the greatest matching version. Versions equal under
// version.Compare (differing only in build metadata) tie-break on their
// canonical string so the answer never depends on index order.
func maxMatching(idx *releases.Index, c types.Component, match func(releases.Entry) bool) (version.Version, bool) {
	var (
		best  version.Version
		found bool
	)
	for e := range idx.ForComponent(c) {
		if !match(e) {
			continue
		}
		switch cmp := version.Compare(e.Version, best); {
		case !found, cmp > 0, cmp == 0 && e.Version.String() > best.String():
			best, found = e.Version, true
		}
	}
	return best, found
}
