// SPDX-License-Identifier: MPL-2.0

package releases

import (
	"cmp"
	"context"
	"iter"
	"slices"

	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

type (
	// Entry is one published (component, version) pair.
	Entry struct {
		Component  types.Component
		Version    version.Version
		Prerelease bool
		LTS        bool
	}

	// Index is an immutable set of entries. Iteration order is stable:
	// entries are kept sorted by component, then descending version.
	Index struct {
		entries []Entry
	}

	// Provider supplies a release index. Implementations may hit the
	// network, a cache, or a local file.
	Provider interface {
		Index(ctx context.Context) (*Index, error)
	}

	// ProviderFunc adapts a function to the Provider interface.
	ProviderFunc func(ctx context.Context) (*Index, error)
)

// Index implements Provider.
func (f ProviderFunc) Index(ctx context.Context) (*Index, error) { return f(ctx) }

// NewIndex builds an index from entries. Duplicate (component, version)
// pairs collapse to the first occurrence; wildcard versions are dropped
// because they can never be installed.
func NewIndex(entries ...Entry) *Index {
	out := make([]Entry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.Version.IsConcrete() {
			continue
		}
		key := string(e.Component) + "/" + e.Version.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.Component, b.Component),
			version.Compare(b.Version, a.Version),
			cmp.Compare(a.Version.String(), b.Version.String()),
		)
	})
	return &Index{entries: out}
}

// Len returns the number of entries.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.entries)
}

// All yields every entry.
func (x *Index) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if x == nil {
			return
		}
		for _, e := range x.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// ForComponent yields the entries of one component, newest first.
func (x *Index) ForComponent(c types.Component) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for e := range x.All() {
			if e.Component == c && !yield(e) {
				return
			}
		}
	}
}

// Lookup returns the entry for an exact component and version. Build
// metadata is ignored, matching version.Compare.
func (x *Index) Lookup(c types.Component, v version.Version) (Entry, bool) {
	for e := range x.ForComponent(c) {
		if e.Version.Equal(v) {
			return e, true
		}
	}
	return Entry{}, false
}
