// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"iter"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/fspath"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

// ErrInvalidRecord is the sentinel error wrapped by InvalidRecordError.
var ErrInvalidRecord = errors.New("invalid install record")

type (
	// Record is one committed installation. It is created once and never
	// modified.
	Record struct {
		ID          uuid.UUID         `json:"id"`
		InstallRoot types.InstallRoot `json:"install_root"`
		Component   types.Component   `json:"component"`
		Version     version.Version   `json:"version"`
		Scope       types.Scope       `json:"scope"`
		InstalledAt time.Time         `json:"installed_at"`
	}

	// InvalidRecordError collects the field errors of a Record.
	InvalidRecordError struct {
		FieldErrors []error
	}

	// Filter selects records. A nil Filter matches everything.
	Filter func(Record) bool
)

// Error implements the error interface.
func (e *InvalidRecordError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid install record: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidRecord for errors.Is() compatibility.
func (e *InvalidRecordError) Unwrap() error { return ErrInvalidRecord }

// NewRecord creates a validated record with a fresh identifier.
func NewRecord(root types.InstallRoot, c types.Component, v version.Version, scope types.Scope, at time.Time) (Record, error) {
	r := Record{
		ID:          uuid.New(),
		InstallRoot: root,
		Component:   c,
		Version:     v,
		Scope:       scope,
		InstalledAt: at.UTC(),
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Validate checks every field. The version must be concrete.
func (r Record) Validate() error {
	var errs []error
	if r.ID == uuid.Nil {
		errs = append(errs, errors.New("missing id"))
	}
	if err := r.InstallRoot.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := r.Component.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !r.Version.IsConcrete() {
		errs = append(errs, fmt.Errorf("version %s is not concrete", r.Version))
	}
	if err := r.Scope.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidRecordError{FieldErrors: errs}
	}
	return nil
}

// Matches reports whether r describes (root, c, v). Roots compare by
// normalized path and architecture; versions compare with version.Compare.
func (r Record) Matches(root types.InstallRoot, c types.Component, v version.Version) bool {
	return r.Component == c && r.Version.Equal(v) && sameRoot(r.InstallRoot, root, runtime.GOOS)
}

// All matches every record.
func All() Filter { return nil }

// ByRoot matches records installed into root.
func ByRoot(root types.InstallRoot) Filter {
	return func(r Record) bool { return sameRoot(r.InstallRoot, root, runtime.GOOS) }
}

// ByComponent matches records of component c.
func ByComponent(c types.Component) Filter {
	return func(r Record) bool { return r.Component == c }
}

// And matches records accepted by every filter.
func And(filters ...Filter) Filter {
	return func(r Record) bool {
		for _, f := range filters {
			if f != nil && !f(r) {
				return false
			}
		}
		return true
	}
}

// Match applies the filter, treating nil as All.
func (f Filter) Match(r Record) bool { return f == nil || f(r) }

func sameRoot(a, b types.InstallRoot, goos string) bool {
	return a.Architecture == b.Architecture &&
		fspath.Normalize(a.Path, goos) == fspath.Normalize(b.Path, goos)
}

// Manifest is an immutable snapshot of the persisted records, in commit order.
type Manifest struct {
	records []Record
}

// Len returns the number of records.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.records)
}

// Records yields the records accepted by f. The sequence can be ranged
// over any number of times.
func (m *Manifest) Records(f Filter) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if m == nil {
			return
		}
		for _, r := range m.records {
			if f.Match(r) && !yield(r) {
				return
			}
		}
	}
}

// Contains reports whether a record for (root, c, v) exists.
func (m *Manifest) Contains(root types.InstallRoot, c types.Component, v version.Version) bool {
	_, ok := m.Find(root, c, v)
	return ok
}

// Find returns the record for (root, c, v), if any.
func (m *Manifest) Find(root types.InstallRoot, c types.Component, v version.Version) (Record, bool) {
	for r := range m.Records(All()) {
		if r.Matches(root, c, v) {
			return r, true
		}
	}
	return Record{}, false
}
