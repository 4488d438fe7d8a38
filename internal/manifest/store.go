// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/platform"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

const (
	// SchemaVersion is the only document version this package reads or writes.
	SchemaVersion = 1

	// maxManifestBytes bounds how much of the file Load will read (64 MB).
	maxManifestBytes = 64 << 20
)

var (
	// ErrManifestCorrupt is the sentinel error wrapped by CorruptError.
	ErrManifestCorrupt = errors.New("manifest corrupt")
	// ErrDuplicateRecord is returned by Store.Record when the manifest
	// already holds a record for the same root, component and version.
	ErrDuplicateRecord = errors.New("install already recorded")
)

type (
	// Store reads and writes the manifest file at one path.
	Store struct {
		path string
	}

	// CorruptError reports a manifest that exists but cannot be trusted.
	CorruptError struct {
		Path   string
		Reason string
		Err    error
	}

	document struct {
		SchemaVersion int      `json:"schema_version"`
		Installs      []Record `json:"installs"`
	}
)

// Error implements the error interface.
func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest %s is corrupt: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("manifest %s is corrupt: %s", e.Path, e.Reason)
}

// Unwrap returns ErrManifestCorrupt and the underlying cause.
func (e *CorruptError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrManifestCorrupt, e.Err}
	}
	return []error{ErrManifestCorrupt}
}

// NewStore returns a Store for the manifest at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the manifest file path.
func (s *Store) Path() string { return s.path }

// Load reads the manifest. A missing file is an empty manifest; anything
// unreadable is a *CorruptError.
func (s *Store) Load() (*Manifest, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, &CorruptError{Path: s.path, Reason: "unreadable", Err: err}
	}
	defer func() { _ = f.Close() }() // read-only

	data, err := io.ReadAll(io.LimitReader(f, maxManifestBytes+1))
	if err != nil {
		return nil, &CorruptError{Path: s.path, Reason: "unreadable", Err: err}
	}
	if len(data) > maxManifestBytes {
		return nil, &CorruptError{Path: s.path, Reason: fmt.Sprintf("larger than %d bytes", maxManifestBytes)}
	}
	return decode(s.path, data)
}

func decode(path string, data []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &CorruptError{Path: path, Reason: "empty file"}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, &CorruptError{Path: path, Reason: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &CorruptError{Path: path, Reason: "trailing data after document"}
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("unsupported schema_version %d", doc.SchemaVersion)}
	}
	for i, r := range doc.Installs {
		if err := r.Validate(); err != nil {
			return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("install %d", i), Err: err}
		}
	}
	return &Manifest{records: doc.Installs}, nil
}

// Contains loads the manifest and reports whether (root, c, v) is recorded.
// The caller must hold the gate if the answer informs a write.
func (s *Store) Contains(root types.InstallRoot, c types.Component, v version.Version) (bool, error) {
	m, err := s.Load()
	if err != nil {
		return false, err
	}
	return m.Contains(root, c, v), nil
}

// List returns the records accepted by f. The manifest is read once; the
// returned sequence filters lazily and may be ranged over repeatedly.
func (s *Store) List(f Filter) (iter.Seq[Record], error) {
	m, err := s.Load()
	if err != nil {
		return nil, err
	}
	return m.Records(f), nil
}

// Record appends rec and persists the manifest atomically. The caller must
// hold the gate.
func (s *Store) Record(rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	m, err := s.Load()
	if err != nil {
		return err
	}
	if m.Contains(rec.InstallRoot, rec.Component, rec.Version) {
		return fmt.Errorf("%w: %s %s in %s", ErrDuplicateRecord, rec.Component, rec.Version, rec.InstallRoot)
	}

	doc := document{
		SchemaVersion: SchemaVersion,
		Installs:      append(append(make([]Record, 0, m.Len()+1), m.records...), rec),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return writeAtomic(s.path, append(data, '\n'))
}

// writeAtomic replaces path with data via a synced temp file and rename,
// then syncs the directory so the rename itself is durable.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil && runtime.GOOS != platform.Windows {
		return fmt.Errorf("setting manifest permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing manifest: %w", err)
	}
	committed = true
	syncDir(dir)
	return nil
}

// syncDir flushes directory metadata. Windows cannot open directories for
// syncing, and the rename is already durable there.
func syncDir(dir string) {
	if runtime.GOOS == platform.Windows {
		return
	}
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
