// SPDX-License-Identifier: MPL-2.0

// Package pin reads and writes dotnetup.toml, the project file that fixes
// which channels 'dotnetup install' uses when none is given:
//
//	[sdk]
//	channel = "9.0.1xx"
//
//	[[runtime]]
//	channel = "8.0"
//	component = "aspnetcore"
package pin

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dotnet/sdk-sub056/internal/channel"
	"github.com/dotnet/sdk-sub056/pkg/types"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the pin file looked up from the working directory upwards.
const FileName = "dotnetup.toml"

var (
	// ErrNotFound is returned by Find when no pin file exists up to the
	// filesystem root.
	ErrNotFound = errors.New("no " + FileName + " found")
	// ErrInvalidPin is the sentinel error wrapped by InvalidPinError.
	ErrInvalidPin = errors.New("invalid pin file")
)

type (
	// File is the on-disk shape of dotnetup.toml.
	File struct {
		SDK      *Entry  `toml:"sdk,omitempty"`
		Runtimes []Entry `toml:"runtime,omitempty"`
	}

	// Entry pins one component to a channel. Component is only meaningful
	// in [[runtime]] tables and defaults to "runtime" there.
	Entry struct {
		Channel   string `toml:"channel"`
		Component string `toml:"component,omitempty"`
	}

	// Request is a validated pin entry.
	Request struct {
		Channel   channel.Channel
		Component types.Component
	}

	// InvalidPinError reports a pin file that parsed but failed validation,
	// or failed to parse. It wraps ErrInvalidPin and the cause.
	InvalidPinError struct {
		Source string
		Err    error
	}
)

// Error implements the error interface.
func (e *InvalidPinError) Error() string {
	return fmt.Sprintf("invalid pin file %s: %v", e.Source, e.Err)
}

// Unwrap returns ErrInvalidPin and the cause.
func (e *InvalidPinError) Unwrap() []error { return []error{ErrInvalidPin, e.Err} }

// Find returns the path of the nearest dotnetup.toml in dir or one of its
// parents.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && info.Mode().IsRegular():
			return candidate, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load reads and validates the pin file at path.
func Load(path string) ([]Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse decodes data and returns its requests, SDK first.
func Parse(data []byte, source string) ([]Request, error) {
	f, err := Decode(data, source)
	if err != nil {
		return nil, err
	}
	reqs, err := f.Requests()
	if err != nil {
		return nil, &InvalidPinError{Source: source, Err: err}
	}
	return reqs, nil
}

// Read decodes the pin file at path without validating its entries.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, path)
}

// Decode parses data into a File. Unknown keys are rejected; entries are
// not validated.
func Decode(data []byte, source string) (*File, error) {
	var f File
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, &InvalidPinError{Source: source, Err: err}
	}
	return &f, nil
}

// Set pins c to ch, replacing an existing entry for the same component.
func (f *File) Set(c types.Component, ch channel.Channel) {
	entry := Entry{Channel: ch.String()}
	if c == types.ComponentSDK {
		f.SDK = &entry
		return
	}
	if c != types.ComponentRuntime {
		entry.Component = string(c)
	}
	for i, e := range f.Runtimes {
		if cmp.Or(e.Component, string(types.ComponentRuntime)) == string(c) {
			f.Runtimes[i] = entry
			return
		}
	}
	f.Runtimes = append(f.Runtimes, entry)
}

// Requests validates f and converts it to install requests.
func (f *File) Requests() ([]Request, error) {
	var reqs []Request
	if f.SDK != nil {
		if f.SDK.Component != "" && f.SDK.Component != string(types.ComponentSDK) {
			return nil, fmt.Errorf("sdk: component must be omitted or %q, got %q", types.ComponentSDK, f.SDK.Component)
		}
		ch, err := channel.Parse(f.SDK.Channel)
		if err != nil {
			return nil, fmt.Errorf("sdk: %w", err)
		}
		reqs = append(reqs, Request{Channel: ch, Component: types.ComponentSDK})
	}
	for i, e := range f.Runtimes {
		c := types.ComponentRuntime
		if e.Component != "" {
			parsed, err := types.ParseComponent(e.Component)
			if err != nil {
				return nil, fmt.Errorf("runtime[%d]: %w", i, err)
			}
			if parsed == types.ComponentSDK {
				return nil, fmt.Errorf("runtime[%d]: use the [sdk] table for SDKs", i)
			}
			c = parsed
		}
		ch, err := channel.Parse(e.Channel)
		if err != nil {
			return nil, fmt.Errorf("runtime[%d]: %w", i, err)
		}
		reqs = append(reqs, Request{Channel: ch, Component: c})
	}
	if len(reqs) == 0 {
		return nil, errors.New("no [sdk] or [[runtime]] entries")
	}
	return reqs, nil
}

// Save writes f to path after validating it.
func Save(path string, f *File) error {
	if _, err := f.Requests(); err != nil {
		return &InvalidPinError{Source: path, Err: err}
	}
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}
