// SPDX-License-Identifier: MPL-2.0

package validate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/platform"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

const (
	stampFile = ".version"
	sdkEntry  = "dotnet.dll"

	// maxStampBytes bounds the .version read; real stamps are two short lines.
	maxStampBytes = 4 << 10
)

// ErrValidationFailed is the sentinel error wrapped by Error.
var ErrValidationFailed = errors.New("install validation failed")

type (
	// Validator checks install trees laid out for one operating system.
	Validator struct {
		goos string
	}

	// Error lists every problem found in one tree.
	Error struct {
		Root      string
		Component types.Component
		Version   version.Version
		Problems  []string
	}
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s in %s is not a valid install: %s",
		e.Component, e.Version, e.Root, strings.Join(e.Problems, "; "))
}

// Unwrap returns ErrValidationFailed for errors.Is() compatibility.
func (e *Error) Unwrap() error { return ErrValidationFailed }

// New returns a Validator for the running OS.
func New() *Validator { return NewForOS(runtime.GOOS) }

// NewForOS returns a Validator for the layout published for goos.
func NewForOS(goos string) *Validator { return &Validator{goos: goos} }

// Validate checks the tree at root using the running OS layout.
func Validate(root string, c types.Component, v version.Version) error {
	return New().Validate(root, c, v)
}

// Validate checks that root holds the host executable and the
// version-stamped directory of c at v. The returned error is an *Error
// listing every missing or mismatched marker.
func (val *Validator) Validate(root string, c types.Component, v version.Version) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !v.IsConcrete() {
		return &Error{Root: root, Component: c, Version: v, Problems: []string{"version is not concrete"}}
	}

	var problems []string
	check := func(p string) {
		if p != "" {
			problems = append(problems, p)
		}
	}

	check(expectFile(filepath.Join(root, platform.DotnetHostName(val.goos))))

	for _, dir := range markerDirs(c, v) {
		full := filepath.Join(root, dir)
		if p := expectDir(full); p != "" {
			problems = append(problems, p)
			continue
		}
		check(expectStamp(filepath.Join(full, stampFile), v))
		if c == types.ComponentSDK {
			check(expectFile(filepath.Join(full, sdkEntry)))
		}
	}

	if len(problems) > 0 {
		return &Error{Root: root, Component: c, Version: v, Problems: problems}
	}
	return nil
}

// markerDirs returns the version-stamped directories c installs, relative
// to the root.
func markerDirs(c types.Component, v version.Version) []string {
	if fw, ok := c.SharedFramework(); ok {
		return []string{filepath.Join("shared", fw, v.String())}
	}
	return []string{filepath.Join("sdk", v.String())}
}

func expectFile(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "missing " + filepath.Base(path)
	case err != nil:
		return fmt.Sprintf("cannot stat %s: %v", path, err)
	case !info.Mode().IsRegular():
		return filepath.Base(path) + " is not a regular file"
	}
	return ""
}

func expectDir(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "missing directory " + filepath.ToSlash(path)
	case err != nil:
		return fmt.Sprintf("cannot stat %s: %v", path, err)
	case !info.IsDir():
		return filepath.ToSlash(path) + " is not a directory"
	}
	return ""
}

// expectStamp checks a .version file: a commit hash line followed by the
// version line. Build metadata on either side is ignored.
func expectStamp(path string, want version.Version) string {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "missing " + filepath.ToSlash(path)
	}
	if err != nil {
		return fmt.Sprintf("cannot read %s: %v", path, err)
	}
	defer func() { _ = f.Close() }() // read-only

	sc := bufio.NewScanner(io.LimitReader(f, maxStampBytes))
	var lines []string
	for sc.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if len(lines) < 2 {
		return filepath.Base(path) + " has no version line"
	}
	got, err := version.Parse(lines[1])
	if err != nil {
		return fmt.Sprintf("%s: %v", filepath.Base(path), err)
	}
	if !got.Equal(want) {
		return fmt.Sprintf("%s stamps %s, want %s", filepath.Base(path), got, want)
	}
	return ""
}
