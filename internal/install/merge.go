// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// merge moves the staged tree into root. Paths that already exist in root
// are kept as they are: the host executable and license files are shared
// by every component installed there. A directory missing from root is
// moved whole. merge returns the paths it created, including on error, so
// the caller can roll them back.
func merge(staging, root string) (created []string, err error) {
	err = filepath.WalkDir(staging, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(staging, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		target := filepath.Join(root, rel)
		if _, err := os.Lstat(target); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := os.Rename(path, target); err != nil {
			return err
		}
		created = append(created, target)
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	return created, err
}

// rollback removes created paths, newest first.
func rollback(created []string) error {
	var errs []error
	for _, p := range slices.Backward(created) {
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
