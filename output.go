// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tocmaker

import (
	"fmt"
	"os"
	"path/filepath"
)

type output struct {
	f    *os.File
	path string
}

// outputs tracks the temporary files of one build.  They live in the
// destination directory so publishing is a rename.
type outputs struct {
	dir   string
	stem  string
	files []*output
}

func newOutputs(stem string) (*outputs, error) {
	stem, err := filepath.Abs(stem)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(stem)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %w", err)
	}
	return &outputs{dir: dir, stem: stem}, nil
}

func (o *outputs) create(ext string) (*os.File, error) {
	f, err := os.CreateTemp(o.dir, filepath.Base(o.stem)+".*"+ext+".tmp")
	if err != nil {
		return nil, fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", o.dir, err)
	}
	o.files = append(o.files, &output{f: f, path: o.stem + ext})
	return f, nil
}

// publish syncs and closes every temporary file, then renames them into
// place read-only.  If any rename fails the ones already renamed are
// removed again.
func (o *outputs) publish() ([]string, error) {
	for _, out := range o.files {
		if err := out.f.Sync(); err != nil {
			return nil, fmt.Errorf("f.Sync: %w", err)
		}
		if err := out.f.Close(); err != nil {
			return nil, fmt.Errorf("f.Close: %w", err)
		}
	}
	var paths []string
	for _, out := range o.files {
		// make the file read-only
		if err := os.Chmod(out.f.Name(), 0o444); err != nil {
			o.unpublish(paths)
			return nil, fmt.Errorf("os.Chmod(0444): %w", err)
		}
		if err := os.Rename(out.f.Name(), out.path); err != nil {
			o.unpublish(paths)
			return nil, fmt.Errorf("os.Rename: %w", err)
		}
		paths = append(paths, out.path)
	}
	o.files = nil
	return paths, nil
}

func (o *outputs) unpublish(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

// abort closes and removes every temporary file that was not published.
func (o *outputs) abort() {
	for _, out := range o.files {
		_ = out.f.Close()
		_ = os.Remove(out.f.Name())
	}
	o.files = nil
}
