// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package flatten

import (
	"errors"
	"fmt"

	"github.com/bpowers/tocmaker/internal/bitset"
)

var ErrInvalidTables = errors.New("inconsistent directory index tables")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTables, fmt.Sprintf(format, args...))
}

// Validate checks that every directory and file is reachable exactly once
// from directory 0, that UserData and Order are inverse permutations, and
// that every name index is in range.
func (t *Tables) Validate() error {
	if len(t.Directories) == 0 {
		return invalid("no root directory")
	}
	if t.Directories[0].Name != Sentinel {
		return invalid("root directory is named")
	}
	if len(t.Order) != len(t.Files) {
		return invalid("order has %d entries for %d files", len(t.Order), len(t.Files))
	}

	dirs := bitset.New(len(t.Directories))
	files := bitset.New(len(t.Files))
	stack := []uint32{0}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !dirs.Visit(int(d)) {
			return invalid("directory %d is out of range or reached twice", d)
		}
		dir := t.Directories[d]
		if d != 0 && int(dir.Name) >= len(t.Names) {
			return invalid("directory %d name %d out of range", d, dir.Name)
		}
		for f := dir.FirstFile; f != Sentinel; f = t.Files[f].NextFile {
			if !files.Visit(int(f)) {
				return invalid("file %d is out of range or reached twice", f)
			}
			if int(t.Files[f].Name) >= len(t.Names) {
				return invalid("file %d name %d out of range", f, t.Files[f].Name)
			}
		}
		if dir.NextSibling != Sentinel {
			stack = append(stack, dir.NextSibling)
		}
		if dir.FirstChild != Sentinel {
			stack = append(stack, dir.FirstChild)
		}
	}
	if d := dirs.FirstClear(); d >= 0 {
		return invalid("directory %d is unreachable", d)
	}
	if f := files.FirstClear(); f >= 0 {
		return invalid("file %d is unreachable", f)
	}

	emitted := bitset.New(len(t.Files))
	for i := range t.Files {
		k := t.Files[i].UserData
		if !emitted.Visit(int(k)) {
			return invalid("file %d user data %d is out of range or duplicated", i, k)
		}
		if t.Order[k] != uint32(i) {
			return invalid("order[%d] is %d, want %d", k, t.Order[k], i)
		}
	}
	return nil
}
