// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap provides read-only access to the full contents of a source
// file, memory mapped where the platform supports it.
package mmap

import (
	"fmt"
	"os"
)

// ReaderAt holds the contents of a file.  Data is valid until Close.
type ReaderAt struct {
	data   []byte
	unmap  func([]byte) error
	closed bool
}

// Open maps the file at path.
func Open(path string) (*ReaderAt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := fi.Size()
	if size < 0 || size != int64(int(size)) {
		return nil, fmt.Errorf("file %s of %d bytes is too large to map", path, size)
	}
	if size == 0 {
		// mapping zero bytes is an error on most platforms
		return &ReaderAt{}, nil
	}
	return mapFile(f, int(size))
}

// Len returns the number of mapped bytes.
func (r *ReaderAt) Len() int {
	return len(r.data)
}

// Data returns the mapped bytes.  The slice must not be written to or
// retained past Close.
func (r *ReaderAt) Data() []byte {
	return r.data
}

// Close unmaps the file.  It is safe to call more than once.
func (r *ReaderAt) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	data := r.data
	r.data = nil
	if r.unmap == nil || data == nil {
		return nil
	}
	if err := r.unmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
