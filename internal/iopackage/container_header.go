// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package iopackage

import (
	"bytes"
	"fmt"
	"math"

	"github.com/bpowers/tocmaker/internal/binio"
)

// StoreEntrySize is the serialized width of one package store entry.
const StoreEntrySize = 32

// importsViewOffset is where the imported-packages array view sits inside
// a store entry; its data offset is relative to this position.
const importsViewOffset = 24

type headerPackage struct {
	id      uint64
	size    uint64
	path    string
	summary Summary
}

// ContainerHeaderBuilder collects the package summaries of a container and
// serializes them as its container header chunk.
type ContainerHeaderBuilder struct {
	containerID uint64
	packages    []headerPackage
	byID        map[uint64]int
}

func NewContainerHeaderBuilder(containerID uint64) *ContainerHeaderBuilder {
	return &ContainerHeaderBuilder{
		containerID: containerID,
		byID:        make(map[uint64]int),
	}
}

// Add records the package with the given id.  If a package with the same
// id was already added, the first one is kept, nothing is recorded and
// the earlier package's path is returned with ok set to false.
func (b *ContainerHeaderBuilder) Add(packageID, size uint64, path string, s Summary) (prevPath string, ok bool) {
	if i, dup := b.byID[packageID]; dup {
		return b.packages[i].path, false
	}
	b.byID[packageID] = len(b.packages)
	b.packages = append(b.packages, headerPackage{id: packageID, size: size, path: path, summary: s})
	return "", true
}

// Len returns the number of packages added.
func (b *ContainerHeaderBuilder) Len() int {
	return len(b.packages)
}

// Bytes serializes the container header.
func (b *ContainerHeaderBuilder) Bytes() ([]byte, error) {
	entries, err := b.storeEntries()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.U64(b.containerID)
	w.U32(uint32(len(b.packages)))
	// names and name hashes are only present in containers with a
	// global name map; ours always reference the package's own
	w.Count(0)
	w.Count(0)
	w.Count(len(b.packages))
	for _, p := range b.packages {
		w.U64(p.id)
	}
	w.Count(len(entries))
	w.Bytes(entries)
	w.Count(0) // culture package map
	w.Count(0) // package redirects
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("container header: %w", err)
	}
	return buf.Bytes(), nil
}

// storeEntries lays out the fixed-size entries followed by every
// package's imported ids.
func (b *ContainerHeaderBuilder) storeEntries() ([]byte, error) {
	fixed := len(b.packages) * StoreEntrySize
	total := fixed
	for _, p := range b.packages {
		total += 8 * len(p.summary.ImportedPackages)
	}
	if total > math.MaxInt32 {
		return nil, fmt.Errorf("store entries of %d bytes overflow int32", total)
	}

	var buf bytes.Buffer
	buf.Grow(total)
	w := binio.NewWriter(&buf)
	data := fixed
	for i, p := range b.packages {
		s := p.summary
		w.U64(p.size)
		w.I32(s.ExportCount)
		w.I32(s.BundleCount)
		w.U32(0) // load order
		w.U32(0) // pad
		w.U32(uint32(len(s.ImportedPackages)))
		if len(s.ImportedPackages) == 0 {
			w.U32(0)
		} else {
			w.U32(uint32(data - (i*StoreEntrySize + importsViewOffset)))
		}
		data += 8 * len(s.ImportedPackages)
	}
	for _, p := range b.packages {
		for _, id := range p.summary.ImportedPackages {
			w.U64(id)
		}
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
