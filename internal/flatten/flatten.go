// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package flatten converts an asset tree into the position-addressed
// directory, file and name tables of the container's directory index.
//
// Directories are emitted depth first: a directory's slot is reserved
// before its files, its files come before its first child's subtree, and
// that subtree comes before the next sibling.  Forward links are patched
// by slot index once the target is known.
package flatten

import (
	"fmt"
	"math"
	"sort"

	"github.com/bpowers/tocmaker/internal/assettree"
	"github.com/bpowers/tocmaker/internal/iostore"
)

// Sentinel marks an absent link and the root directory's name.
const Sentinel = math.MaxUint32

type DirectoryEntry struct {
	Name        uint32
	FirstChild  uint32
	NextSibling uint32
	FirstFile   uint32
}

type FileEntry struct {
	Name     uint32
	NextFile uint32
	// UserData is the file's position in the payload emission order.
	UserData uint32

	Size       uint64
	SourcePath string
	ChunkID    iostore.ChunkID

	hashPath string
}

// Tables is the flattened form of a tree.
type Tables struct {
	Directories []DirectoryEntry
	Files       []FileEntry
	Names       []string
	// Order lists file table positions in payload emission order, so
	// Files[Order[k]].UserData == k.
	Order []uint32
}

// Emitted returns the k-th file in emission order.
func (t *Tables) Emitted(k int) *FileEntry {
	return &t.Files[t.Order[k]]
}

// Option configures Flatten.
type Option func(*options)

type options struct {
	sorted bool
}

// WithSortedPayload orders payload emission by parent path, then payload
// kind (export bundles, bulk, optional bulk), then ascending size.  Only
// UserData and Order change; table positions and links are untouched.
func WithSortedPayload(sorted bool) Option {
	return func(opts *options) {
		opts.sorted = sorted
	}
}

type flattener struct {
	tree   *assettree.Tree
	names  Interner
	tables *Tables
}

// Flatten walks t and builds its tables, deriving every file's ChunkID
// from its normalized package path.
func Flatten(t *assettree.Tree, opts ...Option) (*Tables, error) {
	var options options
	for _, opt := range opts {
		opt(&options)
	}

	f := &flattener{
		tree: t,
		tables: &Tables{
			Directories: make([]DirectoryEntry, 0, t.NumDirs()),
			Files:       make([]FileEntry, 0, t.NumFiles()),
		},
	}
	if err := f.flattenChain(assettree.Root); err != nil {
		return nil, err
	}
	f.tables.Names = f.names.Names()

	f.tables.Order = make([]uint32, len(f.tables.Files))
	for i := range f.tables.Order {
		f.tables.Order[i] = uint32(i)
	}
	if options.sorted {
		sortPayload(f.tables)
	}
	return f.tables, nil
}

// flattenChain emits dir and every sibling after it.
func (f *flattener) flattenChain(dir assettree.DirID) error {
	for dir != assettree.NoDir {
		d := f.tree.Dir(dir)
		slot := len(f.tables.Directories)
		name := uint32(Sentinel)
		if dir != assettree.Root {
			name = f.names.Intern(d.Name)
		}
		f.tables.Directories = append(f.tables.Directories, DirectoryEntry{
			Name:        name,
			FirstChild:  Sentinel,
			NextSibling: Sentinel,
			FirstFile:   Sentinel,
		})

		if err := f.flattenFiles(dir, slot); err != nil {
			return err
		}
		if d.FirstChild != assettree.NoDir {
			f.tables.Directories[slot].FirstChild = uint32(len(f.tables.Directories))
			if err := f.flattenChain(d.FirstChild); err != nil {
				return err
			}
		}
		if d.NextSibling != assettree.NoDir {
			f.tables.Directories[slot].NextSibling = uint32(len(f.tables.Directories))
		}
		dir = d.NextSibling
	}
	return nil
}

func (f *flattener) flattenFiles(dir assettree.DirID, slot int) error {
	hashPath := f.tree.HashPath(dir)
	prev := -1
	for id := f.tree.Dir(dir).FirstFile; id != assettree.NoFile; id = f.tree.File(id).Next {
		file := f.tree.File(id)
		chunkID, err := iostore.ChunkIDForFile(hashPath, file.Name)
		if err != nil {
			return fmt.Errorf("flatten %s: %w", file.Path, err)
		}
		pos := len(f.tables.Files)
		if prev < 0 {
			f.tables.Directories[slot].FirstFile = uint32(pos)
		} else {
			f.tables.Files[prev].NextFile = uint32(pos)
		}
		f.tables.Files = append(f.tables.Files, FileEntry{
			Name:       f.names.Intern(file.Name),
			NextFile:   Sentinel,
			UserData:   uint32(pos),
			Size:       file.Size,
			SourcePath: file.Path,
			ChunkID:    chunkID,
			hashPath:   hashPath,
		})
		prev = pos
	}
	return nil
}

func kindRank(t iostore.ChunkType) int {
	switch t {
	case iostore.ChunkExportBundleData:
		return 0
	case iostore.ChunkBulkData:
		return 1
	default:
		return 2
	}
}

func sortPayload(t *Tables) {
	sort.SliceStable(t.Order, func(i, j int) bool {
		a, b := &t.Files[t.Order[i]], &t.Files[t.Order[j]]
		if a.hashPath != b.hashPath {
			return a.hashPath < b.hashPath
		}
		if ra, rb := kindRank(a.ChunkID.Type()), kindRank(b.ChunkID.Type()); ra != rb {
			return ra < rb
		}
		return a.Size < b.Size
	})
	for k, pos := range t.Order {
		t.Files[pos].UserData = uint32(k)
	}
}
