// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package assettree holds the in-memory directory/file hierarchy of a
// cooked asset tree.  Nodes live in two arena tables and reference each
// other by index; a directory owns its child and file chains through
// first/next links and keeps a plain index back to its parent for path
// reconstruction.
package assettree

import (
	"fmt"
	"strings"
)

// DirID addresses a Directory in a Tree.
type DirID int32

// FileID addresses a File in a Tree.
type FileID int32

const (
	NoDir  DirID  = -1
	NoFile FileID = -1

	// Root is the nameless root directory every Tree starts with.
	Root DirID = 0
)

type Directory struct {
	// Name is the leaf name; empty only for the root.
	Name        string
	Parent      DirID
	FirstChild  DirID
	NextSibling DirID
	FirstFile   FileID

	lastChild DirID
	lastFile  FileID
}

type File struct {
	Name string
	Size uint64
	// Path is the absolute source path the payload is read from.
	Path string
	Next FileID
}

// Tree is an arena of directories and files.  It is built once and then
// only read, so it needs no locking.
type Tree struct {
	dirs  []Directory
	files []File
}

// New returns a Tree containing only the root directory.
func New() *Tree {
	t := &Tree{}
	t.dirs = append(t.dirs, newDirectory("", NoDir))
	return t
}

func newDirectory(name string, parent DirID) Directory {
	return Directory{
		Name:        name,
		Parent:      parent,
		FirstChild:  NoDir,
		NextSibling: NoDir,
		FirstFile:   NoFile,
		lastChild:   NoDir,
		lastFile:    NoFile,
	}
}

func (t *Tree) NumDirs() int {
	return len(t.dirs)
}

func (t *Tree) NumFiles() int {
	return len(t.files)
}

// Dir returns the directory with the given id.  The returned value is a
// copy; mutate the tree through AddDirectory and AddFile.
func (t *Tree) Dir(id DirID) Directory {
	return t.dirs[id]
}

func (t *Tree) File(id FileID) File {
	return t.files[id]
}

// AddDirectory creates a directory named name and appends it as the last
// child of parent.
func (t *Tree) AddDirectory(parent DirID, name string) DirID {
	id := t.allocDirectory(parent, name)
	t.linkDirectory(id)
	return id
}

// allocDirectory appends an unlinked directory node.
func (t *Tree) allocDirectory(parent DirID, name string) DirID {
	if parent < 0 || int(parent) >= len(t.dirs) {
		panic(fmt.Sprintf("invariant broken: parent %d out of range", parent))
	}
	id := DirID(len(t.dirs))
	t.dirs = append(t.dirs, newDirectory(name, parent))
	return id
}

// linkDirectory appends an allocated directory to its parent's child chain.
func (t *Tree) linkDirectory(id DirID) {
	parent := &t.dirs[t.dirs[id].Parent]
	if parent.lastChild == NoDir {
		parent.FirstChild = id
	} else {
		prev := &t.dirs[parent.lastChild]
		if prev.NextSibling != NoDir {
			panic(fmt.Sprintf("invariant broken: sibling of directory %q already set", prev.Name))
		}
		prev.NextSibling = id
	}
	parent.lastChild = id
}

// truncateDirs drops every directory at or after id.  Only valid for
// nodes that were allocated but never linked, along with their subtrees.
func (t *Tree) truncateDirs(id DirID) {
	t.dirs = t.dirs[:id]
}

// AddFile appends a file as the last entry in dir's file chain.
func (t *Tree) AddFile(dir DirID, name string, size uint64, path string) FileID {
	if dir < 0 || int(dir) >= len(t.dirs) {
		panic(fmt.Sprintf("invariant broken: directory %d out of range", dir))
	}
	id := FileID(len(t.files))
	t.files = append(t.files, File{Name: name, Size: size, Path: path, Next: NoFile})
	d := &t.dirs[dir]
	if d.lastFile == NoFile {
		d.FirstFile = id
	} else {
		prev := &t.files[d.lastFile]
		if prev.Next != NoFile {
			panic(fmt.Sprintf("invariant broken: next of file %q already set", prev.Name))
		}
		prev.Next = id
	}
	d.lastFile = id
	return id
}

// HashPath joins the non-root names from the root down to id with "/",
// with a trailing "/".  The root's hash path is empty.
func (t *Tree) HashPath(id DirID) string {
	var names []string
	for ; id != NoDir; id = t.dirs[id].Parent {
		if t.dirs[id].Parent == NoDir {
			break
		}
		names = append(names, t.dirs[id].Name)
	}
	if len(names) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		sb.WriteString(names[i])
		sb.WriteByte('/')
	}
	return sb.String()
}

// Files returns the ids of dir's files in chain order.
func (t *Tree) Files(dir DirID) []FileID {
	var ids []FileID
	for f := t.dirs[dir].FirstFile; f != NoFile; f = t.files[f].Next {
		ids = append(ids, f)
	}
	return ids
}

// Children returns the ids of dir's child directories in chain order.
func (t *Tree) Children(dir DirID) []DirID {
	var ids []DirID
	for c := t.dirs[dir].FirstChild; c != NoDir; c = t.dirs[c].NextSibling {
		ids = append(ids, c)
	}
	return ids
}
