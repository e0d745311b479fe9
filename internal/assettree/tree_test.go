// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package assettree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_AppendOrder(t *testing.T) {
	tree := New()
	require.Equal(t, 1, tree.NumDirs())
	assert.Equal(t, "", tree.Dir(Root).Name)
	assert.Equal(t, NoDir, tree.Dir(Root).Parent)

	content := tree.AddDirectory(Root, "Content")
	maps := tree.AddDirectory(content, "Maps")
	ui := tree.AddDirectory(content, "UI")
	audio := tree.AddDirectory(content, "Audio")

	assert.Equal(t, []DirID{content}, tree.Children(Root))
	assert.Equal(t, []DirID{maps, ui, audio}, tree.Children(content))
	assert.Equal(t, content, tree.Dir(maps).Parent)

	a := tree.AddFile(maps, "A.umap", 10, "/src/A.umap")
	b := tree.AddFile(maps, "B.uasset", 20, "/src/B.uasset")
	c := tree.AddFile(maps, "C.ubulk", 0, "/src/C.ubulk")
	assert.Equal(t, []FileID{a, b, c}, tree.Files(maps))
	assert.Empty(t, tree.Files(ui))
	assert.Equal(t, NoFile, tree.File(c).Next)
	assert.Equal(t, uint64(20), tree.File(b).Size)
}

func TestTree_HashPath(t *testing.T) {
	tree := New()
	game := tree.AddDirectory(Root, "Game")
	content := tree.AddDirectory(game, "Content")
	maps := tree.AddDirectory(content, "Maps")

	assert.Equal(t, "", tree.HashPath(Root))
	assert.Equal(t, "Game/", tree.HashPath(game))
	assert.Equal(t, "Game/Content/Maps/", tree.HashPath(maps))
}

func TestTree_SiblingSetTwicePanics(t *testing.T) {
	tree := New()
	a := tree.AddDirectory(Root, "A")
	b := tree.AddDirectory(Root, "B")
	// corrupt the tail so the next append finds its link already set
	tree.dirs[b].NextSibling = a
	assert.PanicsWithValue(t, `invariant broken: sibling of directory "B" already set`, func() {
		tree.AddDirectory(Root, "C")
	})

	f := tree.AddFile(a, "X.uasset", 1, "x")
	tree.files[f].Next = f
	assert.Panics(t, func() {
		tree.AddFile(a, "Y.uasset", 1, "y")
	})
}

func TestTree_BadParentPanics(t *testing.T) {
	tree := New()
	assert.Panics(t, func() { tree.AddDirectory(7, "nope") })
	assert.Panics(t, func() { tree.AddFile(NoDir, "x.uasset", 0, "") })
}
