// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tocfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tocmaker/internal/assettree"
	"github.com/bpowers/tocmaker/internal/binio"
	"github.com/bpowers/tocmaker/internal/flatten"
	"github.com/bpowers/tocmaker/internal/iostore"
)

// parsed is the decoded form of an index stream.
type parsed struct {
	header   iostore.TocHeader
	chunkIDs [][]byte
	offsets  [][]byte
	blocks   [][]byte
	methods  []string
	mount    string
	dirs     [][4]uint32
	files    [][3]uint32
	names    []string
	metas    [][]byte
	rest     int
}

type reader struct {
	t   *testing.T
	b   []byte
	off int
}

func (r *reader) take(n int) []byte {
	r.t.Helper()
	require.LessOrEqual(r.t, r.off+n, len(r.b), "read past end at %d", r.off)
	out := r.b[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u32() uint32 {
	return binary.LittleEndian.Uint32(r.take(4))
}

func (r *reader) fstring() string {
	n := int32(r.u32())
	switch {
	case n == 0:
		return ""
	case n > 0:
		b := r.take(int(n))
		require.Equal(r.t, byte(0), b[n-1])
		return string(b[:n-1])
	default:
		b := r.take(int(-n) * 2)
		u := make([]uint16, -n-1)
		for i := range u {
			u[i] = binary.LittleEndian.Uint16(b[2*i:])
		}
		return string(utf16.Decode(u))
	}
}

func parse(t *testing.T, b []byte) *parsed {
	r := &reader{t: t, b: b}
	p := &parsed{}
	require.NoError(t, p.header.UnmarshalBytes(r.take(iostore.TocHeaderSize)))
	for i := 0; i < int(p.header.EntryCount); i++ {
		p.chunkIDs = append(p.chunkIDs, r.take(iostore.ChunkIDSize))
	}
	for i := 0; i < int(p.header.EntryCount); i++ {
		p.offsets = append(p.offsets, r.take(iostore.OffsetAndLengthSize))
	}
	for i := 0; i < int(p.header.BlockEntryCount); i++ {
		p.blocks = append(p.blocks, r.take(iostore.CompressedBlockSize))
	}
	for i := 0; i < int(p.header.MethodNameCount); i++ {
		p.methods = append(p.methods, string(bytes.TrimRight(r.take(iostore.MethodNameLength), "\x00")))
	}
	start := r.off
	p.mount = r.fstring()
	for i, n := 0, int(r.u32()); i < n; i++ {
		p.dirs = append(p.dirs, [4]uint32{r.u32(), r.u32(), r.u32(), r.u32()})
	}
	for i, n := 0, int(r.u32()); i < n; i++ {
		p.files = append(p.files, [3]uint32{r.u32(), r.u32(), r.u32()})
	}
	for i, n := 0, int(r.u32()); i < n; i++ {
		p.names = append(p.names, r.fstring())
	}
	require.Equal(t, int(p.header.DirectoryIndexSize), r.off-start)
	for i := 0; i < int(p.header.EntryCount); i++ {
		p.metas = append(p.metas, r.take(iostore.EntryMetaSize))
	}
	p.rest = len(b) - r.off
	return p
}

func sampleTables(t *testing.T, sorted bool) *flatten.Tables {
	tree := assettree.New()
	content := tree.AddDirectory(assettree.Root, "Content")
	tree.AddFile(content, "Foo.ubulk", 50, "foo-bulk")
	tree.AddFile(content, "Foo.uasset", 100, "foo")
	sub := tree.AddDirectory(content, "Ünïcode")
	tree.AddFile(sub, "Bar.ubulk", 0, "bar")
	tables, err := flatten.Flatten(tree, flatten.WithSortedPayload(sorted))
	require.NoError(t, err)
	return tables
}

func sampleTOC(t *testing.T, tables *flatten.Tables, method string) *TOC {
	n := len(tables.Files) + 1
	toc := &TOC{
		ContainerID: 0xfeedface,
		BlockSize:   0x40000,
		MethodName:  method,
		MountPoint:  DefaultMountPoint,
		Tables:      tables,
	}
	for i := 0; i < n; i++ {
		toc.Offsets = append(toc.Offsets, iostore.OffsetAndLength{Offset: uint64(i) * 0x40000, Length: uint64(i + 1)})
		toc.Blocks = append(toc.Blocks, iostore.CompressedBlock{Offset: uint64(i) * 16, CompressedSize: uint32(i + 1), UncompressedSize: uint32(i + 1)})
		var m iostore.EntryMeta
		m.Hash[0] = byte(i + 1)
		toc.Metas = append(toc.Metas, m)
	}
	return toc
}

func TestDirectoryIndexSize(t *testing.T) {
	tables := &flatten.Tables{
		Directories: make([]flatten.DirectoryEntry, 2),
		Files:       make([]flatten.FileEntry, 3),
		Names:       []string{"Content", "A.uasset"},
	}
	want := (4 + 10) + (4 + 2*16) + (4 + 3*12) + 4 + (4 + 8) + (4 + 9)
	assert.Equal(t, uint32(want), DirectoryIndexSize(DefaultMountPoint, tables))

	empty := &flatten.Tables{Directories: make([]flatten.DirectoryEntry, 1)}
	assert.Equal(t, uint32(4+10+4+16+4+4), DirectoryIndexSize(DefaultMountPoint, empty))
	assert.Equal(t, uint32(4+4+16+4+4), DirectoryIndexSize("", empty))
}

func TestWrite_Layout(t *testing.T) {
	tables := sampleTables(t, false)
	toc := sampleTOC(t, tables, "")

	var buf bytes.Buffer
	n, err := Write(&buf, toc)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	p := parse(t, buf.Bytes())
	assert.Zero(t, p.rest)
	assert.Equal(t, uint32(4), p.header.EntryCount)
	assert.Equal(t, uint32(4), p.header.BlockEntryCount)
	assert.Equal(t, uint32(0), p.header.MethodNameCount)
	assert.Equal(t, iostore.ContainerIndexed, p.header.Flags)
	assert.Equal(t, uint32(0x40000), p.header.CompressionBlockSize)
	assert.Equal(t, uint64(0xfeedface), p.header.ContainerID)

	// files in emission order, then the container header chunk
	for i := range tables.Files {
		var want [iostore.ChunkIDSize]byte
		require.NoError(t, tables.Emitted(i).ChunkID.MarshalTo(want[:]))
		assert.Equal(t, want[:], p.chunkIDs[i])
	}
	last := p.chunkIDs[3]
	assert.Equal(t, uint64(0xfeedface), binary.LittleEndian.Uint64(last))
	assert.Equal(t, byte(iostore.ChunkContainerHeader), last[11])

	assert.Equal(t, []byte{0, 0, 0xc, 0, 0, 0, 0, 0, 0, 4}, p.offsets[3])
	assert.Equal(t, DefaultMountPoint, p.mount)
	assert.Equal(t, []string{"Content", "Foo.ubulk", "Foo.uasset", "Ünïcode", "Bar.ubulk"}, p.names)
	require.Len(t, p.dirs, 3)
	assert.Equal(t, [4]uint32{flatten.Sentinel, 1, flatten.Sentinel, flatten.Sentinel}, p.dirs[0])
	require.Len(t, p.files, 3)
	assert.Equal(t, [3]uint32{1, 1, 0}, p.files[0])
	assert.Equal(t, [3]uint32{2, flatten.Sentinel, 1}, p.files[1])
	assert.Equal(t, byte(4), p.metas[3][0])
}

func TestWrite_SortedUsesUserData(t *testing.T) {
	tables := sampleTables(t, true)
	toc := sampleTOC(t, tables, "Zlib")

	var buf bytes.Buffer
	_, err := Write(&buf, toc)
	require.NoError(t, err)
	p := parse(t, buf.Bytes())

	assert.Equal(t, []string{"Zlib"}, p.methods)
	assert.Equal(t, iostore.ContainerIndexed|iostore.ContainerCompressed, p.header.Flags)

	// Foo.uasset sorts ahead of Foo.ubulk but keeps its table position
	assert.Equal(t, [3]uint32{1, 1, 1}, p.files[0])
	assert.Equal(t, [3]uint32{2, flatten.Sentinel, 0}, p.files[1])
	for i, f := range p.files {
		var want [iostore.ChunkIDSize]byte
		require.NoError(t, tables.Files[i].ChunkID.MarshalTo(want[:]))
		assert.Equal(t, want[:], p.chunkIDs[f[2]])
	}
}

func TestWrite_EmptyTree(t *testing.T) {
	tables, err := flatten.Flatten(assettree.New())
	require.NoError(t, err)
	toc := sampleTOC(t, tables, "")

	var buf bytes.Buffer
	_, err = Write(&buf, toc)
	require.NoError(t, err)
	p := parse(t, buf.Bytes())
	assert.Equal(t, uint32(1), p.header.EntryCount)
	assert.Len(t, p.dirs, 1)
	assert.Empty(t, p.files)
	assert.Empty(t, p.names)
	assert.Zero(t, p.rest)
}

func TestWrite_Errors(t *testing.T) {
	tables := sampleTables(t, false)

	short := sampleTOC(t, tables, "")
	short.Offsets = short.Offsets[:1]
	_, err := Write(&bytes.Buffer{}, short)
	assert.Error(t, err)

	noMetas := sampleTOC(t, tables, "")
	noMetas.Metas = nil
	_, err = Write(&bytes.Buffer{}, noMetas)
	assert.Error(t, err)

	overflow := sampleTOC(t, tables, "")
	overflow.Offsets[0].Offset = iostore.MaxOffset + 1
	_, err = Write(&bytes.Buffer{}, overflow)
	assert.True(t, errors.Is(err, iostore.ErrOffsetOverflow))

	longName := sampleTOC(t, tables, string(bytes.Repeat([]byte("x"), 40)))
	_, err = Write(&bytes.Buffer{}, longName)
	assert.Error(t, err)
}

func TestWrite_FStringSizesMatch(t *testing.T) {
	for _, s := range []string{"", "a", "Ünïcode", DefaultMountPoint} {
		var buf bytes.Buffer
		w := binio.NewWriter(&buf)
		w.FString(s)
		require.NoError(t, w.Err())
		assert.Equal(t, binio.FStringSize(s), buf.Len(), s)
	}
}
