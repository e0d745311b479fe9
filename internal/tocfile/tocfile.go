// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package tocfile writes the index stream (.utoc) of a container.
package tocfile

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/bpowers/tocmaker/internal/binio"
	"github.com/bpowers/tocmaker/internal/flatten"
	"github.com/bpowers/tocmaker/internal/iostore"
)

// DefaultMountPoint is relative to the directory the container is loaded
// from, which sits three levels below the install root.
const DefaultMountPoint = "../../../"

const (
	dirEntrySize  = 16
	fileEntrySize = 12
)

// TOC is everything the index stream describes.  Offsets and Metas hold
// one entry per file in emission order followed by the container header.
type TOC struct {
	ContainerID uint64
	BlockSize   uint32
	// MethodName is the codec name, or "" when no codec is configured.
	MethodName string
	MountPoint string

	Tables  *flatten.Tables
	Offsets []iostore.OffsetAndLength
	Blocks  []iostore.CompressedBlock
	Metas   []iostore.EntryMeta
}

// DirectoryIndexSize returns the serialized size of the directory index:
// the mount point, then the directory, file and string tables, each with
// a count prefix.
func DirectoryIndexSize(mount string, t *flatten.Tables) uint32 {
	size := binio.FStringSize(mount)
	size += 4 + dirEntrySize*len(t.Directories)
	size += 4 + fileEntrySize*len(t.Files)
	size += 4
	for _, name := range t.Names {
		size += binio.FStringSize(name)
	}
	return uint32(size)
}

// Header returns the index header for toc.
func (toc *TOC) Header() iostore.TocHeader {
	h := iostore.TocHeader{
		EntryCount:           uint32(len(toc.Tables.Files) + 1),
		BlockEntryCount:      uint32(len(toc.Blocks)),
		CompressionBlockSize: toc.BlockSize,
		DirectoryIndexSize:   DirectoryIndexSize(toc.MountPoint, toc.Tables),
		ContainerID:          toc.ContainerID,
		Flags:                iostore.ContainerIndexed,
	}
	if toc.MethodName != "" {
		h.MethodNameCount = 1
		h.Flags |= iostore.ContainerCompressed
	}
	return h
}

func (toc *TOC) check() error {
	entries := len(toc.Tables.Files) + 1
	if len(toc.Offsets) != entries {
		return fmt.Errorf("%d offsets for %d entries", len(toc.Offsets), entries)
	}
	if len(toc.Metas) != entries {
		return fmt.Errorf("%d metas for %d entries", len(toc.Metas), entries)
	}
	if len(toc.Tables.Order) != len(toc.Tables.Files) {
		return fmt.Errorf("emission order has %d files, tables %d", len(toc.Tables.Order), len(toc.Tables.Files))
	}
	if len(toc.MethodName) >= iostore.MethodNameLength {
		return fmt.Errorf("method name %q longer than %d bytes", toc.MethodName, iostore.MethodNameLength-1)
	}
	if uint64(len(toc.Blocks)) > math.MaxUint32 {
		return fmt.Errorf("%d blocks overflow the header", len(toc.Blocks))
	}
	return nil
}

// Write emits the index stream for toc and returns the number of bytes
// written.
func Write(w io.Writer, toc *TOC) (int64, error) {
	if err := toc.check(); err != nil {
		return 0, fmt.Errorf("tocfile: %w", err)
	}
	bw := bufio.NewWriter(w)
	out := binio.NewWriter(bw)
	var rec [iostore.TocHeaderSize]byte

	h := toc.Header()
	if err := h.MarshalTo(rec[:]); err != nil {
		return 0, err
	}
	out.Bytes(rec[:])

	for _, pos := range toc.Tables.Order {
		if err := toc.Tables.Files[pos].ChunkID.MarshalTo(rec[:]); err != nil {
			return out.Len(), err
		}
		out.Bytes(rec[:iostore.ChunkIDSize])
	}
	headerID := iostore.ChunkIDFromHash(toc.ContainerID, iostore.ChunkContainerHeader)
	_ = headerID.MarshalTo(rec[:])
	out.Bytes(rec[:iostore.ChunkIDSize])

	for i, ol := range toc.Offsets {
		if err := ol.MarshalTo(rec[:]); err != nil {
			return out.Len(), fmt.Errorf("entry %d: %w", i, err)
		}
		out.Bytes(rec[:iostore.OffsetAndLengthSize])
	}
	for i, b := range toc.Blocks {
		if err := b.MarshalTo(rec[:]); err != nil {
			return out.Len(), fmt.Errorf("block %d: %w", i, err)
		}
		out.Bytes(rec[:iostore.CompressedBlockSize])
	}
	if toc.MethodName != "" {
		var slot [iostore.MethodNameLength]byte
		copy(slot[:], toc.MethodName)
		out.Bytes(slot[:])
	}

	start := out.Len()
	writeDirectoryIndex(out, toc.MountPoint, toc.Tables)
	if got := out.Len() - start; out.Err() == nil && got != int64(h.DirectoryIndexSize) {
		panic(fmt.Sprintf("invariant broken: directory index is %d bytes, header says %d", got, h.DirectoryIndexSize))
	}

	for _, m := range toc.Metas {
		_ = m.MarshalTo(rec[:])
		out.Bytes(rec[:iostore.EntryMetaSize])
	}

	if err := out.Err(); err != nil {
		return out.Len(), fmt.Errorf("write: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return out.Len(), fmt.Errorf("flush: %w", err)
	}
	return out.Len(), nil
}

func writeDirectoryIndex(out *binio.Writer, mount string, t *flatten.Tables) {
	out.FString(mount)
	out.Count(len(t.Directories))
	for _, d := range t.Directories {
		out.U32(d.Name)
		out.U32(d.FirstChild)
		out.U32(d.NextSibling)
		out.U32(d.FirstFile)
	}
	out.Count(len(t.Files))
	for _, f := range t.Files {
		out.U32(f.Name)
		out.U32(f.NextFile)
		out.U32(f.UserData)
	}
	out.Count(len(t.Names))
	for _, name := range t.Names {
		out.FString(name)
	}
}
