// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package iostore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	TocHeaderSize = 144
	// TocVersion is the partition-size revision of the format: no perfect
	// hash seeds, a single partition.
	TocVersion = 3
	// MethodNameLength is the fixed width of one compression method name.
	MethodNameLength = 32
)

var tocMagic = [16]byte{'-', '=', '=', '-', '-', '=', '=', '-', '-', '=', '=', '-', '-', '=', '=', '-'}

// ContainerFlags describe container-wide properties.
type ContainerFlags uint8

const (
	ContainerCompressed ContainerFlags = 1 << 0
	ContainerEncrypted  ContainerFlags = 1 << 1
	ContainerSigned     ContainerFlags = 1 << 2
	ContainerIndexed    ContainerFlags = 1 << 3
)

// TocHeader is the fixed-size header at the start of a .utoc file.
type TocHeader struct {
	EntryCount           uint32
	BlockEntryCount      uint32
	MethodNameCount      uint32
	CompressionBlockSize uint32
	DirectoryIndexSize   uint32
	ContainerID          uint64
	Flags                ContainerFlags
}

// MarshalTo writes the 144-byte on-disk header into b.
func (h *TocHeader) MarshalTo(b []byte) error {
	if len(b) < TocHeaderSize {
		return fmt.Errorf("buffer too short for TocHeader: %d < %d", len(b), TocHeaderSize)
	}
	b = b[:TocHeaderSize]
	for i := range b {
		b[i] = 0
	}
	copy(b[0:16], tocMagic[:])
	b[16] = TocVersion
	binary.LittleEndian.PutUint32(b[20:24], TocHeaderSize)
	binary.LittleEndian.PutUint32(b[24:28], h.EntryCount)
	binary.LittleEndian.PutUint32(b[28:32], h.BlockEntryCount)
	binary.LittleEndian.PutUint32(b[32:36], CompressedBlockSize)
	binary.LittleEndian.PutUint32(b[36:40], h.MethodNameCount)
	binary.LittleEndian.PutUint32(b[40:44], MethodNameLength)
	binary.LittleEndian.PutUint32(b[44:48], h.CompressionBlockSize)
	binary.LittleEndian.PutUint32(b[48:52], h.DirectoryIndexSize)
	binary.LittleEndian.PutUint32(b[52:56], 1) // partition count
	binary.LittleEndian.PutUint64(b[56:64], h.ContainerID)
	// 64:80 encryption key guid, always zero
	b[80] = uint8(h.Flags)
	// 84:88 perfect hash seed count, zero before the perfect hash revision
	binary.LittleEndian.PutUint64(b[88:96], math.MaxUint64) // partition size
	return nil
}

// UnmarshalBytes parses a header previously written by MarshalTo.
func (h *TocHeader) UnmarshalBytes(b []byte) error {
	if len(b) < TocHeaderSize {
		return fmt.Errorf("header too short: %d < %d", len(b), TocHeaderSize)
	}
	if !bytes.Equal(b[0:16], tocMagic[:]) {
		return fmt.Errorf("bad magic %q -- not a utoc file or corrupted", b[0:16])
	}
	if b[16] != TocVersion {
		return fmt.Errorf("unsupported utoc version %d (want %d)", b[16], TocVersion)
	}
	if size := binary.LittleEndian.Uint32(b[20:24]); size != TocHeaderSize {
		return fmt.Errorf("unexpected header size %d", size)
	}
	h.EntryCount = binary.LittleEndian.Uint32(b[24:28])
	h.BlockEntryCount = binary.LittleEndian.Uint32(b[28:32])
	h.MethodNameCount = binary.LittleEndian.Uint32(b[36:40])
	h.CompressionBlockSize = binary.LittleEndian.Uint32(b[44:48])
	h.DirectoryIndexSize = binary.LittleEndian.Uint32(b[48:52])
	h.ContainerID = binary.LittleEndian.Uint64(b[56:64])
	h.Flags = ContainerFlags(b[80])
	return nil
}
