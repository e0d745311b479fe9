// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package iostore

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	OffsetAndLengthSize = 10
	CompressedBlockSize = 12
	EntryMetaSize       = 33
	ChunkHashSize       = 32

	// MaxOffset is the largest offset or length a 40-bit field can hold.
	MaxOffset = (1 << 40) - 1
	// MaxBlockBytes is the largest block size a 24-bit field can hold.
	MaxBlockBytes = (1 << 24) - 1
)

var (
	ErrOffsetOverflow = errors.New("value does not fit in 40 bits")
	ErrBlockOverflow  = errors.New("block size does not fit in 24 bits")
)

// OffsetAndLength locates a chunk in the virtual (uncompressed) address
// space of the container.
type OffsetAndLength struct {
	Offset uint64
	Length uint64
}

// MarshalTo writes o into b as two 40-bit big-endian integers.
func (o OffsetAndLength) MarshalTo(b []byte) error {
	if len(b) < OffsetAndLengthSize {
		return fmt.Errorf("buffer too short for OffsetAndLength: %d < %d", len(b), OffsetAndLengthSize)
	}
	if o.Offset > MaxOffset {
		return fmt.Errorf("offset %d: %w", o.Offset, ErrOffsetOverflow)
	}
	if o.Length > MaxOffset {
		return fmt.Errorf("length %d: %w", o.Length, ErrOffsetOverflow)
	}
	putUint40BE(b[0:5], o.Offset)
	putUint40BE(b[5:10], o.Length)
	return nil
}

// End returns the first virtual offset past the chunk.
func (o OffsetAndLength) End() uint64 {
	return o.Offset + o.Length
}

// CompressedBlock describes one physical block of the payload stream.
type CompressedBlock struct {
	Offset           uint64
	CompressedSize   uint32
	UncompressedSize uint32
	// Method is an index into the container's method name table; 0 means
	// the block is stored uncompressed.
	Method uint8
}

// MarshalTo writes the 12-byte little-endian form of c into b.
func (c CompressedBlock) MarshalTo(b []byte) error {
	if len(b) < CompressedBlockSize {
		return fmt.Errorf("buffer too short for CompressedBlock: %d < %d", len(b), CompressedBlockSize)
	}
	if c.Offset > MaxOffset {
		return fmt.Errorf("block offset %d: %w", c.Offset, ErrOffsetOverflow)
	}
	if c.CompressedSize > MaxBlockBytes || c.UncompressedSize > MaxBlockBytes {
		return fmt.Errorf("block %d/%d: %w", c.CompressedSize, c.UncompressedSize, ErrBlockOverflow)
	}
	putUint40LE(b[0:5], c.Offset)
	putUint24LE(b[5:8], c.CompressedSize)
	putUint24LE(b[8:11], c.UncompressedSize)
	b[11] = c.Method
	return nil
}

// MetaFlags annotate an EntryMeta.
type MetaFlags uint8

const (
	MetaCompressed   MetaFlags = 1 << 0
	MetaMemoryMapped MetaFlags = 1 << 1
)

// EntryMeta is the optional verification record kept for every entry.
type EntryMeta struct {
	Hash  [ChunkHashSize]byte
	Flags MetaFlags
}

func (m EntryMeta) MarshalTo(b []byte) error {
	if len(b) < EntryMetaSize {
		return fmt.Errorf("buffer too short for EntryMeta: %d < %d", len(b), EntryMetaSize)
	}
	copy(b[:ChunkHashSize], m.Hash[:])
	b[ChunkHashSize] = uint8(m.Flags)
	return nil
}

func putUint40BE(b []byte, v uint64) {
	_ = b[4]
	b[0] = byte(v >> 32)
	b[1] = byte(v >> 24)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 8)
	b[4] = byte(v)
}

func putUint40LE(b []byte, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	copy(b[:5], tmp[:5])
}

func putUint24LE(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
