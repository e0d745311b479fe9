// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package iostore

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-faster/city"

	"github.com/bpowers/tocmaker/internal/binio"
)

// ChunkIDSize is the serialized width of a ChunkID.
const ChunkIDSize = 12

// ChunkType is the payload-kind discriminant stored in the last byte of a
// ChunkID.
type ChunkType uint8

const (
	ChunkInvalid          ChunkType = 0
	ChunkExportBundleData ChunkType = 2
	ChunkBulkData         ChunkType = 3
	ChunkOptionalBulkData ChunkType = 4
	ChunkContainerHeader  ChunkType = 10
)

func (t ChunkType) String() string {
	switch t {
	case ChunkExportBundleData:
		return "ExportBundleData"
	case ChunkBulkData:
		return "BulkData"
	case ChunkOptionalBulkData:
		return "OptionalBulkData"
	case ChunkContainerHeader:
		return "ContainerHeader"
	default:
		return fmt.Sprintf("ChunkType(%d)", uint8(t))
	}
}

// ChunkTypeForExtension maps an asset file extension (without the dot) to
// the chunk type its payload is stored under.
func ChunkTypeForExtension(ext string) (ChunkType, bool) {
	switch ext {
	case "uasset", "umap":
		return ChunkExportBundleData, true
	case "ubulk":
		return ChunkBulkData, true
	case "uptnl":
		return ChunkOptionalBulkData, true
	default:
		return ChunkInvalid, false
	}
}

// ChunkID addresses one chunk in a container.  The runtime looks payload
// up by ChunkID, never by path.
type ChunkID struct {
	id        uint64
	index     uint16
	chunkType ChunkType
}

// NewChunkID derives the ChunkID for the package named packageName (for
// example "/Game/Maps/Foo") and payload kind t.
func NewChunkID(packageName string, t ChunkType) (ChunkID, error) {
	h, err := HashName(packageName)
	if err != nil {
		return ChunkID{}, err
	}
	return ChunkID{id: h, chunkType: t}, nil
}

// ChunkIDFromHash builds a ChunkID from an already computed name hash.
func ChunkIDFromHash(hash uint64, t ChunkType) ChunkID {
	return ChunkID{id: hash, chunkType: t}
}

// RawHash returns the 64-bit name hash (the package id).
func (c ChunkID) RawHash() uint64 {
	return c.id
}

func (c ChunkID) Type() ChunkType {
	return c.chunkType
}

// MarshalTo writes the 12-byte on-disk form of c into b.
func (c ChunkID) MarshalTo(b []byte) error {
	if len(b) < ChunkIDSize {
		return fmt.Errorf("buffer too short for ChunkID: %d < %d", len(b), ChunkIDSize)
	}
	binary.LittleEndian.PutUint64(b[0:8], c.id)
	binary.LittleEndian.PutUint16(b[8:10], c.index)
	b[10] = 0
	b[11] = uint8(c.chunkType)
	return nil
}

func (c ChunkID) String() string {
	return fmt.Sprintf("%016x:%d:%s", c.id, c.index, c.chunkType)
}

// HashName is the 64-bit name hash the runtime uses for package and
// container ids: CityHash64 over the UTF-16LE bytes of the lower-cased
// name.
func HashName(name string) (uint64, error) {
	wide, err := binio.UTF16LE(strings.ToLower(name))
	if err != nil {
		return 0, fmt.Errorf("HashName: %w", err)
	}
	return city.Hash64(wide), nil
}
