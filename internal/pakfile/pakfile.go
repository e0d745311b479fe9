// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package pakfile writes the entry-less pak archive the runtime requires
// next to an IoStore container before it will mount the container.
package pakfile

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"

	"github.com/bpowers/tocmaker/internal/binio"
)

const (
	Magic   = 0x5A6F12E1
	Version = 11

	FooterSize = 221

	methodSlots      = 5
	methodNameLength = 32
)

// Write emits a pak with no entries mounted at mount.  seed is recorded as
// the path hash seed; with no path hash index it only needs to be stable.
func Write(w io.Writer, mount string, seed uint64) (int64, error) {
	var dirIndex bytes.Buffer
	d := binio.NewWriter(&dirIndex)
	d.Count(1)
	d.FString("/")
	d.Count(0)
	if err := d.Err(); err != nil {
		return 0, err
	}

	primarySize := int64(binio.FStringSize(mount)) + 4 + 8 + 4 + 4 + 8 + 8 + sha1.Size + 4 + 4
	dirHash := sha1.Sum(dirIndex.Bytes())

	var primary bytes.Buffer
	p := binio.NewWriter(&primary)
	p.FString(mount)
	p.Count(0)  // entries
	p.U64(seed) // path hash seed
	p.U32(0)    // no path hash index
	p.U32(1)    // full directory index follows
	p.I64(primarySize)
	p.I64(int64(dirIndex.Len()))
	p.Bytes(dirHash[:])
	p.Count(0) // encoded entries
	p.Count(0) // unencoded entries
	if err := p.Err(); err != nil {
		return 0, err
	}
	if p.Len() != primarySize {
		panic(fmt.Sprintf("invariant broken: primary index is %d bytes, expected %d", p.Len(), primarySize))
	}
	indexHash := sha1.Sum(primary.Bytes())

	out := binio.NewWriter(w)
	out.Bytes(primary.Bytes())
	out.Bytes(dirIndex.Bytes())

	var guid [16]byte
	out.Bytes(guid[:])
	out.U8(0) // index not encrypted
	out.U32(Magic)
	out.I32(Version)
	out.I64(0)
	out.I64(primarySize)
	out.Bytes(indexHash[:])
	out.Bytes(make([]byte, methodSlots*methodNameLength))
	if err := out.Err(); err != nil {
		return out.Len(), fmt.Errorf("pakfile: %w", err)
	}
	return out.Len(), nil
}
