// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitset records which table positions a traversal has visited.
package bitset

import "math/bits"

// Bitset is an in-memory bitmap that is conceptually similar to []bool, but more memory efficient.
type Bitset struct {
	bits   []uint64
	length int
}

func getOffsets(off int) (sliceOff int, bitOff uint64) {
	return off / 64, uint64(off) % 64
}

// Len returns the number of addressable bits.
func (b *Bitset) Len() int {
	return b.length
}

// Set sets the bit at position `off` to 1.  Out of range offsets are ignored.
func (b *Bitset) Set(off int) {
	if off < 0 || off >= b.length {
		return
	}
	sliceOff, bitOff := getOffsets(off)
	b.bits[sliceOff] |= 1 << bitOff
}

// IsSet returns true if the bit at position `off` is 1.
func (b *Bitset) IsSet(off int) bool {
	if off < 0 || off >= b.length {
		return false
	}
	sliceOff, bitOff := getOffsets(off)
	return b.bits[sliceOff]&(1<<bitOff) != 0
}

// Visit sets the bit at `off` and reports whether it was previously clear.
// Out of range offsets report false.
func (b *Bitset) Visit(off int) bool {
	if off < 0 || off >= b.length || b.IsSet(off) {
		return false
	}
	b.Set(off)
	return true
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, u64 := range b.bits {
		n += bits.OnesCount64(u64)
	}
	return n
}

// FirstClear returns the lowest unset position, or -1 if every bit is set.
func (b *Bitset) FirstClear() int {
	for i, u64 := range b.bits {
		if u64 == ^uint64(0) {
			continue
		}
		off := i*64 + bits.TrailingZeros64(^u64)
		if off >= b.length {
			return -1
		}
		return off
	}
	return -1
}

// New returns a new in-memory bitset where you can set and test for individual bits.
func New(length int) *Bitset {
	if length < 0 {
		length = 0
	}
	return &Bitset{
		bits:   make([]uint64, (length+63)/64),
		length: length,
	}
}
