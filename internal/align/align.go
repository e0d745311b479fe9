// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package align provides the offset arithmetic shared by every writer
// that tracks a cursor into an output stream.
package align

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxGap is the largest amount of zero padding Pad will emit in one call.
// A bigger gap means the alignment value itself is bogus.
const MaxGap = 16 * 1024 * 1024

const zeroPageSize = 64 * 1024

var (
	ErrOversizedGap = errors.New("oversized alignment gap")

	zeroPage [zeroPageSize]byte
)

// Up returns the smallest multiple of alignment that is >= value.  Any
// positive alignment is accepted, not only powers of two.
func Up(value, alignment uint64) uint64 {
	if alignment == 0 {
		panic("invariant broken: alignment must be positive")
	}
	if value > math.MaxUint64-(alignment-1) {
		panic(fmt.Sprintf("invariant broken: aligning %d to %d overflows uint64", value, alignment))
	}
	next := value + alignment - 1
	return next - next%alignment
}

// Pad writes zero bytes to w until *cursor is a multiple of alignment,
// stores the aligned value back into *cursor and returns it.
func Pad(w io.Writer, cursor *uint64, alignment uint64) (uint64, error) {
	next := Up(*cursor, alignment)
	gap := next - *cursor
	if gap > MaxGap {
		return *cursor, fmt.Errorf("%w: %d bytes to reach %d (alignment %d)", ErrOversizedGap, gap, next, alignment)
	}
	for gap > 0 {
		n := gap
		if n > zeroPageSize {
			n = zeroPageSize
		}
		written, err := w.Write(zeroPage[:n])
		*cursor += uint64(written)
		if err != nil {
			return *cursor, fmt.Errorf("write padding: %w", err)
		}
		gap -= uint64(written)
	}
	return *cursor, nil
}
