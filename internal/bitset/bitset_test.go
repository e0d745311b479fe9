// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitset(t *testing.T) {
	b := New(128)

	require.Equal(t, 2, len(b.bits))
	require.Equal(t, 128, b.Len())

	// should do nothing
	b.Set(132)
	b.Set(-1)

	zero := []uint64{0, 0}
	require.Equal(t, zero, b.bits)
	require.Equal(t, 0, b.FirstClear())

	require.False(t, b.IsSet(7))
	require.True(t, b.Visit(7))
	require.False(t, b.Visit(7))
	require.True(t, b.IsSet(7))
	require.Equal(t, 1, b.Count())

	for i := 0; i < 128; i++ {
		b.Set(i)
	}

	full := []uint64{^uint64(0), ^uint64(0)}
	require.Equal(t, full, b.bits)
	require.Equal(t, 128, b.Count())
	require.Equal(t, -1, b.FirstClear())
	require.False(t, b.Visit(200))
}

func TestBitset_PartialWord(t *testing.T) {
	b := New(3)
	for i := 0; i < 3; i++ {
		require.True(t, b.Visit(i))
	}
	require.Equal(t, -1, b.FirstClear())

	b = New(70)
	for i := 0; i < 70; i++ {
		if i != 65 {
			b.Set(i)
		}
	}
	require.Equal(t, 65, b.FirstClear())

	require.Equal(t, -1, New(0).FirstClear())
}
