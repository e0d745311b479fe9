// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package binio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Fields(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.U8(0x01)
	w.U16(0x0302)
	w.U32(0x07060504)
	w.U64(0x0f0e0d0c0b0a0908)
	w.I32(-1)
	require.NoError(t, w.Err())

	assert.Equal(t, int64(1+2+4+8+4), w.Len())
	assert.Equal(t, []byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		0xff, 0xff, 0xff, 0xff,
	}, buf.Bytes())
}

func TestWriter_FStringASCII(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.FString("../../../")
	require.NoError(t, w.Err())

	want := append([]byte{10, 0, 0, 0}, []byte("../../../\x00")...)
	assert.Equal(t, want, buf.Bytes())
	assert.Equal(t, len(want), FStringSize("../../../"))
	assert.Equal(t, int64(len(want)), w.Len())
}

func TestWriter_FStringEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.FString("")
	require.NoError(t, w.Err())
	assert.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())
	assert.Equal(t, 4, FStringSize(""))
}

func TestWriter_FStringWide(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.FString("é")
	require.NoError(t, w.Err())

	// -2 characters (é + NUL), UTF-16LE
	assert.Equal(t, []byte{0xfe, 0xff, 0xff, 0xff, 0xe9, 0x00, 0x00, 0x00}, buf.Bytes())
	assert.Equal(t, buf.Len(), FStringSize("é"))
}

type failAfter struct {
	left int
}

func (f *failAfter) Write(p []byte) (int, error) {
	if f.left <= 0 {
		return 0, errors.New("write failed")
	}
	f.left--
	return len(p), nil
}

func TestWriter_StickyError(t *testing.T) {
	w := NewWriter(&failAfter{left: 1})
	w.U32(1)
	require.NoError(t, w.Err())
	w.U32(2)
	require.Error(t, w.Err())
	w.U64(3)
	assert.Equal(t, int64(4), w.Len())
}

func TestUTF16LE(t *testing.T) {
	b, err := UTF16LE("Ab")
	require.NoError(t, err)
	assert.Equal(t, []byte{'A', 0, 'b', 0}, b)
}
