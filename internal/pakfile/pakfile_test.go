// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pakfile

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, "../../../", 0xabc)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	b := buf.Bytes()
	le := binary.LittleEndian

	footer := b[len(b)-FooterSize:]
	assert.Equal(t, make([]byte, 16), footer[:16])
	assert.Equal(t, byte(0), footer[16])
	assert.Equal(t, uint32(Magic), le.Uint32(footer[17:]))
	assert.Equal(t, uint32(Version), le.Uint32(footer[21:]))
	indexOffset := le.Uint64(footer[25:])
	indexSize := le.Uint64(footer[33:])
	assert.Equal(t, uint64(0), indexOffset)

	index := b[indexOffset : indexOffset+indexSize]
	sum := sha1.Sum(index)
	assert.Equal(t, sum[:], footer[41:61])

	// mount point
	assert.Equal(t, uint32(10), le.Uint32(index[0:]))
	assert.Equal(t, "../../../\x00", string(index[4:14]))
	assert.Equal(t, uint32(0), le.Uint32(index[14:]))
	assert.Equal(t, uint64(0xabc), le.Uint64(index[18:]))
	assert.Equal(t, uint32(0), le.Uint32(index[26:]))
	assert.Equal(t, uint32(1), le.Uint32(index[30:]))
	dirOffset := le.Uint64(index[34:])
	dirSize := le.Uint64(index[42:])
	assert.Equal(t, indexSize, dirOffset)
	dir := b[dirOffset : dirOffset+dirSize]
	dirSum := sha1.Sum(dir)
	assert.Equal(t, dirSum[:], index[50:70])
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0, '/', 0, 0, 0, 0, 0}, dir)

	assert.Equal(t, uint64(len(b)-FooterSize), dirOffset+dirSize)
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, errors.New("boom")
}

func TestWrite_Error(t *testing.T) {
	_, err := Write(errWriter{}, "../../../", 0)
	assert.ErrorContains(t, err, "boom")
}
