// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package codec implements the block compression methods a container can
// name in its method table.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// ErrIncompressible is returned by Compress when the output would not be
// smaller than the input.
var ErrIncompressible = errors.New("block does not compress")

// Codec compresses one block at a time.  Implementations are safe for
// concurrent use.
type Codec interface {
	// Name is the method name recorded in the container, or "" when
	// blocks are stored as-is.
	Name() string
	Compress(src []byte) ([]byte, error)
}

// Names lists the values Parse accepts.
var Names = []string{"none", "zlib", "gzip", "lz4"}

// Parse maps a configuration name to its codec.
func Parse(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return None, nil
	case "zlib":
		return Zlib, nil
	case "gzip":
		return Gzip, nil
	case "lz4":
		return LZ4, nil
	default:
		return nil, fmt.Errorf("unknown compression method %q (want one of %s)", name, strings.Join(Names, ", "))
	}
}

// Encode compresses src with c.  When c stores blocks as-is, or the
// compressed form is not smaller than src, it returns src and false.
func Encode(c Codec, src []byte) (out []byte, compressed bool, err error) {
	if c == nil || c.Name() == "" || len(src) == 0 {
		return src, false, nil
	}
	out, err = c.Compress(src)
	if errors.Is(err, ErrIncompressible) {
		return src, false, nil
	} else if err != nil {
		return nil, false, err
	}
	if len(out) >= len(src) {
		return src, false, nil
	}
	return out, true, nil
}

type none struct{}

func (none) Name() string { return "" }

func (none) Compress(src []byte) ([]byte, error) { return src, nil }

// None stores blocks uncompressed.
var None Codec = none{}

// deflater adapts the klauspost stream compressors to single blocks,
// reusing writers across calls.
type deflater struct {
	name string
	pool sync.Pool
}

type resetWriter interface {
	io.WriteCloser
	Reset(io.Writer)
}

func newDeflater(name string, newWriter func() resetWriter) *deflater {
	d := &deflater{name: name}
	d.pool.New = func() any { return newWriter() }
	return d
}

func (d *deflater) Name() string { return d.name }

func (d *deflater) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(src))
	w := d.pool.Get().(resetWriter)
	defer d.pool.Put(w)
	w.Reset(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("%s compress: %w", d.name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s compress: %w", d.name, err)
	}
	return buf.Bytes(), nil
}

// Zlib is DEFLATE with the zlib wrapper, the method most runtimes ship
// with.
var Zlib Codec = newDeflater("Zlib", func() resetWriter {
	w, _ := zlib.NewWriterLevel(io.Discard, zlib.DefaultCompression)
	return w
})

// Gzip is DEFLATE with the gzip wrapper.
var Gzip Codec = newDeflater("Gzip", func() resetWriter {
	w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
	return w
})

type lz4Block struct{}

func (lz4Block) Name() string { return "LZ4" }

func (lz4Block) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports incompressible input by writing nothing
	if n == 0 || n >= len(src) {
		return nil, ErrIncompressible
	}
	return dst[:n], nil
}

// LZ4 is raw LZ4 block compression.
var LZ4 Codec = lz4Block{}
