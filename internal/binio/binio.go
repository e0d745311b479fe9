// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package binio writes the little-endian fixed-width fields and
// length-prefixed strings used throughout the container formats.
package binio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Writer wraps an io.Writer, counts bytes written and latches the first
// error.  Once an error occurs every subsequent call is a no-op; check Err
// after a sequence of writes.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Len returns the number of bytes successfully written.
func (w *Writer) Len() int64 {
	return w.n
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) Bytes(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		w.err = err
	} else if n != len(p) {
		w.err = fmt.Errorf("short write of %d (wanted %d)", n, len(p))
	}
}

func (w *Writer) U8(v uint8) {
	w.buf[0] = v
	w.Bytes(w.buf[:1])
}

func (w *Writer) U16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.Bytes(w.buf[:2])
}

func (w *Writer) U32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.Bytes(w.buf[:4])
}

func (w *Writer) I32(v int32) {
	w.U32(uint32(v))
}

func (w *Writer) U64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.Bytes(w.buf[:8])
}

func (w *Writer) I64(v int64) {
	w.U64(uint64(v))
}

// Count writes an array element count.
func (w *Writer) Count(n int) {
	if n > math.MaxInt32 {
		if w.err == nil {
			w.err = fmt.Errorf("array count %d overflows int32", n)
		}
		return
	}
	w.I32(int32(n))
}

// FString writes s as a length-prefixed, NUL-terminated string.  The
// length counts characters including the terminator.  Pure ASCII is
// stored one byte per character; anything else is stored as UTF-16LE
// with a negated length.
func (w *Writer) FString(s string) {
	if s == "" {
		w.I32(0)
		return
	}
	if isASCII(s) {
		w.I32(int32(len(s) + 1))
		w.Bytes([]byte(s))
		w.U8(0)
		return
	}
	wide, err := UTF16LE(s)
	if err != nil {
		if w.err == nil {
			w.err = err
		}
		return
	}
	w.I32(-int32(len(wide)/2 + 1))
	w.Bytes(wide)
	w.U16(0)
}

// FStringSize returns the number of bytes FString(s) writes.
func FStringSize(s string) int {
	if s == "" {
		return 4
	}
	if isASCII(s) {
		return 4 + len(s) + 1
	}
	wide, err := UTF16LE(s)
	if err != nil {
		// FString will fail on this input too; size it as if it didn't
		return 4 + 2*(utf8.RuneCountInString(s)+1)
	}
	return 4 + len(wide) + 2
}

// UTF16LE encodes s as little-endian UTF-16 without a byte-order mark.
func UTF16LE(s string) ([]byte, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("utf16 encode %q: %w", s, err)
	}
	return b, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
