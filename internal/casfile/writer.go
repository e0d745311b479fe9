// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package casfile writes the payload stream of a container.
//
// Every chunk starts at a block-size aligned offset in the virtual
// (uncompressed) address space and is cut into blocks of at most the
// block size.  Each block is written, possibly compressed, at an offset
// aligned to the block alignment in the physical stream.  The container
// header chunk is always written last.
package casfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgryski/go-farm"
	"golang.org/x/sync/errgroup"

	"github.com/bpowers/tocmaker/internal/align"
	"github.com/bpowers/tocmaker/internal/codec"
	"github.com/bpowers/tocmaker/internal/flatten"
	"github.com/bpowers/tocmaker/internal/iopackage"
	"github.com/bpowers/tocmaker/internal/iostore"
	"github.com/bpowers/tocmaker/internal/metahash"
	"github.com/bpowers/tocmaker/internal/mmap"
)

const (
	DefaultBlockSize      = 0x40000
	DefaultBlockAlignment = 0x10

	writeBufferSize = 1 << 20
)

var (
	ErrSourceChanged = errors.New("source file changed after scan")
	ErrFinished      = errors.New("payload writer already finished")
)

// Option configures a Writer.
type Option func(*options)

type options struct {
	blockSize   uint64
	alignment   uint64
	codec       codec.Codec
	hasher      metahash.Hasher
	summaries   bool
	concurrency int
	logger      *slog.Logger
}

// WithBlockSize sets the maximum uncompressed size of a block and the
// virtual alignment of every chunk.
func WithBlockSize(n uint64) Option {
	return func(opts *options) {
		opts.blockSize = n
	}
}

// WithBlockAlignment sets the physical alignment of every block.
func WithBlockAlignment(n uint64) Option {
	return func(opts *options) {
		opts.alignment = n
	}
}

func WithCodec(c codec.Codec) Option {
	return func(opts *options) {
		opts.codec = c
	}
}

func WithMetaHasher(h metahash.Hasher) Option {
	return func(opts *options) {
		opts.hasher = h
	}
}

// WithSummaries controls whether export bundles are parsed into the
// container header.  With summaries off the header lists no packages.
func WithSummaries(enabled bool) Option {
	return func(opts *options) {
		opts.summaries = enabled
	}
}

// WithConcurrency compresses up to n blocks of a chunk at once.  Blocks
// are still placed in order.
func WithConcurrency(n int) Option {
	return func(opts *options) {
		opts.concurrency = n
	}
}

// WithLogger sets an optional logger for per-chunk progress.
// If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// Result is the bookkeeping for a finished payload stream.  Offsets,
// Blocks and Metas hold one entry per chunk (or block) in write order,
// with the container header last.
type Result struct {
	Offsets         []iostore.OffsetAndLength
	Blocks          []iostore.CompressedBlock
	Metas           []iostore.EntryMeta
	ContainerHeader []byte

	VirtualSize  uint64
	PhysicalSize uint64

	Packages         int
	BytesIn          uint64
	BytesOut         uint64
	CompressedBlocks int
	Duplicates       int
}

type fingerprint struct {
	hash uint64
	size int
}

// Writer lays chunks out in a payload stream.  It is not safe for
// concurrent use.
type Writer struct {
	options
	bw          *bufio.Writer
	containerID uint64
	header      *iopackage.ContainerHeaderBuilder
	seen        map[fingerprint]string

	virtual  uint64
	physical uint64
	result   Result
	finished bool
}

// NewWriter returns a Writer appending to w, which must be positioned at
// offset zero of the payload stream.
func NewWriter(w io.Writer, containerID uint64, opts ...Option) (*Writer, error) {
	options := options{
		blockSize:   DefaultBlockSize,
		alignment:   DefaultBlockAlignment,
		codec:       codec.None,
		hasher:      metahash.None,
		summaries:   true,
		concurrency: 1,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.blockSize == 0 || options.blockSize > iostore.MaxBlockBytes {
		return nil, fmt.Errorf("block size %d outside (0, %d]", options.blockSize, iostore.MaxBlockBytes)
	}
	if options.alignment == 0 {
		return nil, errors.New("block alignment must be positive")
	}
	if options.codec == nil {
		options.codec = codec.None
	}
	if options.hasher == nil {
		options.hasher = metahash.None
	}
	return &Writer{
		options:     options,
		bw:          bufio.NewWriterSize(w, writeBufferSize),
		containerID: containerID,
		header:      iopackage.NewContainerHeaderBuilder(containerID),
		seen:        make(map[fingerprint]string),
	}, nil
}

// WriteFile appends the payload of f.  The source must still have the
// size recorded at scan time.
func (w *Writer) WriteFile(f *flatten.FileEntry) error {
	if w.finished {
		return ErrFinished
	}
	m, err := mmap.Open(f.SourcePath)
	if err != nil {
		return fmt.Errorf("payload %s: %w", f.SourcePath, err)
	}
	defer m.Close()

	data := m.Data()
	if uint64(len(data)) != f.Size {
		return fmt.Errorf("%s: scanned %d bytes, now %d: %w", f.SourcePath, f.Size, len(data), ErrSourceChanged)
	}

	if f.ChunkID.Type() == iostore.ChunkExportBundleData && w.summaries {
		s, err := iopackage.ExtractSummary(data)
		if err != nil {
			return fmt.Errorf("%s: %w", f.SourcePath, err)
		}
		if prev, ok := w.header.Add(f.ChunkID.RawHash(), f.Size, f.SourcePath, s); !ok {
			w.logger.Warn("duplicate package id", "id", f.ChunkID.String(), "path", f.SourcePath, "previous", prev)
		}
	}

	fp := fingerprint{hash: farm.Fingerprint64(data), size: len(data)}
	if prev, dup := w.seen[fp]; dup && len(data) > 0 {
		w.result.Duplicates++
		w.logger.Debug("duplicate payload", "path", f.SourcePath, "same-as", prev)
	} else {
		w.seen[fp] = f.SourcePath
	}

	if err := w.writeChunk(data); err != nil {
		return fmt.Errorf("%s: %w", f.SourcePath, err)
	}
	w.logger.Debug("wrote chunk", "path", f.SourcePath, "id", f.ChunkID.String(), "size", len(data))
	return nil
}

// writeChunk records the chunk's virtual range, writes its blocks and
// appends its entry metadata.
func (w *Writer) writeChunk(data []byte) error {
	w.virtual = align.Up(w.virtual, w.blockSize)
	w.result.Offsets = append(w.result.Offsets, iostore.OffsetAndLength{Offset: w.virtual, Length: uint64(len(data))})
	w.virtual += uint64(len(data))
	if len(data) == 0 {
		// an empty chunk still owns one block, so reserve its slot:
		// block i always covers virtual [i*blockSize, (i+1)*blockSize)
		w.virtual++
	}
	if w.virtual > iostore.MaxOffset {
		return fmt.Errorf("virtual offset %d: %w", w.virtual, iostore.ErrOffsetOverflow)
	}

	blocks, err := w.compress(data)
	if err != nil {
		return err
	}

	var flags iostore.MetaFlags
	for _, b := range blocks {
		if _, err := align.Pad(w.bw, &w.physical, w.alignment); err != nil {
			return err
		}
		method := uint8(0)
		if b.compressed {
			method = 1
			flags |= iostore.MetaCompressed
			w.result.CompressedBlocks++
		}
		w.result.Blocks = append(w.result.Blocks, iostore.CompressedBlock{
			Offset:           w.physical,
			CompressedSize:   uint32(len(b.out)),
			UncompressedSize: uint32(b.size),
			Method:           method,
		})
		n, err := w.bw.Write(b.out)
		w.physical += uint64(n)
		if err != nil {
			return fmt.Errorf("write block: %w", err)
		}
		if w.physical > iostore.MaxOffset {
			return fmt.Errorf("physical offset %d: %w", w.physical, iostore.ErrOffsetOverflow)
		}
	}

	w.result.Metas = append(w.result.Metas, iostore.EntryMeta{Hash: w.hasher.Sum(data), Flags: flags})
	w.result.BytesIn += uint64(len(data))
	return nil
}

type block struct {
	out        []byte
	size       int
	compressed bool
}

// compress cuts data into blocks and runs each through the codec.  An
// empty chunk still gets one empty block.
func (w *Writer) compress(data []byte) ([]block, error) {
	n := (uint64(len(data)) + w.blockSize - 1) / w.blockSize
	if n == 0 {
		n = 1
	}
	blocks := make([]block, n)
	encode := func(i int) error {
		start := uint64(i) * w.blockSize
		end := min(start+w.blockSize, uint64(len(data)))
		src := data[start:end]
		out, compressed, err := codec.Encode(w.codec, src)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		blocks[i] = block{out: out, size: len(src), compressed: compressed}
		return nil
	}

	if w.concurrency <= 1 || n == 1 || w.codec.Name() == "" {
		for i := range blocks {
			if err := encode(i); err != nil {
				return nil, err
			}
		}
		return blocks, nil
	}

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for i := range blocks {
		i := i
		g.Go(func() error {
			return encode(i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// Finish writes the container header chunk, flushes the stream and
// returns the layout of everything written.
func (w *Writer) Finish() (*Result, error) {
	if w.finished {
		return nil, ErrFinished
	}
	w.finished = true

	header, err := w.header.Bytes()
	if err != nil {
		return nil, err
	}
	if err := w.writeChunk(header); err != nil {
		return nil, fmt.Errorf("container header: %w", err)
	}
	if err := w.bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	r := w.result
	r.ContainerHeader = header
	r.VirtualSize = w.virtual
	r.PhysicalSize = w.physical
	r.Packages = w.header.Len()
	r.BytesOut = w.physical
	return &r, nil
}
