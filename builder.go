// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package tocmaker packages a directory of cooked assets into an IoStore
// container: a .utoc index, a .ucas payload and a wrapper .pak.
package tocmaker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bpowers/tocmaker/internal/assettree"
	"github.com/bpowers/tocmaker/internal/casfile"
	"github.com/bpowers/tocmaker/internal/codec"
	"github.com/bpowers/tocmaker/internal/config"
	"github.com/bpowers/tocmaker/internal/flatten"
	"github.com/bpowers/tocmaker/internal/iostore"
	"github.com/bpowers/tocmaker/internal/metahash"
	"github.com/bpowers/tocmaker/internal/pakfile"
	"github.com/bpowers/tocmaker/internal/report"
	"github.com/bpowers/tocmaker/internal/tocfile"
)

// BuilderOption configures the Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger *slog.Logger
}

// WithBuilderLogger sets an optional logger for the builder to use for progress updates.
// If not provided, no logging output will be produced.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}

// Builder turns one input directory into one container.
type Builder struct {
	cfg    config.Config
	codec  codec.Codec
	hasher metahash.Hasher
	logger *slog.Logger
}

// Result is what a successful build reports.
type Result struct {
	Profile *assettree.Profile
	Summary *report.Summary
}

// NewBuilder validates cfg and returns a Builder for it.  cfg is copied.
func NewBuilder(cfg *config.Config, opts ...BuilderOption) (*Builder, error) {
	var options builderOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := cfg.Codec()
	if err != nil {
		return nil, err
	}
	h, err := cfg.Hasher()
	if err != nil {
		return nil, err
	}
	return &Builder{
		cfg:    *cfg,
		codec:  c,
		hasher: h,
		logger: options.logger,
	}, nil
}

type phaseTimer struct {
	logger *slog.Logger
	phases []report.Phase
	start  time.Time
}

func (p *phaseTimer) begin() {
	p.start = time.Now()
}

func (p *phaseTimer) end(name string, args ...any) {
	d := time.Since(p.start)
	p.phases = append(p.phases, report.Phase{Name: name, Duration: d})
	p.logger.Info(name+" finished", append([]any{"duration", d}, args...)...)
}

// Build scans the input, writes every output stream to a temporary file
// and publishes them together.  On error nothing is published.  ctx is
// checked between payload files.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	cfg := &b.cfg
	containerName := cfg.Container()
	containerID, err := iostore.HashName(containerName)
	if err != nil {
		return nil, fmt.Errorf("container id: %w", err)
	}
	timer := &phaseTimer{logger: b.logger}

	timer.begin()
	tree, profile, err := assettree.Scan(cfg.Input, assettree.WithScanLogger(b.logger))
	if err != nil {
		return nil, fmt.Errorf("assettree.Scan: %w", err)
	}
	timer.end("scan", "dirs", tree.NumDirs(), "files", tree.NumFiles(), "skipped", len(profile.Skipped), "failed", len(profile.Failed))

	timer.begin()
	tables, err := flatten.Flatten(tree, flatten.WithSortedPayload(cfg.Sort))
	if err != nil {
		return nil, fmt.Errorf("flatten.Flatten: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	timer.end("flatten", "names", len(tables.Names), "sorted", cfg.Sort)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outs, err := newOutputs(cfg.Output)
	if err != nil {
		return nil, err
	}
	published := false
	defer func() {
		if !published {
			outs.abort()
		}
	}()

	timer.begin()
	cas, err := b.writePayload(ctx, outs, containerID, tables)
	if err != nil {
		return nil, err
	}
	timer.end("payload", "blocks", len(cas.Blocks), "bytes", cas.PhysicalSize)

	timer.begin()
	toc := &tocfile.TOC{
		ContainerID: containerID,
		BlockSize:   cfg.BlockSize,
		MethodName:  b.codec.Name(),
		MountPoint:  cfg.MountPoint,
		Tables:      tables,
		Offsets:     cas.Offsets,
		Blocks:      cas.Blocks,
		Metas:       cas.Metas,
	}
	utoc, err := outs.create(".utoc")
	if err != nil {
		return nil, err
	}
	if _, err := tocfile.Write(utoc, toc); err != nil {
		return nil, fmt.Errorf("tocfile.Write: %w", err)
	}
	if cfg.Pak {
		pak, err := outs.create(".pak")
		if err != nil {
			return nil, err
		}
		if _, err := pakfile.Write(pak, cfg.MountPoint, containerID); err != nil {
			return nil, fmt.Errorf("pakfile.Write: %w", err)
		}
	}
	timer.end("index")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paths, err := outs.publish()
	if err != nil {
		return nil, err
	}
	published = true

	return &Result{
		Profile: profile,
		Summary: &report.Summary{
			ContainerID:        containerID,
			Entries:            len(cas.Offsets),
			Packages:           cas.Packages,
			Blocks:             len(cas.Blocks),
			CompressedBlocks:   cas.CompressedBlocks,
			Method:             b.codec.Name(),
			MetaHash:           b.hasher.Name(),
			BytesIn:            cas.BytesIn,
			BytesOut:           cas.BytesOut,
			DirectoryIndexSize: tocfile.DirectoryIndexSize(cfg.MountPoint, tables),
			Duplicates:         cas.Duplicates,
			Outputs:            paths,
			Phases:             timer.phases,
		},
	}, nil
}

func (b *Builder) writePayload(ctx context.Context, outs *outputs, containerID uint64, tables *flatten.Tables) (*casfile.Result, error) {
	ucas, err := outs.create(".ucas")
	if err != nil {
		return nil, err
	}
	w, err := casfile.NewWriter(ucas, containerID,
		casfile.WithBlockSize(uint64(b.cfg.BlockSize)),
		casfile.WithBlockAlignment(uint64(b.cfg.BlockAlignment)),
		casfile.WithCodec(b.codec),
		casfile.WithMetaHasher(b.hasher),
		casfile.WithSummaries(b.cfg.Summaries),
		casfile.WithConcurrency(b.cfg.Jobs),
		casfile.WithLogger(b.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("casfile.NewWriter: %w", err)
	}
	for k := range tables.Order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.WriteFile(tables.Emitted(k)); err != nil {
			return nil, fmt.Errorf("payload: %w", err)
		}
	}
	result, err := w.Finish()
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	return result, nil
}
