// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// tocmaker packages a directory of cooked assets into an IoStore
// container (.utoc, .ucas and a wrapper .pak).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/bpowers/tocmaker"
	"github.com/bpowers/tocmaker/internal/codec"
	"github.com/bpowers/tocmaker/internal/config"
	"github.com/bpowers/tocmaker/internal/metahash"
	"github.com/bpowers/tocmaker/internal/report"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	set *pflag.FlagSet

	configPath string
	zlib       bool
	noSort     bool
	noPak      bool
	verbose    bool
	quiet      bool
	help       bool
	cfg        config.Config
}

func newFlags(stderr io.Writer) *flags {
	f := &flags{cfg: *config.Default()}
	fs := pflag.NewFlagSet("tocmaker", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML file of build settings")
	fs.BoolVarP(&f.zlib, "zlib", "z", false, "shorthand for --compression=zlib")
	fs.StringVar(&f.cfg.Compression, "compression", f.cfg.Compression, fmt.Sprintf("block compression (%v)", codec.Names))
	fs.StringVar(&f.cfg.MetaHash, "meta-hash", f.cfg.MetaHash, fmt.Sprintf("entry hash (%v)", metahash.Names))
	fs.BoolVar(&f.cfg.Sort, "sort", f.cfg.Sort, "order payload by directory, kind and size")
	fs.BoolVar(&f.noSort, "no-sort", false, "keep payload in traversal order")
	fs.BoolVar(&f.cfg.Summaries, "summaries", f.cfg.Summaries, "parse package summaries into the container header")
	fs.Uint32Var(&f.cfg.BlockSize, "block-size", f.cfg.BlockSize, "compression block size in bytes")
	fs.Uint32Var(&f.cfg.BlockAlignment, "block-alignment", f.cfg.BlockAlignment, "alignment of blocks in the payload stream")
	fs.StringVar(&f.cfg.MountPoint, "mount-point", f.cfg.MountPoint, "mount point recorded in the index and pak")
	fs.StringVar(&f.cfg.ContainerName, "container-name", "", "name hashed into the container id (default: base name of the output)")
	fs.BoolVar(&f.noPak, "no-pak", false, "do not write the wrapper .pak")
	fs.IntVarP(&f.cfg.Jobs, "jobs", "j", f.cfg.Jobs, "blocks compressed concurrently")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log every chunk")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "do not print the scan profile and build report")
	fs.BoolVarP(&f.help, "help", "h", false, "show help")
	f.set = fs
	return f
}

// resolve layers the config file, then changed flags, then positional
// arguments over the defaults.
func (f *flags) resolve() (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := f.set.Changed
	if changed("compression") {
		cfg.Compression = f.cfg.Compression
	}
	if f.zlib {
		cfg.Compression = "zlib"
	}
	if changed("meta-hash") {
		cfg.MetaHash = f.cfg.MetaHash
	}
	if changed("sort") {
		cfg.Sort = f.cfg.Sort
	}
	if f.noSort {
		cfg.Sort = false
	}
	if changed("summaries") {
		cfg.Summaries = f.cfg.Summaries
	}
	if changed("block-size") {
		cfg.BlockSize = f.cfg.BlockSize
	}
	if changed("block-alignment") {
		cfg.BlockAlignment = f.cfg.BlockAlignment
	}
	if changed("mount-point") {
		cfg.MountPoint = f.cfg.MountPoint
	}
	if changed("container-name") {
		cfg.ContainerName = f.cfg.ContainerName
	}
	if f.noPak {
		cfg.Pak = false
	}
	if changed("jobs") {
		cfg.Jobs = f.cfg.Jobs
	}

	args := f.set.Args()
	if len(args) > 2 {
		return nil, fmt.Errorf("unexpected argument: %s", args[2])
	}
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if len(args) > 1 {
		cfg.Output = args[1]
	}
	if cfg.Input == "" || cfg.Output == "" {
		return nil, errors.New("need an input directory and an output stem (see --help)")
	}
	return cfg, cfg.Validate()
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `tocmaker packages cooked assets into an IoStore container.

Usage: tocmaker [flags] <input dir> <output stem>

Writes <output stem>.utoc, <output stem>.ucas and <output stem>.pak.
Settings come from the defaults, then --config, then flags.

Flags:
%s`, fs.FlagUsages())
}

func run(args []string, stdout, stderr io.Writer) error {
	f := newFlags(stderr)
	if err := f.set.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, f.set)
			return nil
		}
		return err
	}
	if f.help {
		printHelp(stdout, f.set)
		return nil
	}

	cfg, err := f.resolve()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	b, err := tocmaker.NewBuilder(cfg, tocmaker.WithBuilderLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := b.Build(ctx)
	if err != nil {
		return err
	}
	if f.quiet {
		return nil
	}
	if err := report.Profile(stdout, res.Profile); err != nil {
		return err
	}
	return report.Build(stdout, res.Summary)
}
