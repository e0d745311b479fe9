// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package report prints human-readable scan and build statistics.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bpowers/tocmaker/internal/assettree"
)

const width = 80

// Phase is a named step of a build and how long it took.
type Phase struct {
	Name     string
	Duration time.Duration
}

// Summary describes a finished build.
type Summary struct {
	ContainerID        uint64
	Entries            int
	Packages           int
	Blocks             int
	CompressedBlocks   int
	Method             string
	MetaHash           string
	BytesIn            uint64
	BytesOut           uint64
	DirectoryIndexSize uint32
	Duplicates         int
	Outputs            []string
	Phases             []Phase
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) rule(c string) {
	p.printf("%s\n", strings.Repeat(c, width))
}

// Profile prints what a scan added, skipped and failed to read.
func Profile(w io.Writer, prof *assettree.Profile) error {
	p := &printer{w: w}
	p.rule("#")
	p.printf("%s\n", prof.Root)
	p.rule("=")
	p.printf("%d directories added\n", prof.Directories)
	p.printf("%d added files (%s)\n", prof.Files, humanize.IBytes(prof.AddedBytes))
	if len(prof.Skipped) > 0 {
		p.rule("-")
		p.printf("SKIPPED: %d files (%s)\n", len(prof.Skipped), humanize.IBytes(prof.SkippedBytes))
		for _, s := range prof.Skipped {
			p.printf("file: %s, reason: %s\n", s.Path, s.Reason)
		}
	}
	if len(prof.Failed) > 0 {
		p.rule("-")
		p.printf("FAILED TO LOAD: %d entries\n", len(prof.Failed))
		for _, f := range prof.Failed {
			p.printf("inside folder %q: %v\n", f.Dir, f.Err)
		}
	}
	p.rule("=")
	return p.err
}

// Ratio returns out/in, or 1 for an empty input.
func Ratio(in, out uint64) float64 {
	if in == 0 {
		return 1
	}
	return float64(out) / float64(in)
}

// Build prints the summary of a finished build.
func Build(w io.Writer, s *Summary) error {
	p := &printer{w: w}
	method := s.Method
	if method == "" {
		method = "none"
	}
	p.printf("container id:         %016x\n", s.ContainerID)
	p.printf("entries:              %s (%s packages)\n", humanize.Comma(int64(s.Entries)), humanize.Comma(int64(s.Packages)))
	p.printf("compression blocks:   %s (%s compressed, method %s)\n",
		humanize.Comma(int64(s.Blocks)), humanize.Comma(int64(s.CompressedBlocks)), method)
	p.printf("payload:              %s -> %s (%.1f%%)\n",
		humanize.IBytes(s.BytesIn), humanize.IBytes(s.BytesOut), 100*Ratio(s.BytesIn, s.BytesOut))
	p.printf("directory index:      %s\n", humanize.IBytes(uint64(s.DirectoryIndexSize)))
	p.printf("entry meta hash:      %s\n", s.MetaHash)
	if s.Duplicates > 0 {
		p.printf("duplicate payloads:   %d\n", s.Duplicates)
	}
	for _, ph := range s.Phases {
		p.printf("%-21s %s\n", ph.Name+" time:", ph.Duration.Round(time.Microsecond))
	}
	for _, out := range s.Outputs {
		p.printf("wrote %s\n", out)
	}
	return p.err
}
