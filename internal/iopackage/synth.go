// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package iopackage

import (
	"bytes"

	"github.com/bpowers/tocmaker/internal/binio"
)

// Import is one imported package in a synthesized package's graph data.
type Import struct {
	ID   uint64
	Arcs int
}

// SynthSpec describes a minimal cooked package for fixtures.
type SynthSpec struct {
	Name         uint64
	PackageFlags uint32
	Exports      int
	// Bundles holds the entry count of each export bundle.
	Bundles []int
	Imports []Import
	// Payload is the number of export bytes following the header.
	Payload int
}

// Synthesize returns a package whose summary ExtractSummary parses back
// into spec.  The export payload is filled with a repeating pattern.
func Synthesize(spec SynthSpec) []byte {
	exportMap := SummarySize
	bundles := exportMap + spec.Exports*ExportMapEntrySize
	entries := 0
	for _, n := range spec.Bundles {
		entries += n
	}
	graph := bundles + (len(spec.Bundles)+entries)*bundleSlotSize
	graphSize := 0
	if len(spec.Imports) > 0 {
		graphSize = 4
		for _, imp := range spec.Imports {
			graphSize += 12 + imp.Arcs*8
		}
	}
	cooked := graph + graphSize

	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.U64(spec.Name)
	w.U64(spec.Name)
	w.U32(spec.PackageFlags)
	w.U32(uint32(cooked))
	w.I32(int32(exportMap)) // name map names
	w.I32(0)
	w.I32(int32(exportMap)) // name map hashes
	w.I32(0)
	w.I32(int32(exportMap)) // import map
	w.I32(int32(exportMap))
	w.I32(int32(bundles))
	w.I32(int32(graph))
	w.I32(int32(graphSize))
	w.I32(0)

	w.Bytes(make([]byte, spec.Exports*ExportMapEntrySize))
	first := 0
	for _, n := range spec.Bundles {
		w.U32(uint32(first))
		w.U32(uint32(n))
		first += n
	}
	for i := 0; i < entries; i++ {
		w.U32(uint32(i % max(spec.Exports, 1)))
		w.U32(uint32(i % 2))
	}
	if len(spec.Imports) > 0 {
		w.I32(int32(len(spec.Imports)))
		for _, imp := range spec.Imports {
			w.U64(imp.ID)
			w.I32(int32(imp.Arcs))
			for a := 0; a < imp.Arcs; a++ {
				w.I32(int32(a))
				w.I32(0)
			}
		}
	}
	for i := 0; i < spec.Payload; i++ {
		w.U8(byte(i * 7))
	}
	return buf.Bytes()
}
