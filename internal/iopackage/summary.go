// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package iopackage reads the package summary at the start of a cooked
// IoStore package and builds the container header that aggregates them.
package iopackage

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderProbeSize is how many leading bytes IsValidHeader looks at.
	HeaderProbeSize = 4

	// PackageFileTag starts every legacy (loose file) package.  Packages
	// that still carry it were not cooked for IoStore.
	PackageFileTag = 0x9E2A83C1

	SummarySize        = 64
	ExportMapEntrySize = 72

	bundleSlotSize = 8
)

var ErrMalformedSummary = errors.New("malformed package summary")

// IsValidHeader reports whether b, the first bytes of a .uasset or .umap,
// can belong to an IoStore package.
func IsValidHeader(b []byte) bool {
	if len(b) < HeaderProbeSize {
		return false
	}
	return binary.LittleEndian.Uint32(b) != PackageFileTag &&
		binary.BigEndian.Uint32(b) != PackageFileTag
}

// Summary is the subset of a package summary the container header needs.
type Summary struct {
	Name             uint64
	SourceName       uint64
	PackageFlags     uint32
	CookedHeaderSize uint32
	ExportCount      int32
	BundleCount      int32
	ImportedPackages []uint64
}

type rawSummary struct {
	name, sourceName    uint64
	packageFlags        uint32
	cookedHeaderSize    uint32
	nameMapNamesOffset  int32
	nameMapNamesSize    int32
	nameMapHashesOffset int32
	nameMapHashesSize   int32
	importMapOffset     int32
	exportMapOffset     int32
	exportBundlesOffset int32
	graphDataOffset     int32
	graphDataSize       int32
}

func parseRaw(b []byte) rawSummary {
	le := binary.LittleEndian
	i32 := func(off int) int32 { return int32(le.Uint32(b[off:])) }
	return rawSummary{
		name:                le.Uint64(b[0:]),
		sourceName:          le.Uint64(b[8:]),
		packageFlags:        le.Uint32(b[16:]),
		cookedHeaderSize:    le.Uint32(b[20:]),
		nameMapNamesOffset:  i32(24),
		nameMapNamesSize:    i32(28),
		nameMapHashesOffset: i32(32),
		nameMapHashesSize:   i32(36),
		importMapOffset:     i32(40),
		exportMapOffset:     i32(44),
		exportBundlesOffset: i32(48),
		graphDataOffset:     i32(52),
		graphDataSize:       i32(56),
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedSummary, fmt.Sprintf(format, args...))
}

// ExtractSummary parses the package summary at the start of data, which
// must hold at least the whole cooked header.
func ExtractSummary(data []byte) (Summary, error) {
	if len(data) < SummarySize {
		return Summary{}, malformed("%d bytes is shorter than the %d byte summary", len(data), SummarySize)
	}
	raw := parseRaw(data)

	size := int64(len(data))
	exportMap := int64(raw.exportMapOffset)
	bundles := int64(raw.exportBundlesOffset)
	graph := int64(raw.graphDataOffset)
	graphEnd := graph + int64(raw.graphDataSize)
	if exportMap < SummarySize || bundles < exportMap || graph < bundles || raw.graphDataSize < 0 || graphEnd > size {
		return Summary{}, malformed("section offsets out of order or out of range (exports %d, bundles %d, graph %d+%d, size %d)",
			exportMap, bundles, graph, raw.graphDataSize, size)
	}
	if (bundles-exportMap)%ExportMapEntrySize != 0 {
		return Summary{}, malformed("export map size %d is not a multiple of %d", bundles-exportMap, ExportMapEntrySize)
	}

	bundleCount, err := countBundles(data[bundles:graph])
	if err != nil {
		return Summary{}, err
	}
	imports, err := importedPackages(data[graph:graphEnd])
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Name:             raw.name,
		SourceName:       raw.sourceName,
		PackageFlags:     raw.packageFlags,
		CookedHeaderSize: raw.cookedHeaderSize,
		ExportCount:      int32((bundles - exportMap) / ExportMapEntrySize),
		BundleCount:      bundleCount,
		ImportedPackages: imports,
	}, nil
}

// countBundles walks the bundle headers at the start of b.  The headers
// are followed by every bundle's entries, all 8 bytes wide, so the header
// count is the i where i headers plus their entries fill b exactly.
func countBundles(b []byte) (int32, error) {
	if len(b)%bundleSlotSize != 0 {
		return 0, malformed("export bundle section of %d bytes is not a multiple of %d", len(b), bundleSlotSize)
	}
	slots := int64(len(b) / bundleSlotSize)
	if slots == 0 {
		return 0, nil
	}
	var entries int64
	for i := int64(0); i < slots; i++ {
		hdr := b[i*bundleSlotSize:]
		entries += int64(binary.LittleEndian.Uint32(hdr[4:8]))
		switch used := i + 1 + entries; {
		case used == slots:
			return int32(i + 1), nil
		case used > slots:
			return 0, malformed("export bundle %d overruns its section (%d > %d slots)", i, used, slots)
		}
	}
	return 0, malformed("export bundle headers never account for the section")
}

// importedPackages reads the package ids out of the graph data.
func importedPackages(b []byte) ([]uint64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b) < 4 {
		return nil, malformed("graph data of %d bytes has no count", len(b))
	}
	count := int32(binary.LittleEndian.Uint32(b))
	if count < 0 {
		return nil, malformed("negative imported package count %d", count)
	}
	off := 4
	var ids []uint64
	for i := int32(0); i < count; i++ {
		if off+12 > len(b) {
			return nil, malformed("graph data truncated at imported package %d", i)
		}
		ids = append(ids, binary.LittleEndian.Uint64(b[off:]))
		arcs := int32(binary.LittleEndian.Uint32(b[off+8:]))
		if arcs < 0 {
			return nil, malformed("negative arc count %d for imported package %d", arcs, i)
		}
		off += 12 + int(arcs)*8
		if off > len(b) {
			return nil, malformed("graph data truncated in arcs of imported package %d", i)
		}
	}
	return ids, nil
}
