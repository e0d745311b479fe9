// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package iostore defines the fixed-width records of an IoStore container
// table of contents and how they are laid out on disk.
//
// A .utoc file produced by this module looks like:
//
//	┌──────────────────────────┐
//	│ TocHeader (144 bytes)    │
//	├──────────────────────────┤
//	│ ChunkID × entries        │  12 bytes each
//	├──────────────────────────┤
//	│ OffsetAndLength × entries│  10 bytes each
//	├──────────────────────────┤
//	│ CompressedBlock × blocks │  12 bytes each
//	├──────────────────────────┤
//	│ method names (optional)  │  32 bytes each
//	├──────────────────────────┤
//	│ directory index          │  mount point, dirs, files, strings
//	├──────────────────────────┤
//	│ EntryMeta × entries      │  33 bytes each
//	└──────────────────────────┘
//
// Entry and block counts live in the header; the directory index carries
// its own inline counts.
package iostore
