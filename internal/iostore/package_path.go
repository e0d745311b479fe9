// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package iostore

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RootToken is the first segment of every package name the runtime
	// resolves.
	RootToken = "Game"
	// AnchorSegment separates the physical prefix of a cooked tree from
	// the logical package path.
	AnchorSegment = "Content"
)

var (
	ErrNoExtension          = errors.New("file name has no extension separator")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrMissingAnchor        = errors.New("path has no " + AnchorSegment + " segment")
)

// SplitName splits a leaf file name at its sole extension separator.
func SplitName(name string) (stem, ext string, err error) {
	stem, ext, ok := strings.Cut(name, ".")
	if !ok {
		return "", "", fmt.Errorf("%q: %w", name, ErrNoExtension)
	}
	return stem, ext, nil
}

// PackagePath normalizes a directory hash path (non-root names joined by
// "/" with a trailing "/") and a file stem into the package name the
// runtime hashes, e.g. "Game/Content/Maps/" + "Foo" becomes
// "/Game/Maps/Foo".
//
// A tree scanned from below the logical root gets its first segment
// replaced by RootToken; a tree rooted at the anchor itself gets RootToken
// prepended.
func PackagePath(hashPath, stem string) (string, error) {
	segs := strings.Split(hashPath+stem, "/")
	switch {
	case segs[0] == RootToken:
	case segs[0] == AnchorSegment:
		segs = append([]string{RootToken}, segs...)
	default:
		segs[0] = RootToken
	}
	for i := 1; i < len(segs); i++ {
		if segs[i] == AnchorSegment {
			rest := append(segs[:i:i], segs[i+1:]...)
			return "/" + strings.Join(rest, "/"), nil
		}
	}
	return "", fmt.Errorf("%q: %w", hashPath+stem, ErrMissingAnchor)
}

// ChunkIDForFile derives the ChunkID of the file named name living under
// hashPath.
func ChunkIDForFile(hashPath, name string) (ChunkID, error) {
	stem, ext, err := SplitName(name)
	if err != nil {
		return ChunkID{}, err
	}
	t, ok := ChunkTypeForExtension(ext)
	if !ok {
		return ChunkID{}, fmt.Errorf("%q: %w", name, ErrUnsupportedExtension)
	}
	pkg, err := PackagePath(hashPath, stem)
	if err != nil {
		return ChunkID{}, err
	}
	return NewChunkID(pkg, t)
}
