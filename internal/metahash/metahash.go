// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package metahash computes the per-entry verification hash stored in a
// container's entry metadata.
package metahash

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Size is the width of the hash slot in an entry's metadata.
const Size = 32

// Hasher fills the metadata hash slot for one chunk.
type Hasher interface {
	Name() string
	// Sum hashes data into a zero-padded slot.  The placeholder hasher
	// returns all zeros.
	Sum(data []byte) [Size]byte
}

// Names lists the values Parse accepts.
var Names = []string{"none", "sha1", "blake3"}

func Parse(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return None, nil
	case "sha1":
		return SHA1, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return nil, fmt.Errorf("unknown meta hash %q (want one of %s)", name, strings.Join(Names, ", "))
	}
}

type none struct{}

func (none) Name() string { return "none" }

func (none) Sum([]byte) [Size]byte { return [Size]byte{} }

type sha1Hasher struct{}

func (sha1Hasher) Name() string { return "sha1" }

func (sha1Hasher) Sum(data []byte) [Size]byte {
	var out [Size]byte
	sum := sha1.Sum(data)
	copy(out[:], sum[:])
	return out
}

type blake3Hasher struct{}

func (blake3Hasher) Name() string { return "blake3" }

func (blake3Hasher) Sum(data []byte) [Size]byte {
	return blake3.Sum256(data)
}

var (
	// None leaves the slot zeroed.
	None Hasher = none{}
	// SHA1 is the digest the runtime verifies, zero padded.
	SHA1 Hasher = sha1Hasher{}
	// BLAKE3 fills the whole slot.
	BLAKE3 Hasher = blake3Hasher{}
)
