// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// gen-testdata writes a synthetic cooked asset tree for manual and
// benchmark runs of tocmaker.
package main

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bpowers/tocmaker/internal/iopackage"
)

const hmacKey = "d259c7f656caf7f1"

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		var seedBytes [8]byte
		_, _ = crand.Read(seedBytes[:])
		seed = int64(binary.LittleEndian.Uint64(seedBytes[:]))
	}
	return rand.New(rand.NewSource(seed))
}

type generator struct {
	rng      *rand.Rand
	maxBytes int
	ids      []uint64
}

func (g *generator) name() string {
	var buf [8]byte
	_, _ = g.rng.Read(buf[:])
	h := hmac.New(sha256.New, []byte(hmacKey))
	h.Write(buf[:])
	return "A_" + hex.EncodeToString(h.Sum(nil))[:12]
}

// pkg writes one package, a bulk sibling for some, and returns the bytes
// written.
func (g *generator) pkg(dir string) (int, error) {
	stem := g.name()
	ext := ".uasset"
	if g.rng.Intn(10) == 0 {
		ext = ".umap"
	}
	exports := 1 + g.rng.Intn(8)
	bundles := make([]int, 1+g.rng.Intn(2))
	for i := range bundles {
		bundles[i] = 1 + g.rng.Intn(2*exports)
	}
	var imports []iopackage.Import
	for i := 0; i < g.rng.Intn(4) && len(g.ids) > 0; i++ {
		imports = append(imports, iopackage.Import{ID: g.ids[g.rng.Intn(len(g.ids))], Arcs: 1 + g.rng.Intn(3)})
	}
	id := g.rng.Uint64()
	g.ids = append(g.ids, id)

	data := iopackage.Synthesize(iopackage.SynthSpec{
		Name:    id,
		Exports: exports,
		Bundles: bundles,
		Imports: imports,
		Payload: g.rng.Intn(g.maxBytes),
	})
	if err := os.WriteFile(filepath.Join(dir, stem+ext), data, 0o644); err != nil {
		return 0, err
	}
	n := len(data)
	if g.rng.Intn(3) == 0 {
		bulk := make([]byte, g.rng.Intn(4*g.maxBytes))
		_, _ = g.rng.Read(bulk)
		if err := os.WriteFile(filepath.Join(dir, stem+".ubulk"), bulk, 0o644); err != nil {
			return 0, err
		}
		n += len(bulk)
	}
	return n, nil
}

func main() {
	var (
		out      = pflag.StringP("output", "o", "testdata/Cooked", "directory to create")
		project  = pflag.String("project", "MyGame", "project directory above Content")
		packages = pflag.IntP("packages", "n", 1000, "number of packages")
		dirs     = pflag.IntP("dirs", "d", 32, "number of Content subdirectories")
		maxBytes = pflag.Int("max-bytes", 256*1024, "upper bound on export payload per package")
		seed     = pflag.Int64("seed", 0, "random seed (0 picks one)")
	)
	pflag.Parse()

	if *dirs < 1 || *maxBytes < 1 {
		fmt.Fprintln(os.Stderr, "error: --dirs and --max-bytes must be positive")
		os.Exit(1)
	}

	g := &generator{rng: newRand(*seed), maxBytes: *maxBytes}
	content := filepath.Join(*out, *project, "Content")
	subdirs := make([]string, *dirs)
	for i := range subdirs {
		subdirs[i] = filepath.Join(content, g.name())
		if err := os.MkdirAll(subdirs[i], 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	total := 0
	for i := 0; i < *packages; i++ {
		n, err := g.pkg(subdirs[g.rng.Intn(len(subdirs))])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		total += n
	}
	fmt.Printf("wrote %d packages (%d bytes) under %s\n", *packages, total, content)
}
