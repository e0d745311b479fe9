// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tocmaker/internal/config"
	"github.com/bpowers/tocmaker/internal/iopackage"
)

func resolve(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	f := newFlags(&bytes.Buffer{})
	require.NoError(t, f.set.Parse(args))
	return f.resolve()
}

func TestResolve_Defaults(t *testing.T) {
	cfg, err := resolve(t, "in", "out/pakchunk1")
	require.NoError(t, err)
	want := config.Default()
	want.Input, want.Output = "in", "out/pakchunk1"
	assert.Equal(t, want, cfg)
}

func TestResolve_Layering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input: from-file
output: from-file
compression: lz4
sort: true
jobs: 3
mount_point: ../../../MyGame/
`), 0o644))

	cfg, err := resolve(t, "-c", path, "-z", "--no-sort", "--no-pak", "--block-size", "65536", "in")
	require.NoError(t, err)
	assert.Equal(t, "in", cfg.Input, "positional arguments win over the file")
	assert.Equal(t, "from-file", cfg.Output)
	assert.Equal(t, "zlib", cfg.Compression)
	assert.False(t, cfg.Sort, "--no-sort wins over the file")
	assert.False(t, cfg.Pak)
	assert.Equal(t, uint32(65536), cfg.BlockSize)
	assert.Equal(t, 3, cfg.Jobs, "unchanged flags keep the file's value")
	assert.Equal(t, "../../../MyGame/", cfg.MountPoint)
}

func TestResolve_Errors(t *testing.T) {
	_, err := resolve(t)
	assert.Error(t, err)
	_, err = resolve(t, "a", "b", "c")
	assert.Error(t, err)
	_, err = resolve(t, "--compression", "zstd", "a", "b")
	assert.Error(t, err)
	_, err = resolve(t, "--block-size", "8", "a", "b")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(in, "Content"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "Content", "Hero.uasset"),
		iopackage.Synthesize(iopackage.SynthSpec{Name: 7, Exports: 1, Bundles: []int{2}, Payload: 64}), 0o644))
	out := filepath.Join(t.TempDir(), "mod_P")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"--meta-hash", "blake3", in, out}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "entry meta hash:      blake3")
	assert.Contains(t, stdout.String(), "wrote "+out+".utoc")
	assert.Contains(t, stderr.String(), "scan finished")
	for _, ext := range []string{".utoc", ".ucas", ".pak"} {
		assert.FileExists(t, out+ext)
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Usage: tocmaker")
	assert.Contains(t, stdout.String(), "--block-size")
}
