// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tocmaker/internal/casfile"
	"github.com/bpowers/tocmaker/internal/codec"
	"github.com/bpowers/tocmaker/internal/metahash"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tocmaker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	cfg.Input = "in"
	cfg.Output = "out/pakchunk99"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "pakchunk99", cfg.Container())
	assert.False(t, cfg.Sort, "payload keeps traversal order unless asked")

	c, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, codec.None, c)
	h, err := cfg.Hasher()
	require.NoError(t, err)
	assert.Equal(t, metahash.SHA1, h)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
input: /game/cooked
output: /out/mod_P
compression: zlib
meta_hash: blake3
sort: true
block_size: 65536
container_name: pakchunk120
jobs: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/game/cooked", cfg.Input)
	assert.Equal(t, "zlib", cfg.Compression)
	assert.Equal(t, "blake3", cfg.MetaHash)
	assert.True(t, cfg.Sort)
	assert.True(t, cfg.Summaries, "unset keys keep their defaults")
	assert.Equal(t, uint32(65536), cfg.BlockSize)
	assert.Equal(t, uint32(casfile.DefaultBlockAlignment), cfg.BlockAlignment)
	assert.Equal(t, "pakchunk120", cfg.Container())
	assert.Equal(t, 4, cfg.Jobs)
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeConfig(t, "compresion: zlib\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeConfig(t, "block_size: [1, 2]\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Input, cfg.Output = "in", "out"
		return cfg
	}
	cases := map[string]func(*Config){
		"no input":       func(c *Config) { c.Input = "" },
		"no output":      func(c *Config) { c.Output = "" },
		"tiny block":     func(c *Config) { c.BlockSize = 8 },
		"huge block":     func(c *Config) { c.BlockSize = MaxBlockSize },
		"zero alignment": func(c *Config) { c.BlockAlignment = 0 },
		"no jobs":        func(c *Config) { c.Jobs = 0 },
		"unknown codec":  func(c *Config) { c.Compression = "zstd" },
		"unknown hash":   func(c *Config) { c.MetaHash = "md5" },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	odd := valid()
	odd.BlockSize = 1000
	odd.BlockAlignment = 3
	assert.NoError(t, odd.Validate(), "any positive sizes are accepted")
}
