// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package config holds the settings of a container build.
//
// Settings start from Default, are overlaid by an optional YAML file and
// then by command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bpowers/tocmaker/internal/casfile"
	"github.com/bpowers/tocmaker/internal/codec"
	"github.com/bpowers/tocmaker/internal/metahash"
	"github.com/bpowers/tocmaker/internal/tocfile"
)

const (
	// MinBlockSize keeps every block large enough to be worth a table entry.
	MinBlockSize = 16
	// MaxBlockSize is exclusive: block sizes are stored in 24 bits.
	MaxBlockSize = 1 << 24
)

// Config is the full set of build settings.
type Config struct {
	// Input is the directory of cooked assets to package.
	Input string `yaml:"input"`
	// Output is the path stem; .utoc, .ucas and .pak are appended.
	Output string `yaml:"output"`

	// Compression names the block codec: none, zlib, gzip or lz4.
	Compression string `yaml:"compression"`
	// MetaHash names the entry verification hash: none, sha1 or blake3.
	MetaHash string `yaml:"meta_hash"`
	// Sort orders payload by directory, kind and size.  Off keeps
	// traversal order.
	Sort bool `yaml:"sort"`
	// Summaries parses export bundles into the container header.
	Summaries bool `yaml:"summaries"`

	BlockSize      uint32 `yaml:"block_size"`
	BlockAlignment uint32 `yaml:"block_alignment"`
	MountPoint     string `yaml:"mount_point"`
	// ContainerName is hashed into the container id.  Defaults to the
	// base name of Output.
	ContainerName string `yaml:"container_name"`

	// Pak writes the wrapper .pak next to the container.
	Pak bool `yaml:"pak"`
	// Jobs bounds how many blocks are compressed at once.
	Jobs int `yaml:"jobs"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Compression:    "none",
		MetaHash:       "sha1",
		Sort:           false,
		Summaries:      true,
		BlockSize:      casfile.DefaultBlockSize,
		BlockAlignment: casfile.DefaultBlockAlignment,
		MountPoint:     tocfile.DefaultMountPoint,
		Pak:            true,
		Jobs:           1,
	}
}

// Load reads the YAML file at path over the defaults.  Unknown keys are
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Codec returns the configured block codec.
func (c *Config) Codec() (codec.Codec, error) {
	return codec.Parse(c.Compression)
}

// Hasher returns the configured entry hash.
func (c *Config) Hasher() (metahash.Hasher, error) {
	return metahash.Parse(c.MetaHash)
}

// Container returns the name hashed into the container id.
func (c *Config) Container() string {
	if c.ContainerName != "" {
		return c.ContainerName
	}
	return filepath.Base(c.Output)
}

// Validate reports the first setting that cannot produce a container.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.New("no input directory")
	}
	if c.Output == "" {
		return errors.New("no output path")
	}
	if c.BlockSize < MinBlockSize || c.BlockSize >= MaxBlockSize {
		return fmt.Errorf("block size %#x outside [%#x, %#x)", c.BlockSize, MinBlockSize, MaxBlockSize)
	}
	if c.BlockAlignment == 0 {
		return errors.New("block alignment must be positive")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if _, err := c.Codec(); err != nil {
		return err
	}
	if _, err := c.Hasher(); err != nil {
		return err
	}
	return nil
}
