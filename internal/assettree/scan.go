// Copyright 2026 The tocmaker Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package assettree

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bpowers/tocmaker/internal/iopackage"
	"github.com/bpowers/tocmaker/internal/iostore"
)

var (
	ErrSourceNotFound = errors.New("source directory does not exist")
	ErrNotDirectory   = errors.New("source path is not a directory")
)

// Reasons a file is left out of the tree.
const (
	ReasonUnsupported        = "unsupported file type"
	ReasonNoExtension        = "no file extension"
	ReasonMultipleExtensions = "multiple extension separators"
	ReasonInvalidHeader      = "not in IoStore package format"
)

// Skipped describes a regular file that was not added to the tree.
type Skipped struct {
	Path   string
	Reason string
	Size   uint64
}

// Failed describes a filesystem entry that could not be read.  Dir is the
// parent directory the failure is recorded against.
type Failed struct {
	Dir string
	Err error
}

// Profile is the side-channel record of a scan.  Directories counts
// every directory in the tree, the root included.
type Profile struct {
	Root         string
	Directories  int
	Files        int
	AddedBytes   uint64
	SkippedBytes uint64
	Skipped      []Skipped
	Failed       []Failed
}

// ScanOption configures Scan.
type ScanOption func(*scanOptions)

type scanOptions struct {
	logger      *slog.Logger
	validHeader func([]byte) bool
}

// WithScanLogger sets an optional logger for per-entry decisions.
// If not provided, no logging output will be produced.
func WithScanLogger(logger *slog.Logger) ScanOption {
	return func(opts *scanOptions) {
		opts.logger = logger
	}
}

// WithHeaderValidator replaces the check applied to the first bytes of
// .uasset and .umap files.
func WithHeaderValidator(valid func([]byte) bool) ScanOption {
	return func(opts *scanOptions) {
		opts.validHeader = valid
	}
}

type scanner struct {
	tree    *Tree
	profile *Profile
	scanOptions
}

// Scan walks root and returns the tree of eligible asset files under it.
// Only directories that contain an eligible file, directly or further
// down, are part of the tree.  Entries that cannot be read are recorded
// in the profile and do not stop the scan.
func Scan(root string, opts ...ScanOption) (*Tree, *Profile, error) {
	var options scanOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	options.validHeader = iopackage.IsValidHeader
	for _, opt := range opts {
		opt(&options)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	fi, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%s: %w", root, ErrSourceNotFound)
	} else if err != nil {
		return nil, nil, fmt.Errorf("os.Stat: %w", err)
	}
	if !fi.IsDir() {
		return nil, nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	s := &scanner{
		tree:        New(),
		profile:     &Profile{Root: root, Directories: 1},
		scanOptions: options,
	}
	s.scanDir(root, Root)
	return s.tree, s.profile, nil
}

// scanDir adds the contents of osPath to dir and reports whether any file
// was added at or below it.
func (s *scanner) scanDir(osPath string, dir DirID) bool {
	entries, err := os.ReadDir(osPath)
	if err != nil {
		s.fail(osPath, fmt.Errorf("os.ReadDir: %w", err))
		// ReadDir returns what it read before the error; keep going with it
	}

	found := false
	for _, entry := range entries {
		path := filepath.Join(osPath, entry.Name())
		switch {
		case entry.IsDir():
			if s.scanSubdir(path, dir, entry.Name()) {
				found = true
			}
		case entry.Type().IsRegular():
			if s.scanFile(osPath, path, dir, entry) {
				found = true
			}
		default:
			s.logger.Debug("ignoring non-regular entry", "path", path, "mode", entry.Type().String())
		}
	}
	return found
}

func (s *scanner) scanSubdir(path string, parent DirID, name string) bool {
	id := s.tree.allocDirectory(parent, name)
	if !s.scanDir(path, id) {
		// nothing eligible below here: nothing was linked to id either
		s.tree.truncateDirs(id)
		s.logger.Debug("pruning directory without assets", "path", path)
		return false
	}
	s.tree.linkDirectory(id)
	s.profile.Directories++
	return true
}

func (s *scanner) scanFile(dirPath, path string, dir DirID, entry fs.DirEntry) bool {
	info, err := entry.Info()
	if err != nil {
		s.fail(dirPath, fmt.Errorf("%s: Info: %w", entry.Name(), err))
		return false
	}
	size := uint64(info.Size())
	name := entry.Name()

	ext, reason := classify(name)
	if reason != "" {
		s.skip(path, reason, size)
		return false
	}
	if t, _ := iostore.ChunkTypeForExtension(ext); t == iostore.ChunkExportBundleData {
		probe, err := readProbe(path)
		if err != nil {
			s.fail(dirPath, fmt.Errorf("%s: %w", name, err))
			return false
		}
		if !s.validHeader(probe) {
			s.skip(path, ReasonInvalidHeader, size)
			return false
		}
	}

	s.tree.AddFile(dir, name, size, path)
	s.profile.Files++
	s.profile.AddedBytes += size
	s.logger.Debug("added", "path", path, "size", size)
	return true
}

// classify returns the extension of an eligible name, or the reason it
// is not eligible.
func classify(name string) (ext string, reason string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", ReasonNoExtension
	}
	ext = name[i+1:]
	if _, ok := iostore.ChunkTypeForExtension(ext); !ok {
		return "", ReasonUnsupported
	}
	if strings.IndexByte(name, '.') != i {
		return "", ReasonMultipleExtensions
	}
	return ext, ""
}

func readProbe(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()
	buf := make([]byte, iopackage.HeaderProbeSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return buf[:n], nil
}

func (s *scanner) skip(path, reason string, size uint64) {
	s.logger.Debug("skipped", "path", path, "reason", reason)
	s.profile.Skipped = append(s.profile.Skipped, Skipped{Path: path, Reason: reason, Size: size})
	s.profile.SkippedBytes += size
}

func (s *scanner) fail(dir string, err error) {
	s.logger.Warn("unreadable entry", "dir", dir, "err", err)
	s.profile.Failed = append(s.profile.Failed, Failed{Dir: dir, Err: err})
}
