// Package capture manages the directory of pcap files written by attack runs.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/duke-git/lancet/v2/fileutil"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"

	"github.com/wavecrack/wavecrackd/coordstate"
	"github.com/wavecrack/wavecrackd/lib/handshake"
)

// ErrNoCaptures indicates the capture directory holds no pcap files.
var ErrNoCaptures = errors.New("no capture files")

// File describes one capture file on disk.
type File struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Size      string `json:"size"`
	ModTime   int64  `json:"mtime"`
}

// Report is the handshake analysis of a single capture file.
type Report struct {
	File      string             `json:"file"`
	SizeBytes int64              `json:"size_bytes"`
	Analysis  handshake.Analysis `json:"analysis"`
}

// Store lists, analyzes, and stages capture files under a single directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("capture dir: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the capture directory path.
func (s *Store) Dir() string {
	return s.dir
}

// List returns all capture files, newest first.
func (s *Store) List() ([]File, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read capture dir: %w", err)
	}

	var files []File

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cap") {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		files = append(files, File{
			Name:      entry.Name(),
			SizeBytes: info.Size(),
			Size:      humanize.Bytes(uint64(info.Size())), //nolint:gosec // Sizes are non-negative
			ModTime:   info.ModTime().Unix(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ModTime > files[j].ModTime })

	return files, nil
}

// Latest returns the most recently modified capture file.
func (s *Store) Latest() (File, error) {
	files, err := s.List()
	if err != nil {
		return File{}, err
	}

	if len(files) == 0 {
		return File{}, ErrNoCaptures
	}

	return files[0], nil
}

// Analyze runs handshake analysis on the named capture file.
func (s *Store) Analyze(name string) (Report, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if !fileutil.IsExist(path) {
		return Report{}, fmt.Errorf("%w: %s", ErrNoCaptures, name)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Report{}, fmt.Errorf("stat capture: %w", err)
	}

	analysis, err := handshake.Analyze(path)
	if err != nil {
		return Report{}, err
	}

	return Report{
		File:      filepath.Base(path),
		SizeBytes: info.Size(),
		Analysis:  analysis,
	}, nil
}

// Remove deletes the named capture file.
func (s *Store) Remove(name string) error {
	path := filepath.Join(s.dir, filepath.Base(name))
	if !fileutil.IsExist(path) {
		return fmt.Errorf("%w: %s", ErrNoCaptures, name)
	}

	return fileutil.RemoveFile(path)
}

// Stage copies a capture file into stagingDir for the GPU worker to pick up
// and returns the staged path.
func (s *Store) Stage(name, stagingDir string) (string, error) {
	src := filepath.Join(s.dir, filepath.Base(name))
	if !fileutil.IsExist(src) {
		return "", fmt.Errorf("%w: %s", ErrNoCaptures, name)
	}

	if err := os.MkdirAll(stagingDir, 0o750); err != nil {
		return "", fmt.Errorf("staging dir: %w", err)
	}

	dst := filepath.Join(stagingDir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open capture: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return "", fmt.Errorf("stage capture: %w", err)
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("stage capture: %w", err)
	}

	coordstate.Logger.Info("Capture staged for GPU worker", "file", dst)

	return dst, nil
}

// Watch logs new capture files as they appear until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch capture dir: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch capture dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if ev.Has(fsnotify.Create) && strings.HasSuffix(ev.Name, ".cap") {
				coordstate.Logger.Info("New capture file", "file", filepath.Base(ev.Name))
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			coordstate.Logger.Debug("Capture watch error", "error", watchErr)
		}
	}
}
