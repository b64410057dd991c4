// Package wordlist discovers and downloads dictionary files for cracking.
package wordlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	getter "github.com/hashicorp/go-getter"

	"github.com/wavecrack/wavecrackd/coordstate"
)

// ErrNoWordlists indicates no dictionary files were found.
var ErrNoWordlists = errors.New("no wordlists found")

// preferredNames are tried first, in order, when building the crack queue.
var preferredNames = []string{"rockyou.txt", "fasttrack.txt"} //nolint:gochecknoglobals // Static priority list

// Wordlist is a dictionary file available for local cracking.
type Wordlist struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Size      string `json:"size"`
}

// Discover returns the dictionaries under dir, preferred names first and the
// rest ordered by name. Symlinked duplicates are collapsed.
func Discover(dir string) ([]Wordlist, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read wordlist dir: %w", err)
	}

	byPath := make(map[string]Wordlist)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		real, realErr := filepath.EvalSymlinks(path)
		if realErr != nil {
			continue
		}

		info, infoErr := os.Stat(real)
		if infoErr != nil {
			continue
		}

		if _, seen := byPath[real]; seen {
			continue
		}

		byPath[real] = Wordlist{
			Name:      entry.Name(),
			Path:      path,
			SizeBytes: info.Size(),
			Size:      humanize.Bytes(uint64(info.Size())), //nolint:gosec // Sizes are non-negative
		}
	}

	lists := make([]Wordlist, 0, len(byPath))
	for _, w := range byPath {
		lists = append(lists, w)
	}

	sort.Slice(lists, func(i, j int) bool {
		pi, pj := priority(lists[i].Name), priority(lists[j].Name)
		if pi != pj {
			return pi < pj
		}

		return lists[i].Name < lists[j].Name
	})

	return lists, nil
}

func priority(name string) int {
	for i, preferred := range preferredNames {
		if name == preferred {
			return i
		}
	}

	return len(preferredNames)
}

// Fetch downloads a wordlist from url into destDir and returns its path.
// Progress is rendered to the terminal while the transfer runs.
func Fetch(ctx context.Context, url, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", fmt.Errorf("wordlist dir: %w", err)
	}

	name := filepath.Base(strings.SplitN(url, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		name = "wordlist.txt"
	}

	dest := filepath.Join(destDir, name)

	coordstate.Logger.Info("Downloading wordlist", "url", url, "dest", dest)

	client := &getter.Client{
		Ctx:     ctx,
		Src:     url,
		Dst:     dest,
		Mode:    getter.ClientModeFile,
		Options: []getter.ClientOption{getter.WithProgress(defaultProgressBar)},
	}

	if err := client.Get(); err != nil {
		return "", fmt.Errorf("download wordlist: %w", err)
	}

	return dest, nil
}

// progressBar adapts pb to go-getter's progress tracking hook.
type progressBar struct{}

var defaultProgressBar getter.ProgressTracker = &progressBar{} //nolint:gochecknoglobals // Shared tracker

// TrackProgress wraps the transfer stream with a terminal progress bar.
func (p *progressBar) TrackProgress(src string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	bar := pb.Full.Start64(totalSize)
	bar.SetCurrent(currentSize)
	bar.Set("prefix", filepath.Base(src)+" ")

	reader := bar.NewProxyReader(stream)

	return &progressReader{reader: reader, bar: bar, stream: stream}
}

type progressReader struct {
	reader io.Reader
	bar    *pb.ProgressBar
	stream io.ReadCloser
}

func (r *progressReader) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r *progressReader) Close() error {
	r.bar.Finish()

	return r.stream.Close()
}
