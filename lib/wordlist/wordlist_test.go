package wordlist

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, dir, name string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o600))
}

func TestDiscoverPriorityOrder(t *testing.T) {
	dir := t.TempDir()
	writeList(t, dir, "custom.txt", 10)
	writeList(t, dir, "rockyou.txt", 100)
	writeList(t, dir, "another.txt", 20)
	writeList(t, dir, "fasttrack.txt", 30)
	writeList(t, dir, "readme.md", 5)

	lists, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, lists, 4)

	assert.Equal(t, "rockyou.txt", lists[0].Name)
	assert.Equal(t, "fasttrack.txt", lists[1].Name)
	assert.Equal(t, "another.txt", lists[2].Name)
	assert.Equal(t, "custom.txt", lists[3].Name)
	assert.Equal(t, int64(100), lists[0].SizeBytes)
}

func TestDiscoverCollapsesSymlinks(t *testing.T) {
	dir := t.TempDir()
	writeList(t, dir, "rockyou.txt", 100)
	require.NoError(t, os.Symlink(
		filepath.Join(dir, "rockyou.txt"),
		filepath.Join(dir, "alias.txt")))

	lists, err := Discover(dir)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestDiscoverEmptyDir(t *testing.T) {
	lists, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "password\nletmein\n")
	}))
	defer srv.Close()

	dest := t.TempDir()

	path, err := Fetch(context.Background(), srv.URL+"/small.txt", dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "small.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "password\nletmein\n", string(data))
}
