package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	return store
}

func writeCap(t *testing.T, store *Store, name string, size int, mtime time.Time) {
	t.Helper()

	path := filepath.Join(store.Dir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	writeCap(t, store, "old-01.cap", 100, now.Add(-2*time.Hour))
	writeCap(t, store, "new-01.cap", 200, now)
	writeCap(t, store, "notes.txt", 10, now)

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "new-01.cap", files[0].Name)
	assert.Equal(t, int64(200), files[0].SizeBytes)
	assert.Equal(t, "old-01.cap", files[1].Name)
}

func TestLatest(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Latest()
	require.ErrorIs(t, err, ErrNoCaptures)

	writeCap(t, store, "a-01.cap", 50, time.Now().Add(-time.Hour))
	writeCap(t, store, "b-01.cap", 50, time.Now())

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, "b-01.cap", latest.Name)
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	writeCap(t, store, "gone-01.cap", 10, time.Now())

	require.NoError(t, store.Remove("gone-01.cap"))
	require.ErrorIs(t, store.Remove("gone-01.cap"), ErrNoCaptures)
}

func TestRemoveStripsPath(t *testing.T) {
	store := newTestStore(t)

	outside := filepath.Join(t.TempDir(), "secret.cap")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	require.Error(t, store.Remove("../"+filepath.Base(outside)))
	assert.FileExists(t, outside)
}

func TestStage(t *testing.T) {
	store := newTestStore(t)
	writeCap(t, store, "hs-01.cap", 128, time.Now())

	staging := t.TempDir()

	staged, err := store.Stage("hs-01.cap", staging)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(staging, "hs-01.cap"), staged)

	info, err := os.Stat(staged)
	require.NoError(t, err)
	assert.Equal(t, int64(128), info.Size())
}

func TestStageMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Stage("absent.cap", t.TempDir())
	require.ErrorIs(t, err, ErrNoCaptures)
}

func TestAnalyzeMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Analyze("absent.cap")
	require.ErrorIs(t, err, ErrNoCaptures)
}
