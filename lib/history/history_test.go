package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().Unix()
	require.NoError(t, store.Record(Entry{
		SSID: "HomeNet", BSSID: "aa:bb:cc:dd:ee:01",
		Result: "letmein", Success: true,
		StartedAt: now - 120, FinishedAt: now - 60,
	}))
	require.NoError(t, store.Record(Entry{
		SSID: "OfficeNet", Result: "NOT FOUND",
		StartedAt: now - 30, FinishedAt: now,
	}))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "OfficeNet", entries[0].SSID)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "HomeNet", entries[1].SSID)
	assert.True(t, entries[1].Success)
	assert.Equal(t, "letmein", entries[1].Result)
}

func TestRecentLimit(t *testing.T) {
	store := newTestStore(t)

	for i := range 5 {
		require.NoError(t, store.Record(Entry{
			SSID:       "Net",
			StartedAt:  int64(i),
			FinishedAt: int64(i),
		}))
	}

	entries, err := store.Recent(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRecentEmpty(t *testing.T) {
	store := newTestStore(t)

	entries, err := store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
