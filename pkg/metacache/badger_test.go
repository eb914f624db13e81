package metacache

import (
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store := newTestBadgerStore(t)

	entry, err := store.Read("https://example.com/")
	require.NoError(t, err)
	assert.Nil(t, entry, "clean miss should return nil entry")

	in := &Entry{
		Key:          "https://example.com/",
		Value:        Metadata{"title": "Example"},
		FetchedAt:    time.Now().UTC().Truncate(time.Millisecond),
		TTL:          time.Hour,
		FailureCount: 1,
	}
	require.NoError(t, store.Write(in))

	out, err := store.Read(in.Key)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Key, out.Key)
	assert.Equal(t, in.Value, out.Value)
	assert.Equal(t, in.TTL, out.TTL)
	assert.Equal(t, in.FailureCount, out.FailureCount)
	assert.True(t, out.FetchedAt.Equal(in.FetchedAt))

	require.NoError(t, store.Delete(in.Key))
	out, err = store.Read(in.Key)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestBadgerStoreCorruptValue(t *testing.T) {
	store := newTestBadgerStore(t)

	err := store.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("https://broken.example/"), []byte("{not json"))
	})
	require.NoError(t, err)

	_, err = store.Read("https://broken.example/")
	assert.True(t, errors.Is(err, ErrCorrupt), "expected ErrCorrupt, got %v", err)
}

func TestBadgerStoreStats(t *testing.T) {
	store := newTestBadgerStore(t)

	require.NoError(t, store.Write(&Entry{
		Key:       "https://a.example/",
		Value:     Metadata{"title": "a"},
		FetchedAt: time.Now(),
		TTL:       time.Hour,
	}))
	require.NoError(t, store.Write(&Entry{
		Key:          "https://b.example/",
		Value:        Metadata{ErrorKey: "boom"},
		FetchedAt:    time.Now().Add(-90 * time.Minute),
		TTL:          time.Hour,
		FailureCount: 3,
	}))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats["total_entries"])
	assert.Equal(t, 1, stats["failed_entries"])
	assert.Equal(t, 1, stats["expired_entries"])
}
