package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string
	Value uint64
}

func TestMemoryRoundTrip(t *testing.T) {
	store := NewMemory()

	ok, err := store.KVGet([]byte("missing"), &record{})
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.KVPut([]byte("venue/a"), record{Name: "alpha", Value: 7}))

	var got record
	ok, err = store.KVGet([]byte("venue/a"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record{Name: "alpha", Value: 7}, got)

	require.NoError(t, store.KVDelete([]byte("venue/a")))
	ok, err = store.KVGet([]byte("venue/a"), &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryIterateOrder(t *testing.T) {
	store := NewMemory()
	require.NoError(t, store.KVPut([]byte("venue/b"), record{Name: "b"}))
	require.NoError(t, store.KVPut([]byte("venue/a"), record{Name: "a"}))
	require.NoError(t, store.KVPut([]byte("other/z"), record{Name: "z"}))

	var seen []string
	err := store.KVIterate([]byte("venue/"), func(key, _ []byte) error {
		seen = append(seen, string(key))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"venue/a", "venue/b"}, seen)
}

func TestBoltRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := OpenBolt(path, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.KVPut([]byte("venue/a"), record{Name: "alpha", Value: 42}))

	var got record
	ok, err := store.KVGet([]byte("venue/a"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), got.Value)

	var keys []string
	require.NoError(t, store.KVIterate([]byte("venue/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	}))
	require.Equal(t, []string{"venue/a"}, keys)

	require.NoError(t, store.KVDelete([]byte("venue/a")))
	ok, err = store.KVGet([]byte("venue/a"), &got)
	require.NoError(t, err)
	require.False(t, ok)
}
