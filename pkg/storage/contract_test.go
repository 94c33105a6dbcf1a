package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Mask  uint32  `json:"mask"`
	IDs   []int64 `json:"ids"`
}

// backends returns every Store implementation under test.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	sq, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	mr := miniredis.RunT(t)
	rs := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { rs.Close() })

	return map[string]Store{
		"filesystem": fs,
		"sqlite":     sq,
		"redis":      rs,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var missing record
			err := store.Get(ctx, "absent", &missing)
			assert.ErrorIs(t, err, ErrNotFound)

			want := record{Name: "bounding", Count: 3, Mask: 0x1fe, IDs: []int64{1, 2, 3}}
			require.NoError(t, store.Set(ctx, "rec", want))

			var got record
			require.NoError(t, store.Get(ctx, "rec", &got))
			assert.Equal(t, want, got)

			// Overwrite in place.
			want.Count = 9
			require.NoError(t, store.Set(ctx, "rec", want))
			require.NoError(t, store.Get(ctx, "rec", &got))
			assert.Equal(t, 9, got.Count)

			// Delete, then delete again: both fine.
			require.NoError(t, store.Delete(ctx, "rec"))
			assert.ErrorIs(t, store.Get(ctx, "rec", &got), ErrNotFound)
			assert.NoError(t, store.Delete(ctx, "rec"))
		})
	}
}

func TestStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "masks", map[string]uint32{"Ping.ping": 7}))
			require.NoError(t, store.Set(ctx, "bounding_mask", uint32(510)))

			var mask uint32
			require.NoError(t, store.Get(ctx, "bounding_mask", &mask))
			assert.Equal(t, uint32(510), mask)

			var masks map[string]uint32
			require.NoError(t, store.Get(ctx, "masks", &masks))
			assert.Equal(t, uint32(7), masks["Ping.ping"])

			require.NoError(t, store.Delete(ctx, "masks"))
			require.NoError(t, store.Get(ctx, "bounding_mask", &mask))
			assert.Equal(t, uint32(510), mask)
		})
	}
}

func TestFileStoreEscapesKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	// A hostile key must stay inside the root directory.
	require.NoError(t, fs.Set(ctx, "../escape", record{Name: "x"}))

	var got record
	require.NoError(t, fs.Get(ctx, "../escape", &got))
	assert.Equal(t, "x", got.Name)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(Config{Type: "voodoo"})
	assert.Error(t, err)
}

func TestOpenFilesystem(t *testing.T) {
	store, err := Open(Config{Type: "filesystem", FilesystemRoot: t.TempDir()})
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
