package notes

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Put(ctx, "Team", "Bulbasaur, level 5"))
	require.NoError(t, store.Put(ctx, "Goal", "Beat Brock"))

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Goal", "Team"}, names)

	content, err := store.Get(ctx, "Team")
	require.NoError(t, err)
	assert.Equal(t, "Bulbasaur, level 5", content)

	// Put overwrites.
	require.NoError(t, store.Put(ctx, "Team", "Bulbasaur, level 7"))
	content, err = store.Get(ctx, "Team")
	require.NoError(t, err)
	assert.Equal(t, "Bulbasaur, level 7", content)

	exists, err := store.Exists(ctx, "Team")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "Team"))
	exists, err = store.Exists(ctx, "Team")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreMissingNotes(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Put(ctx, "", "content")
	assert.Error(t, err)
}

func TestStorePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "Location", "Pallet Town"))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	content, err := store.Get(ctx, "Location")
	require.NoError(t, err)
	assert.Equal(t, "Pallet Town", content)
}
