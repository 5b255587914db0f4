package storage

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

func (n *note) GetID() string { return n.ID }

func setupTestDB(t *testing.T) *badger.DB {
	db, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBadgerStore_CRUD(t *testing.T) {
	store := NewBadgerStore(setupTestDB(t), "note")

	require.NoError(t, store.Create(&note{ID: "a", Body: "first"}))
	assert.ErrorIs(t, store.Create(&note{ID: "a"}), ErrExists)
	assert.Error(t, store.Create(&note{}))

	var got note
	require.NoError(t, store.Get("a", &got))
	assert.Equal(t, "first", got.Body)

	require.NoError(t, store.Update(&note{ID: "a", Body: "second"}))
	require.NoError(t, store.Get("a", &got))
	assert.Equal(t, "second", got.Body)
	assert.ErrorIs(t, store.Update(&note{ID: "missing"}), ErrNotFound)

	require.NoError(t, store.Delete("a"))
	assert.ErrorIs(t, store.Get("a", &got), ErrNotFound)
	assert.ErrorIs(t, store.Delete("a"), ErrNotFound)
}

func TestBadgerStore_ListIsolatedByPrefix(t *testing.T) {
	db := setupTestDB(t)
	notes := NewBadgerStore(db, "note")
	others := NewBadgerStore(db, "other")

	require.NoError(t, notes.Create(&note{ID: "1", Body: "x"}))
	require.NoError(t, notes.Create(&note{ID: "2", Body: "y"}))
	require.NoError(t, others.Create(&note{ID: "3", Body: "z"}))

	var list []note
	require.NoError(t, notes.List(&list))
	assert.Len(t, list, 2)
	assert.ElementsMatch(t, []string{"x", "y"}, []string{list[0].Body, list[1].Body})

	var empty []note
	require.NoError(t, NewBadgerStore(db, "none").List(&empty))
	assert.Empty(t, empty)
}
