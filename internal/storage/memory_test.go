package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notestream/notestream/internal/common"
	"github.com/notestream/notestream/internal/model"
)

func TestMemoryStore_SaveAssignsLocalID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved, err := store.SaveNote(ctx, testNote("Offline note", time.Time{}))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(saved.ID, "local-"))
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i, title := range []string{"oldest", "middle", "newest"} {
		_, err := store.SaveNote(ctx, testNote(title, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	notes, err := store.ListNotes(ctx, "tester")
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "newest", notes[0].Title)
	assert.Equal(t, "oldest", notes[2].Title)
}

func TestMemoryStore_GetAndDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved, err := store.SaveNote(ctx, testNote("keeper", time.Time{}))
	require.NoError(t, err)

	got, err := store.GetNote(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "keeper", got.Title)

	require.NoError(t, store.DeleteNote(ctx, saved.ID))

	_, err = store.GetNote(ctx, saved.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteNote(ctx, saved.ID), common.ErrNotFound)
}

func TestMemoryStore_RejectsInvalidNotes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.SaveNote(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)

	_, err = store.SaveNote(ctx, &model.VoiceNoteRecord{UserID: "tester"})
	assert.ErrorIs(t, err, ErrInvalidNote)
}

func TestMemoryStore_SavedCopyIsIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := testNote("immutable", time.Time{})
	saved, err := store.SaveNote(ctx, original)
	require.NoError(t, err)

	original.Title = "mutated after save"

	got, err := store.GetNote(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "immutable", got.Title)
}
