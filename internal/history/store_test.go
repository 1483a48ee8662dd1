package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestStoreRecord(t *testing.T) {
	t.Run("should persist a successful run", func(t *testing.T) {
		store := openTestStore(t)

		saved, err := store.Record(context.Background(), Entry{
			RunID:        "run-1",
			Source:       "talk.mp4",
			Language:     "en",
			Format:       "srt",
			Device:       "cpu",
			DurationS:    60.5,
			SegmentCount: 3,
			Success:      true,
			OutputPath:   "talk_transcription.srt",
		})

		require.NoError(t, err)
		assert.NotZero(t, saved.ID)
		assert.False(t, saved.CreatedAt.IsZero())

		got, err := store.GetByRunID(context.Background(), "run-1")
		require.NoError(t, err)
		assert.Equal(t, "talk.mp4", got.Source)
		assert.Equal(t, "en", got.Language)
		assert.True(t, got.Success)
		assert.InDelta(t, 60.5, got.DurationS, 0.0001)
	})

	t.Run("should persist a failed run with its error kind", func(t *testing.T) {
		store := openTestStore(t)

		_, err := store.Record(context.Background(), Entry{
			RunID:     "run-2",
			Source:    "missing.mp4",
			Language:  "auto",
			Format:    "text",
			Device:    "",
			ErrorKind: "media_error",
		})
		require.NoError(t, err)

		got, err := store.GetByRunID(context.Background(), "run-2")
		require.NoError(t, err)
		assert.False(t, got.Success)
		assert.Equal(t, "media_error", got.ErrorKind)
	})

	t.Run("should reject duplicate run identifiers", func(t *testing.T) {
		store := openTestStore(t)

		_, err := store.Record(context.Background(), Entry{RunID: "run-3", Source: "a.mp4", Language: "en", Format: "text"})
		require.NoError(t, err)

		_, err = store.Record(context.Background(), Entry{RunID: "run-3", Source: "b.mp4", Language: "en", Format: "text"})
		assert.Error(t, err)
	})
}

func TestStoreList(t *testing.T) {
	t.Run("should return runs newest first", func(t *testing.T) {
		store := openTestStore(t)
		base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		for i, runID := range []string{"old", "mid", "new"} {
			_, err := store.Record(context.Background(), Entry{
				RunID:     runID,
				Source:    runID + ".mp4",
				Language:  "en",
				Format:    "text",
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}

		entries, err := store.List(context.Background(), 0)

		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "new", entries[0].RunID)
		assert.Equal(t, "old", entries[2].RunID)
	})

	t.Run("should honor the limit", func(t *testing.T) {
		store := openTestStore(t)
		for _, runID := range []string{"a", "b", "c"} {
			_, err := store.Record(context.Background(), Entry{RunID: runID, Source: runID + ".mp4", Language: "en", Format: "text"})
			require.NoError(t, err)
		}

		entries, err := store.List(context.Background(), 2)

		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("should return an empty list for a fresh store", func(t *testing.T) {
		store := openTestStore(t)

		entries, err := store.List(context.Background(), 0)

		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestStoreGetByRunID(t *testing.T) {
	t.Run("should report a missing run", func(t *testing.T) {
		store := openTestStore(t)

		_, err := store.GetByRunID(context.Background(), "nope")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}
