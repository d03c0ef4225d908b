package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/repository/storage"
	"github.com/rocketscienceinc/bingo-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSnapshotRepository runs the behaviour every store must share. writeRaw
// stores a document bypassing validation.
func testSnapshotRepository(t *testing.T, ctx context.Context, repo SnapshotRepository, writeRaw func(body string)) {
	t.Helper()

	t.Run("Load_NotFound", func(t *testing.T) {
		require.NoError(t, repo.Clear(ctx))

		// When: Load is called on an empty store
		snapshot, err := repo.Load(ctx)

		// Then: an ErrSnapshotNotFound error should be returned
		require.ErrorIs(t, err, ErrSnapshotNotFound)
		assert.Nil(t, snapshot)
	})

	t.Run("Save_Load_Success", func(t *testing.T) {
		// Given: a saved snapshot
		saved := &entity.Snapshot{Pool: []int{5, 1, 3}, History: []int{2, 4}}
		require.NoError(t, repo.Save(ctx, saved))

		// When: Load is called
		loaded, err := repo.Load(ctx)

		// Then: the loaded snapshot should match the saved one
		require.NoError(t, err)
		assert.Equal(t, saved, loaded)
	})

	t.Run("Save_Overwrites", func(t *testing.T) {
		// Given: two saves in a row
		require.NoError(t, repo.Save(ctx, &entity.Snapshot{Pool: []int{1, 2}, History: []int{}}))
		require.NoError(t, repo.Save(ctx, &entity.Snapshot{Pool: []int{1}, History: []int{2}}))

		// When: Load is called
		loaded, err := repo.Load(ctx)

		// Then: only the last one is kept
		require.NoError(t, err)
		assert.Equal(t, []int{1}, loaded.Pool)
		assert.Equal(t, []int{2}, loaded.History)
	})

	t.Run("Load_Invalid", func(t *testing.T) {
		// Given: a document whose pool is not an array
		writeRaw(`{"pool":"1,2,3","history":[]}`)

		// When: Load is called
		snapshot, err := repo.Load(ctx)

		// Then: the document is rejected as invalid
		require.ErrorIs(t, err, apperror.ErrInvalidSnapshot)
		assert.Nil(t, snapshot)
	})

	t.Run("Clear_Success", func(t *testing.T) {
		// Given: a saved snapshot
		require.NoError(t, repo.Save(ctx, &entity.Snapshot{Pool: []int{1}, History: []int{}}))

		// When: Clear is called twice
		require.NoError(t, repo.Clear(ctx))
		require.NoError(t, repo.Clear(ctx))

		// Then: nothing is left to load
		_, err := repo.Load(ctx)
		require.ErrorIs(t, err, ErrSnapshotNotFound)
	})
}

func TestRedisSnapshotRepository(t *testing.T) {
	ctx, st := suite.New(t)

	repo := NewSnapshotRepository(st.Storage, "")

	testSnapshotRepository(t, ctx, repo, func(body string) {
		require.NoError(t, st.Storage.Set(ctx, DefaultSnapshotKey, body, 0).Err())
	})
}

func TestSQLiteSnapshotRepository(t *testing.T) {
	ctx := context.Background()

	db, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "bingo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Init(ctx))

	repo := NewSQLiteSnapshotRepository(db.Connection, "game")

	testSnapshotRepository(t, ctx, repo, func(body string) {
		_, err := db.Connection.ExecContext(ctx,
			`INSERT INTO snapshots (key, body) VALUES ('game', ?) ON CONFLICT(key) DO UPDATE SET body = excluded.body`, body)
		require.NoError(t, err)
	})
}

func TestFileSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "snapshot.json")

	repo := NewFileSnapshotRepository(path)

	testSnapshotRepository(t, ctx, repo, func(body string) {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	})

	t.Run("Save_LeavesNoTempFiles", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, &entity.Snapshot{Pool: []int{1}, History: []int{}}))

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "snapshot.json", entries[0].Name())
	})
}

func TestMemorySnapshotRepository(t *testing.T) {
	ctx := context.Background()

	repo := NewMemorySnapshotRepository()

	testSnapshotRepository(t, ctx, repo, func(body string) {
		repo.(*memorySnapshot).data = []byte(body)
	})
}
