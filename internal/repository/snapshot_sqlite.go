package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

type sqliteSnapshot struct {
	conn *sql.DB
	key  string
}

// NewSQLiteSnapshotRepository keeps the snapshot in the snapshots table
// created by storage.Storage.Init.
func NewSQLiteSnapshotRepository(conn *sql.DB, key string) SnapshotRepository {
	if key == "" {
		key = DefaultSnapshotKey
	}

	return &sqliteSnapshot{
		conn: conn,
		key:  key,
	}
}

func (that *sqliteSnapshot) Save(ctx context.Context, snapshot *entity.Snapshot) error {
	snapshotJSON, err := entity.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	query := `INSERT INTO snapshots (key, body) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body`

	if _, err = that.conn.ExecContext(ctx, query, that.key, string(snapshotJSON)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (that *sqliteSnapshot) Load(ctx context.Context) (*entity.Snapshot, error) {
	var body string

	err := that.conn.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE key = ?`, that.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return entity.ParseSnapshot([]byte(body))
}

func (that *sqliteSnapshot) Clear(ctx context.Context) error {
	if _, err := that.conn.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, that.key); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}
