package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

const DefaultSnapshotKey = "bingo:snapshot"

var ErrSnapshotNotFound = errors.New("snapshot not found")

type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *entity.Snapshot) error
	Load(ctx context.Context) (*entity.Snapshot, error)
	Clear(ctx context.Context) error
}

type dbSnapshot struct {
	client *redis.Client
	key    string
}

// NewSnapshotRepository stores the snapshot as JSON under a single redis key.
func NewSnapshotRepository(client *redis.Client, key string) SnapshotRepository {
	if key == "" {
		key = DefaultSnapshotKey
	}

	return &dbSnapshot{
		client: client,
		key:    key,
	}
}

func (that *dbSnapshot) Save(ctx context.Context, snapshot *entity.Snapshot) error {
	snapshotJSON, err := entity.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	err = that.client.Set(ctx, that.key, snapshotJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}

	return nil
}

func (that *dbSnapshot) Load(ctx context.Context) (*entity.Snapshot, error) {
	response, err := that.client.Get(ctx, that.key).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return entity.ParseSnapshot([]byte(response))
}

func (that *dbSnapshot) Clear(ctx context.Context) error {
	err := that.client.Del(ctx, that.key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}
