package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

type memorySnapshot struct {
	mu   sync.Mutex
	data []byte
}

// NewMemorySnapshotRepository keeps the snapshot text in process memory.
func NewMemorySnapshotRepository() SnapshotRepository {
	return &memorySnapshot{}
}

func (that *memorySnapshot) Save(_ context.Context, snapshot *entity.Snapshot) error {
	snapshotJSON, err := entity.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.data = snapshotJSON

	return nil
}

func (that *memorySnapshot) Load(_ context.Context) (*entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.data == nil {
		return nil, ErrSnapshotNotFound
	}

	return entity.ParseSnapshot(that.data)
}

func (that *memorySnapshot) Clear(_ context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.data = nil

	return nil
}
