package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

type fileSnapshot struct {
	mu   sync.Mutex
	path string
}

// NewFileSnapshotRepository keeps the snapshot as a JSON document at path.
func NewFileSnapshotRepository(path string) SnapshotRepository {
	return &fileSnapshot{path: path}
}

func (that *fileSnapshot) Save(_ context.Context, snapshot *entity.Snapshot) error {
	snapshotJSON, err := entity.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = os.MkdirAll(filepath.Dir(that.path), 0o700); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(that.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(snapshotJSON); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	if err = os.Rename(tmp.Name(), that.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}

func (that *fileSnapshot) Load(_ context.Context) (*entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	data, err := os.ReadFile(that.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return entity.ParseSnapshot(data)
}

func (that *fileSnapshot) Clear(_ context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := os.Remove(that.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}
