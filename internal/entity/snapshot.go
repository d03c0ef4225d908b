package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
)

// Snapshot is the durable copy of the engine's pool and history.
type Snapshot struct {
	Pool    []int `json:"pool"`
	History []int `json:"history"`
}

type rawSnapshot struct {
	Pool    json.RawMessage `json:"pool"`
	History json.RawMessage `json:"history"`
}

// Total returns the size of the ball range covered by the snapshot.
func (that *Snapshot) Total() int {
	return len(that.Pool) + len(that.History)
}

// Clone returns a deep copy, so callers never share slices with the engine.
func (that *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		Pool:    append([]int{}, that.Pool...),
		History: append([]int{}, that.History...),
	}
}

// Validate checks that pool and history partition {1..N} with no overlap.
func (that *Snapshot) Validate() error {
	total := that.Total()
	if total == 0 {
		return fmt.Errorf("%w: empty ball range", apperror.ErrInvalidSnapshot)
	}

	seen := make([]bool, total+1)
	for _, part := range [][]int{that.Pool, that.History} {
		for _, n := range part {
			if n < 1 || n > total {
				return fmt.Errorf("%w: ball %d out of range 1..%d", apperror.ErrInvalidSnapshot, n, total)
			}

			if seen[n] {
				return fmt.Errorf("%w: ball %d appears twice", apperror.ErrInvalidSnapshot, n)
			}

			seen[n] = true
		}
	}

	return nil
}

// MarshalSnapshot encodes snapshot in its stored text form.
func MarshalSnapshot(snapshot *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot.Clone())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return data, nil
}

// ParseSnapshot decodes a stored snapshot. Both fields must be JSON arrays
// and together must partition the ball range; anything else is ErrInvalidSnapshot.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrInvalidSnapshot, err)
	}

	if !isArray(raw.Pool) || !isArray(raw.History) {
		return nil, fmt.Errorf("%w: pool and history must be arrays", apperror.ErrInvalidSnapshot)
	}

	snapshot := &Snapshot{Pool: []int{}, History: []int{}}
	if err := json.Unmarshal(raw.Pool, &snapshot.Pool); err != nil {
		return nil, fmt.Errorf("%w: pool: %w", apperror.ErrInvalidSnapshot, err)
	}

	if err := json.Unmarshal(raw.History, &snapshot.History); err != nil {
		return nil, fmt.Errorf("%w: history: %w", apperror.ErrInvalidSnapshot, err)
	}

	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func isArray(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}
