package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"flightwatch-service/internal/domain/entity"
)

// FileSnapshotRepository keeps the snapshot as an indented JSON file
type FileSnapshotRepository struct {
	path string
}

// NewFileSnapshotRepository creates a snapshot store backed by the file at path
func NewFileSnapshotRepository(path string) *FileSnapshotRepository {
	return &FileSnapshotRepository{path: path}
}

// Path returns the snapshot file location
func (r *FileSnapshotRepository) Path() string {
	return r.path
}

// Load reads the snapshot file
func (r *FileSnapshotRepository) Load(ctx context.Context) (entity.Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, entity.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	snapshot, err := entity.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.path, err)
	}
	return snapshot, nil
}

// Save atomically replaces the snapshot file via a temp file and rename
func (r *FileSnapshotRepository) Save(ctx context.Context, snapshot entity.Snapshot) error {
	data, err := entity.EncodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}
