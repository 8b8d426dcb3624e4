package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flightwatch-service/internal/domain/entity"

	_ "modernc.org/sqlite"
)

// SQLiteSnapshotRepository keeps snapshots as JSON documents in a SQLite table, one row
// per key
type SQLiteSnapshotRepository struct {
	db  *sql.DB
	key string
}

// NewSQLiteSnapshotRepository opens (or creates) the database at dbPath
func NewSQLiteSnapshotRepository(dbPath, key string) (*SQLiteSnapshotRepository, error) {
	// Ensure directory exists
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteSnapshotRepository{db: db, key: key}, nil
}

// Close closes the database connection
func (r *SQLiteSnapshotRepository) Close() error {
	return r.db.Close()
}

// Load reads the snapshot stored under the repository key
func (r *SQLiteSnapshotRepository) Load(ctx context.Context) (entity.Snapshot, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE key = ?`, r.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	snapshot, err := entity.DecodeSnapshot([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %q: %w", r.key, err)
	}
	return snapshot, nil
}

// Save replaces the snapshot stored under the repository key
func (r *SQLiteSnapshotRepository) Save(ctx context.Context, snapshot entity.Snapshot) error {
	body, err := entity.EncodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots (key, body, updated_at)
		VALUES (?, ?, ?)
	`, r.key, string(body), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
