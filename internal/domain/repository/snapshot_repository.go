package repository

import (
	"context"

	"flightwatch-service/internal/domain/entity"
)

// SnapshotRepository keeps the snapshot of the previous run.
// Load returns entity.ErrSnapshotNotFound when nothing has been saved yet.
type SnapshotRepository interface {
	Load(ctx context.Context) (entity.Snapshot, error)
	Save(ctx context.Context, snapshot entity.Snapshot) error
}

// SnapshotProvider supplies the current snapshot
type SnapshotProvider interface {
	Fetch(ctx context.Context) (entity.Snapshot, error)
}

// SourceHandler is a SnapshotProvider that can tell which sources it serves
type SourceHandler interface {
	SnapshotProvider

	// CanHandle determines if this handler can fetch the given source
	CanHandle(source string) bool
}
