package repository

import (
	"context"

	"flightwatch-service/internal/domain/entity"
)

// DispatchLogRepository defines the interface for notification attempt storage
type DispatchLogRepository interface {
	Save(ctx context.Context, log *entity.DispatchLog) error
	FindByRunID(ctx context.Context, runID string) ([]*entity.DispatchLog, error)
}
