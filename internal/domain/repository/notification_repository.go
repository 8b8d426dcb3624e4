package repository

import (
	"context"

	"flightwatch-service/internal/domain/entity"
)

// NotificationRepository defines the interface for push delivery
type NotificationRepository interface {
	Send(ctx context.Context, notification *entity.Notification) (*entity.DispatchResult, error)
}
