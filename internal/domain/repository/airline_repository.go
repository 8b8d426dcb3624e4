package repository

import (
	"context"

	"flightwatch-service/internal/domain/entity"
)

// AirlineRepository defines the interface for airline operations
type AirlineRepository interface {
	List(ctx context.Context) ([]*entity.Airline, error)
}
