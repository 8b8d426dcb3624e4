package router

import (
	"fmt"

	"flightwatch-service/internal/domain/repository"
	"flightwatch-service/pkg/logger"
)

// SourceRouter picks the snapshot provider for a configured flight source
type SourceRouter struct {
	handlers []repository.SourceHandler
	logger   logger.Logger
}

// NewSourceRouter creates a new source router
func NewSourceRouter(logger logger.Logger) *SourceRouter {
	return &SourceRouter{
		handlers: make([]repository.SourceHandler, 0),
		logger:   logger,
	}
}

// Register registers a handler. Handlers are tried in registration order.
func (r *SourceRouter) Register(handler repository.SourceHandler) {
	r.handlers = append(r.handlers, handler)
	r.logger.Info("Registered source handler", "handler", fmt.Sprintf("%T", handler))
}

// GetHandler returns the first handler that can fetch the source, or nil
func (r *SourceRouter) GetHandler(source string) repository.SourceHandler {
	for _, handler := range r.handlers {
		if handler.CanHandle(source) {
			return handler
		}
	}
	return nil
}

// Resolve is GetHandler with an error for unsupported sources
func (r *SourceRouter) Resolve(source string) (repository.SnapshotProvider, error) {
	handler := r.GetHandler(source)
	if handler == nil {
		return nil, fmt.Errorf("no provider can handle flight source %q", source)
	}
	return handler, nil
}
