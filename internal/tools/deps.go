// Package tools provides MCP tool handlers and registration.
package tools

import (
	"context"
	"log/slog"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/index"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
)

// IndexAdmin reports index state and rebuilds collections on demand.
type IndexAdmin interface {
	Status() []index.CollectionStatus
	Rebuild(ctx context.Context, c models.Collection) (*index.Index, error)
}

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Orchestrator *service.Orchestrator
	Projects     *service.ProjectService
	Index        IndexAdmin
	Logger       *slog.Logger
}
