package repositories

import (
	"context"

	"github.com/wememory/backend/internal/access"
	"github.com/wememory/backend/internal/models"
)

// GeoFilter restricts an event listing to threads within RadiusKm of a point.
type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// ListEventsOptions shapes an event listing beyond the viewer scope.
type ListEventsOptions struct {
	Location *GeoFilter
}

// EventRepository defines access-scoped data access for event threads.
type EventRepository interface {
	Create(ctx context.Context, event models.EventThread) error
	Update(ctx context.Context, event models.EventThread) error
	Get(ctx context.Context, id string) (models.EventThread, error)
	List(ctx context.Context, viewer access.Viewer, opts ListEventsOptions) ([]models.EventThread, error)
	CanAccess(ctx context.Context, id, userID string) (bool, error)
}
