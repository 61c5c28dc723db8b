package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/socialquest-be/internal/models"
	"github.com/isdelr/socialquest-be/internal/repository"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// EventService reads a user's activity log.
type EventService struct {
	store *repository.Store
}

// NewEventService creates a new EventService.
func NewEventService(store *repository.Store) *EventService {
	return &EventService{store: store}
}

// GetRecentEvents retrieves the most recent events for a user.
func (s *EventService) GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.Repos().Events.ListRecent(ctx, userID, limit)
}

// createEvent appends an activity entry using the caller's repositories,
// so it commits or rolls back with the action it describes.
func createEvent(ctx context.Context, r repository.Repos, userID, eventType, message string, now time.Time) error {
	return r.Events.Create(ctx, &models.Event{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      eventType,
		Message:   message,
		CreatedAt: now,
	})
}
