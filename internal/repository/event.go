package repository

import (
	"context"

	"tribehub/internal/models"

	"gorm.io/gorm"
)

// EventFilter narrows an event listing. Empty fields match everything.
type EventFilter struct {
	Entity   string
	EntityID string
	Actor    models.Address
	AfterSeq uint64
}

// EventRepository defines the interface for reading the event journal
type EventRepository interface {
	List(ctx context.Context, filter EventFilter, offset, limit int) ([]models.Event, int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// List returns events in commit order.
func (r *eventRepository) List(ctx context.Context, filter EventFilter, offset, limit int) ([]models.Event, int64, error) {
	events := []models.Event{}
	q := r.db.WithContext(ctx).Model(&models.Event{})
	if filter.Entity != "" {
		q = q.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if !filter.Actor.IsZero() {
		q = q.Where("actor = ?", filter.Actor)
	}
	if filter.AfterSeq > 0 {
		q = q.Where("op_seq > ?", filter.AfterSeq)
	}
	total, err := paginate(q.Order("id ASC"), offset, limit, &events)
	return events, total, err
}
