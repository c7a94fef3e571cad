package service

import (
	"context"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"
)

// EventService reads the event journal in commit order.
type EventService struct {
	exec *ledger.Executor
}

func NewEventService(exec *ledger.Executor) *EventService {
	return &EventService{exec: exec}
}

func (s *EventService) Events(ctx context.Context, filter repository.EventFilter, offset, limit int) (*Page[models.Event], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	items, total, err := repository.NewEventRepository(s.exec.DB()).List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total), nil
}

// Head returns the sequence of the last committed operation.
func (s *EventService) Head(ctx context.Context) (uint64, error) {
	return s.exec.Head(ctx)
}
