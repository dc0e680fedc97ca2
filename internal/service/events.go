package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/boxoffice/internal/model"
	"github.com/iliyamo/boxoffice/internal/repository"
)

// EventInput is what staff provide to publish an event.
type EventInput struct {
	Name        string
	Description string
	Place       string
	ImageURL    string
	StartsAt    time.Time
}

// Events manages the event list.
type Events struct {
	repo *repository.EventRepo
	Now  func() time.Time
}

func NewEvents(repo *repository.EventRepo) *Events {
	return &Events{repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

// Create publishes a new event with a generated id.
func (s *Events) Create(ctx context.Context, in EventInput) (model.Event, error) {
	const op = "service.Events.Create"

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return model.Event{}, fmt.Errorf("%s: %w: name is required", op, ErrInvalidInput)
	}
	if in.StartsAt.IsZero() {
		return model.Event{}, fmt.Errorf("%s: %w: starts_at is required", op, ErrInvalidInput)
	}
	now := s.Now()
	e := model.Event{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Place:       strings.TrimSpace(in.Place),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		StartsAt:    in.StartsAt.UTC().Truncate(time.Millisecond),
		CreatedAt:   now.Truncate(time.Millisecond),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return model.Event{}, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// Get returns one event.
func (s *Events) Get(ctx context.Context, id string) (model.Event, error) {
	e, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return model.Event{}, fmt.Errorf("service.Events.Get: %w", mapRepoErr(err))
	}
	return e, nil
}

// List returns every event ordered by start time.
func (s *Events) List(ctx context.Context) ([]model.Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.Events.List: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}
