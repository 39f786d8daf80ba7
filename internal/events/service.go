// Package events fetches real calendar events from the configured services and
// decides when seed data stands in for them.
package events

import (
	"context"
	"errors"
	"time"

	"trainingcal/internal/model"
)

var (
	// ErrNoService is returned when no event service is configured.
	ErrNoService = errors.New("events: no event service configured")
	// ErrNotFound is returned by mutations for an unknown event id.
	ErrNotFound = errors.New("events: event not found")
)

// Service fetches the real events whose date falls in [start, end].
type Service interface {
	Events(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error)
}

// Mutation is the payload for creating or updating one event.
type Mutation struct {
	Title    string         `json:"title"`
	Date     string         `json:"date"`
	Start    string         `json:"startTime"`
	End      string         `json:"endTime"`
	Category model.Category `json:"type,omitempty"`
	Location string         `json:"location,omitempty"`
}

// Mutator changes events in the external service. Callers re-fetch the
// affected range after a successful call; nothing is applied locally.
type Mutator interface {
	Create(ctx context.Context, m Mutation) (string, error)
	Update(ctx context.Context, id string, m Mutation) error
	Delete(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
}

// ServiceFunc adapts a plain function to Service.
type ServiceFunc func(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error)

func (f ServiceFunc) Events(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	return f(ctx, start, end)
}
