package calendar

import (
	"context"
	"time"

	"meetwise/models"
)

// Provider abstracts the calendar backend so the availability engine and the
// conversation flow never touch the Google API directly.
type Provider interface {
	// ListEvents returns events overlapping [from, to), sorted by start time.
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]models.CalendarEvent, error)
	// CreateEvent inserts the event and returns it with its assigned ID.
	CreateEvent(ctx context.Context, calendarID string, ev models.CalendarEvent) (models.CalendarEvent, error)
	// DeleteEvent removes an event by ID.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
