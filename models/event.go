package models

import "time"

// CalendarEvent is a normalized busy interval on the user's calendar.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status,omitempty"`
}

// Duration returns the event length.
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}
