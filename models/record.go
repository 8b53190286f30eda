package models

import "time"

// BookingRecord is the persisted form of a committed booking.
type BookingRecord struct {
	ID              string    `bson:"id" json:"id"`
	UserID          string    `bson:"userId" json:"userId"`
	Title           string    `bson:"title" json:"title"`
	Date            string    `bson:"date" json:"date"` // YYYY-MM-DD
	Time            string    `bson:"time" json:"time"` // HH:MM
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	CalendarEventID string    `bson:"calendarEventId" json:"calendarEventId"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}
