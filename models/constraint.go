package models

import "time"

// SearchConstraints narrow an availability search. Buffers are expressed in
// minutes relative to the day's existing meetings.
type SearchConstraints struct {
	NegativeDays            []time.Weekday `json:"negativeDays,omitempty"`
	EarliestHour            *int           `json:"earliestHour,omitempty"`
	LatestHour              *int           `json:"latestHour,omitempty"`
	BufferAfterLastMeeting  int            `json:"bufferAfterLastMeeting,omitempty"`
	BufferBeforeNextMeeting int            `json:"bufferBeforeNextMeeting,omitempty"`
}

// IsZero reports whether no constraint is set.
func (c SearchConstraints) IsZero() bool {
	return len(c.NegativeDays) == 0 && c.EarliestHour == nil && c.LatestHour == nil &&
		c.BufferAfterLastMeeting == 0 && c.BufferBeforeNextMeeting == 0
}

// ExcludesDay reports whether the weekday is ruled out.
func (c SearchConstraints) ExcludesDay(d time.Weekday) bool {
	for _, nd := range c.NegativeDays {
		if nd == d {
			return true
		}
	}
	return false
}
