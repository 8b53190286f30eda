package models

import "time"

// Slot is a candidate meeting start/end produced by the availability engine.
// Priority 0 is reserved for synthetic slots aligned to an explicitly requested
// time; 1 = gap start, 2 = gap end, 3 = intermediate.
type Slot struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Priority    int       `json:"priority"`
	IsSynthetic bool      `json:"isSynthetic,omitempty"`
	// Date is set for multi-day search results (YYYY-MM-DD).
	Date string `json:"date,omitempty"`
}

// Overlaps reports whether the slot intersects the [start,end) interval.
func (s Slot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && start.Before(s.End)
}

// Gap is a free interval between busy events. A gap shorter than the
// requested duration is kept with FitsRequirement=false so the conversation
// layer can offer a shorter meeting.
type Gap struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	FitsRequirement  bool      `json:"fitsRequirement"`
	AvailableMinutes int       `json:"availableMinutes"`
}
