package models

import "time"

// Conversation phases.
const (
	PhaseActiveBooking    = "active_booking"
	PhasePostConfirmation = "post_confirmation"
)

// Message is one turn in the conversation history.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// CancelledParams snapshots the working parameters at cancellation so a
// later "actually, let's do it" can restore them.
type CancelledParams struct {
	DurationMinutes *int   `json:"durationMinutes,omitempty"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	Title           string `json:"title,omitempty"`
	Description     string `json:"description,omitempty"`
}

// CompletedBooking is the summary kept after a successful commit.
type CompletedBooking struct {
	Title           string    `json:"title"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	DurationMinutes int       `json:"durationMinutes"`
	Timestamp       time.Time `json:"timestamp"`
}

// SessionState holds the full per-user conversation context between turns.
// It is JSON-marshalled into Redis by the session store.
type SessionState struct {
	UserID   string    `json:"userId"`
	Timezone string    `json:"timezone"`
	Messages []Message `json:"messages"`

	// Extracted scheduling parameters.
	MeetingDurationMinutes *int   `json:"meetingDurationMinutes,omitempty"`
	PreferredDate          string `json:"preferredDate,omitempty"` // YYYY-MM-DD
	PreferredTime          string `json:"preferredTime,omitempty"` // "morning" or "15:00"
	SpecificHour           *int   `json:"specificHour,omitempty"`
	SpecificMinute         *int   `json:"specificMinute,omitempty"`
	Title                  string `json:"title,omitempty"`
	Description            string `json:"description,omitempty"`

	// Pending suggestions.
	AvailableSlots []Slot `json:"availableSlots,omitempty"`
	PartialGap     *Gap   `json:"partialGap,omitempty"`

	// Flow control.
	Confirmed          bool             `json:"confirmed"`
	BookingConfirmed   bool             `json:"bookingConfirmed"`
	Cancelled          bool             `json:"cancelled"`

	// Long-duration soft warning: set when the warning question goes out,
	// acknowledged once the user affirms the length is intentional.
	PendingDurationConfirm bool `json:"pendingDurationConfirm,omitempty"`
	DurationAcknowledged   bool `json:"durationAcknowledged,omitempty"`

	CancelledParams    *CancelledParams `json:"cancelledParams,omitempty"`
	AwaitingTitleInput bool             `json:"awaitingTitleInput"`
	NextAction         string           `json:"nextAction,omitempty"`

	ConversationPhase    string            `json:"conversationPhase,omitempty"`
	LastCompletedBooking *CompletedBooking `json:"lastCompletedBooking,omitempty"`
	WeekContext          string            `json:"weekContext,omitempty"`

	Constraints SearchConstraints `json:"constraints,omitzero"`

	// Reference-anchored scheduling ("after my flight").
	IsReferenceQuery   bool           `json:"isReferenceQuery,omitempty"`
	ReferenceEventName string         `json:"referenceEventName,omitempty"`
	ReferenceRelation  string         `json:"referenceRelation,omitempty"` // "before" or "after"
	ReferenceDayOffset int            `json:"referenceDayOffset,omitempty"`
	ResolvedReference  *CalendarEvent `json:"resolvedReference,omitempty"`

	// Multi-day search.
	MultiDaySearch bool   `json:"multiDaySearch,omitempty"`
	DateRangeStart string `json:"dateRangeStart,omitempty"`
	DateRangeEnd   string `json:"dateRangeEnd,omitempty"`

	OriginalRequestedDate string `json:"originalRequestedDate,omitempty"`
	ClarificationAttempts int    `json:"clarificationAttempts,omitempty"`

	// Cached upcoming events, refreshed after each commit.
	CalendarContext []CalendarEvent `json:"calendarContext,omitempty"`
}

// LatestUserMessage returns the content of the most recent user turn.
func (s *SessionState) LatestUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == "user" {
			return s.Messages[i].Content
		}
	}
	return ""
}

// HasDateInfo reports whether a date or a usable date range is known.
func (s *SessionState) HasDateInfo() bool {
	return s.PreferredDate != "" || (s.DateRangeStart != "" && s.DateRangeEnd != "")
}

// ClearWorkingFields drops everything tied to the in-flight request while
// preserving history, phase bookkeeping and the last completed booking.
func (s *SessionState) ClearWorkingFields() {
	s.MeetingDurationMinutes = nil
	s.PreferredDate = ""
	s.PreferredTime = ""
	s.SpecificHour = nil
	s.SpecificMinute = nil
	s.Title = ""
	s.Description = ""
	s.AvailableSlots = nil
	s.PartialGap = nil
	s.Confirmed = false
	s.BookingConfirmed = false
	s.PendingDurationConfirm = false
	s.DurationAcknowledged = false
	s.AwaitingTitleInput = false
	s.WeekContext = ""
	s.Constraints = SearchConstraints{}
	s.IsReferenceQuery = false
	s.ReferenceEventName = ""
	s.ReferenceRelation = ""
	s.ReferenceDayOffset = 0
	s.ResolvedReference = nil
	s.MultiDaySearch = false
	s.DateRangeStart = ""
	s.DateRangeEnd = ""
	s.OriginalRequestedDate = ""
	s.ClarificationAttempts = 0
}
