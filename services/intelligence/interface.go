package intelligence

import "context"

// Intent types the classifier can return.
const (
	IntentNewRequest = "new_request"
	IntentModify     = "modify"
	IntentConfirm    = "confirm"
	IntentReject     = "reject"
	IntentCancel     = "cancel"
)

// FieldChange describes what should happen to a single booking parameter.
// Action is "change", "keep", or "restore" (after a cancellation).
type FieldChange struct {
	Action        string `json:"action"`
	NewValue      string `json:"new_value"`
	MentionedText string `json:"mentioned_text"`
}

type Modifications struct {
	Duration FieldChange `json:"duration"`
	Date     FieldChange `json:"date"`
	Time     FieldChange `json:"time"`
	Title    FieldChange `json:"title"`
}

// Constraints extracted from the message: days to avoid, hour bounds, and
// whether the user asked about a whole range of days.
type Constraints struct {
	NegativeDays   []string `json:"negative_days"`
	EarliestTime   string   `json:"earliest_time"`
	LatestTime     string   `json:"latest_time"`
	MultiDaySearch bool     `json:"multi_day_search"`
	DateRange      string   `json:"date_range"`
}

// IntentAnalysis is the classifier's verdict on the latest user message.
type IntentAnalysis struct {
	Intent                  string        `json:"intent"`
	Reasoning               string        `json:"reasoning"`
	Modifications           Modifications `json:"modifications"`
	MissingInfo             []string      `json:"missing_info"`
	Constraints             Constraints   `json:"constraints"`
	BufferAfterLastMeeting  *int          `json:"buffer_after_last_meeting"`
	BufferBeforeNextMeeting *int          `json:"buffer_before_next_meeting"`
}

// Snapshot carries the booking parameters collected so far, so the
// classifier can tell a modification from a fresh request.
type Snapshot struct {
	Message             string
	ConversationHistory string
	CalendarContext     string

	Duration        string
	Date            string
	TimePreference  string
	Title           string
	ReadyToBook     bool
	Confirmed       bool
	Cancelled       bool
	CancelledParams string
}

// Classifier analyzes the latest user message against the conversation so
// far.
type Classifier interface {
	Analyze(ctx context.Context, snap Snapshot) (*IntentAnalysis, error)
}
