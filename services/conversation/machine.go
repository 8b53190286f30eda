package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meetwise/models"
	"meetwise/services/availability"
	"meetwise/services/intelligence"
	"meetwise/services/reference"
	"meetwise/services/timeparse"
	"meetwise/services/validation"
	"meetwise/utils"

	recordsRepo "meetwise/database/repository/records"

	"go.uber.org/zap"
)

// Graph nodes. Each turn starts at extract and walks until a node ends the
// turn by answering the user.
const (
	nodeExtract         = "extract"
	nodeQueryCalendar   = "query_calendar"
	nodeSuggest         = "suggest_times"
	nodeResolveConflict = "resolve_conflict"
	nodeCreateEvent     = "create_event"
	nodeClarify         = "clarify"
)

// A single message never needs more hops than extract -> query -> suggest,
// plus one booking-then-new-request loop.
const maxGraphHops = 8

const defaultDurationMinutes = 60

// Machine drives one booking conversation: it extracts parameters from each
// user message, queries the calendar, suggests times, and commits the event
// once the user confirms.
type Machine struct {
	classifier intelligence.Classifier
	engine     *availability.Engine
	resolver   *reference.Resolver
	records    recordsRepo.BookingRecordRepository
	loc        *time.Location
	now        func() time.Time
}

// NewMachine wires the conversation flow. records may be nil when booking
// history is unavailable.
func NewMachine(classifier intelligence.Classifier, engine *availability.Engine, resolver *reference.Resolver, records recordsRepo.BookingRecordRepository, loc *time.Location) *Machine {
	if loc == nil {
		loc = time.UTC
	}
	return &Machine{
		classifier: classifier,
		engine:     engine,
		resolver:   resolver,
		records:    records,
		loc:        loc,
		now:        time.Now,
	}
}

// HandleMessage processes one user turn and returns the assistant's reply.
// The state is mutated in place; the caller persists it.
func (m *Machine) HandleMessage(ctx context.Context, state *models.SessionState, message string) (string, error) {
	logger := utils.GetLogger()

	state.Messages = append(state.Messages, models.Message{Role: "user", Content: message})
	before := len(state.Messages)

	node := nodeExtract
	for hops := 0; node != "" && hops < maxGraphHops; hops++ {
		logger.Debug("Conversation hop",
			zap.String("userId", state.UserID),
			zap.String("node", node))

		var err error
		switch node {
		case nodeExtract:
			node, err = m.extract(ctx, state)
		case nodeQueryCalendar:
			node, err = m.queryCalendar(ctx, state)
		case nodeSuggest:
			m.suggestTimes(state)
			node = ""
		case nodeResolveConflict:
			err = m.resolveConflict(ctx, state)
			node = ""
		case nodeCreateEvent:
			node, err = m.createEvent(ctx, state)
		case nodeClarify:
			m.clarify(state)
			node = ""
		default:
			node = ""
		}
		if err != nil {
			return "", err
		}
	}

	if len(state.Messages) == before {
		// Every path should answer; this is a safety net, not a feature.
		m.reply(state, "Could you tell me a bit more about when you'd like to meet?")
	}
	return lastAssistantMessage(state), nil
}

func (m *Machine) reply(state *models.SessionState, text string) {
	state.Messages = append(state.Messages, models.Message{Role: "assistant", Content: text})
}

func lastAssistantMessage(state *models.SessionState) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == "assistant" {
			return state.Messages[i].Content
		}
	}
	return ""
}

func (m *Machine) parser() *timeparse.Parser {
	return timeparse.NewParserAt(m.now().In(m.loc))
}

func (m *Machine) validator() *validation.Validator {
	return validation.NewValidatorAt(m.now().In(m.loc))
}

func (m *Machine) today() time.Time {
	n := m.now().In(m.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, m.loc)
}

func (m *Machine) preferredDate(state *models.SessionState) (time.Time, bool) {
	if state.PreferredDate == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("2006-01-02", state.PreferredDate, m.loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func durationOrDefault(state *models.SessionState) int {
	if state.MeetingDurationMinutes != nil {
		return *state.MeetingDurationMinutes
	}
	return defaultDurationMinutes
}

func hasDateRange(state *models.SessionState) bool {
	return state.DateRangeStart != "" && state.DateRangeEnd != ""
}

// snapshot packages the collected parameters for the intent classifier.
func (m *Machine) snapshot(state *models.SessionState, message string) intelligence.Snapshot {
	snap := intelligence.Snapshot{
		Message:        message,
		Date:           state.PreferredDate,
		TimePreference: state.PreferredTime,
		Title:          state.Title,
		ReadyToBook:    len(state.AvailableSlots) > 0,
		Confirmed:      state.Confirmed,
		Cancelled:      state.Cancelled,
	}
	if state.MeetingDurationMinutes != nil {
		snap.Duration = fmt.Sprintf("%d", *state.MeetingDurationMinutes)
	}

	var history []string
	start := len(state.Messages) - 7
	if start < 0 {
		start = 0
	}
	for _, msg := range state.Messages[start : len(state.Messages)-1] {
		history = append(history, msg.Role+": "+msg.Content)
	}
	snap.ConversationHistory = strings.Join(history, "\n")

	var events []string
	for i, ev := range state.CalendarContext {
		if i >= 10 {
			break
		}
		events = append(events, fmt.Sprintf("%s at %s on %s", ev.Summary, formatClock(ev.Start), ev.Start.Format("2006-01-02")))
	}
	snap.CalendarContext = strings.Join(events, "; ")

	if state.CancelledParams != nil {
		var parts []string
		if state.CancelledParams.DurationMinutes != nil {
			parts = append(parts, fmt.Sprintf("duration=%d", *state.CancelledParams.DurationMinutes))
		}
		if state.CancelledParams.Date != "" {
			parts = append(parts, "date="+state.CancelledParams.Date)
		}
		if state.CancelledParams.Time != "" {
			parts = append(parts, "time="+state.CancelledParams.Time)
		}
		if state.CancelledParams.Title != "" {
			parts = append(parts, "title="+state.CancelledParams.Title)
		}
		snap.CancelledParams = strings.Join(parts, ", ")
	}
	return snap
}
