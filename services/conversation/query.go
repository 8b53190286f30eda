package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"meetwise/models"
	"meetwise/services/reference"
	"meetwise/utils"

	"go.uber.org/zap"
)

var clockWithMeridiemRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(pm|am)\b`)

// queryCalendar dispatches to the right search: a date range, an
// event-anchored query, or a single day.
func (m *Machine) queryCalendar(ctx context.Context, state *models.SessionState) (string, error) {
	lower := strings.ToLower(state.LatestUserMessage())

	switch {
	case state.MultiDaySearch && hasDateRange(state):
		return m.multiDaySearch(ctx, state)
	case state.IsReferenceQuery ||
		strings.Contains(lower, "before my") || strings.Contains(lower, "after my") ||
		strings.Contains(lower, "before the") || strings.Contains(lower, "after the"):
		return m.referenceQuery(ctx, state)
	default:
		return m.simpleQuery(ctx, state)
	}
}

func (m *Machine) multiDaySearch(ctx context.Context, state *models.SessionState) (string, error) {
	start, err := time.ParseInLocation("2006-01-02", state.DateRangeStart, m.loc)
	if err != nil {
		return "", fmt.Errorf("bad range start %q: %w", state.DateRangeStart, err)
	}
	end, err := time.ParseInLocation("2006-01-02", state.DateRangeEnd, m.loc)
	if err != nil {
		return "", fmt.Errorf("bad range end %q: %w", state.DateRangeEnd, err)
	}

	pref := state.PreferredTime
	if pref == "" && state.Constraints.EarliestHour != nil {
		switch h := *state.Constraints.EarliestHour; {
		case h >= 8 && h < 12:
			pref = "morning"
		case h >= 12 && h < 17:
			pref = "afternoon"
		case h >= 17:
			pref = "evening"
		}
	}

	slots, err := m.engine.FindMultiDaySlots(ctx, start, end, durationOrDefault(state), pref, state.Constraints)
	if err != nil {
		return "", err
	}
	state.AvailableSlots = slots
	state.PartialGap = nil

	if len(slots) == 0 {
		return nodeResolveConflict, nil
	}
	return nodeSuggest, nil
}

func (m *Machine) simpleQuery(ctx context.Context, state *models.SessionState) (string, error) {
	// A plain date search never carries reference baggage.
	state.IsReferenceQuery = false
	state.ReferenceEventName = ""
	state.ResolvedReference = nil

	date, ok := m.preferredDate(state)
	if !ok {
		date = m.today().AddDate(0, 0, 1)
		state.PreferredDate = date.Format("2006-01-02")
	}

	slots, partial, err := m.engine.FindSlotsWithConstraints(ctx, date, durationOrDefault(state), state.PreferredTime, state.Constraints)
	if err != nil {
		return "", err
	}
	state.AvailableSlots = slots
	if partial != nil {
		state.PartialGap = &partial.Gap
	} else {
		state.PartialGap = nil
	}

	if len(slots) == 0 {
		return nodeResolveConflict, nil
	}
	return nodeSuggest, nil
}

// referenceQuery anchors the search on another calendar event, found either
// by name ("after the Quarterly Review") or by its time ("before my 2 PM on
// Thursday").
func (m *Machine) referenceQuery(ctx context.Context, state *models.SessionState) (string, error) {
	message := state.ReferenceEventName
	if message == "" {
		message = state.LatestUserMessage()
	}

	if name := reference.ExtractEventName(message); name != "" {
		return m.namedReferenceQuery(ctx, state, message, name)
	}
	if next, handled, err := m.timeReferenceQuery(ctx, state, message); handled || err != nil {
		return next, err
	}
	return m.simpleQuery(ctx, state)
}

func (m *Machine) namedReferenceQuery(ctx context.Context, state *models.SessionState, message, name string) (string, error) {
	logger := utils.GetLogger()

	ref, err := m.resolver.Resolve(ctx, name)
	if err != nil {
		return "", err
	}
	if ref == nil {
		m.reply(state, fmt.Sprintf("I couldn't find an event called '%s' in your calendar. Could you provide the exact date and time you'd like to schedule instead?", name))
		state.IsReferenceQuery = false
		state.ReferenceEventName = ""
		return "", nil
	}

	offset := reference.DayOffset(message)
	relation := reference.Relation(message, offset)
	logger.Info("Resolved event reference",
		zap.String("event", ref.Summary),
		zap.String("relation", relation),
		zap.Int("dayOffset", offset))

	if state.MeetingDurationMinutes == nil {
		if minutes, ok := m.parser().ParseDuration(message); ok {
			state.MeetingDurationMinutes = &minutes
		} else if strings.Contains(strings.ToLower(message), "short") {
			minutes := 30
			state.MeetingDurationMinutes = &minutes
		}
	}

	state.IsReferenceQuery = true
	state.ResolvedReference = ref
	state.ReferenceRelation = relation
	state.ReferenceDayOffset = offset

	if state.MeetingDurationMinutes == nil {
		return nodeClarify, nil
	}

	refStart := ref.Start.In(m.loc)
	target := time.Date(refStart.Year(), refStart.Month(), refStart.Day(), 0, 0, 0, 0, m.loc).AddDate(0, 0, offset)
	state.PreferredDate = target.Format("2006-01-02")

	// Same-day requests scan the whole day and then cut around the event; a
	// flight gets a generous travel buffer on the "before" side.
	pref := state.PreferredTime
	buffer := 0
	if offset == 0 {
		pref = ""
		if relation == reference.RelationBefore {
			buffer = reference.TravelBuffer(ref.Summary)
		}
	}

	slots, _, err := m.engine.FindAvailableSlots(ctx, target, *state.MeetingDurationMinutes, pref)
	if err != nil {
		return "", err
	}
	if offset == 0 {
		slots = reference.FilterSlots(slots, relation, ref.Start, ref.End, buffer)
	}
	state.AvailableSlots = slots
	state.PartialGap = nil

	if len(slots) == 0 {
		return nodeResolveConflict, nil
	}
	return nodeSuggest, nil
}

// timeReferenceQuery handles "before my 2 PM on Thursday": it finds the event
// near that time and schedules around it.
func (m *Machine) timeReferenceQuery(ctx context.Context, state *models.SessionState, message string) (string, bool, error) {
	clock := clockWithMeridiemRe.FindStringSubmatch(message)
	day, hasDay := weekdayIn(strings.ToLower(message))
	if clock == nil || !hasDay {
		return "", false, nil
	}

	hour, _ := strconv.Atoi(clock[1])
	if strings.EqualFold(clock[2], "pm") && hour != 12 {
		hour += 12
	}
	if strings.EqualFold(clock[2], "am") && hour == 12 {
		hour = 0
	}

	date, ok := m.parser().ParseDate(day.String())
	if !ok {
		return "", false, nil
	}

	windowStart := time.Date(date.Year(), date.Month(), date.Day(), hour-1, 0, 0, 0, m.loc)
	windowEnd := time.Date(date.Year(), date.Month(), date.Day(), hour+2, 0, 0, 0, m.loc)
	events, err := m.engine.Provider.ListEvents(ctx, m.engine.CalendarID, windowStart, windowEnd)
	if err != nil {
		return "", false, err
	}
	if len(events) == 0 {
		return "", false, nil
	}

	ref := events[0]
	relation := reference.RelationAfter
	if strings.Contains(strings.ToLower(message), reference.RelationBefore) {
		relation = reference.RelationBefore
	}
	buffer := reference.TravelBuffer(ref.Summary)

	state.IsReferenceQuery = true
	state.ResolvedReference = &ref
	state.ReferenceRelation = relation
	state.ReferenceDayOffset = 0
	state.PreferredDate = date.Format("2006-01-02")

	slots, _, err := m.engine.FindAvailableSlots(ctx, date, durationOrDefault(state), "")
	if err != nil {
		return "", false, err
	}
	slots = reference.FilterSlots(slots, relation, ref.Start, ref.End, buffer)
	state.AvailableSlots = slots
	state.PartialGap = nil

	if len(slots) == 0 {
		return nodeResolveConflict, true, nil
	}
	return nodeSuggest, true, nil
}
