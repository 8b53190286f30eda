package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meetwise/models"
	"meetwise/utils"

	"go.uber.org/zap"
)

// createEvent commits the booking. A specific requested time must match a
// slot exactly; close-but-not-exact times are only auto-picked once the
// meeting already has a name, otherwise the user chooses.
func (m *Machine) createEvent(ctx context.Context, state *models.SessionState) (string, error) {
	logger := utils.GetLogger()
	message := strings.ToLower(state.LatestUserMessage())

	slots := state.AvailableSlots
	if len(slots) == 0 {
		date, ok := m.preferredDate(state)
		if !ok {
			date = m.today().AddDate(0, 0, 1)
		}
		found, _, err := m.engine.FindSlotsWithConstraints(ctx, date, durationOrDefault(state), state.PreferredTime, state.Constraints)
		if err != nil {
			return "", err
		}
		if len(found) == 0 {
			state.Confirmed = false
			m.reply(state, "That slot is no longer available. Would you like me to look for another time?")
			return "", nil
		}
		slots = found
	}

	// "Friday works" narrows multi-day suggestions to that day.
	if day, ok := weekdayIn(message); ok {
		var filtered []models.Slot
		for _, s := range slots {
			if s.Start.Weekday() == day {
				filtered = append(filtered, s)
			}
		}
		if len(filtered) > 0 {
			slots = filtered
		}
	}

	hasTitle := state.Title != "" && !strings.EqualFold(state.Title, "meeting")

	chosen, next, err := m.pickSlot(ctx, state, slots, hasTitle)
	if err != nil || chosen == nil {
		return next, err
	}

	duration := durationOrDefault(state)
	title := state.Title
	if title == "" {
		title = "Meeting"
	}
	description := state.Description
	if description == "" {
		description = "Scheduled through the booking assistant"
	}

	created, err := m.engine.Provider.CreateEvent(ctx, m.engine.CalendarID, models.CalendarEvent{
		Summary:     title,
		Description: description,
		Start:       chosen.Start,
		End:         chosen.Start.Add(time.Duration(duration) * time.Minute),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	logger.Info("Event booked",
		zap.String("userId", state.UserID),
		zap.String("eventId", created.ID),
		zap.Time("start", chosen.Start))

	if m.records != nil {
		_, err := m.records.Create(ctx, models.BookingRecord{
			UserID:          state.UserID,
			Title:           title,
			Date:            chosen.Start.Format("2006-01-02"),
			Time:            chosen.Start.Format("15:04"),
			DurationMinutes: duration,
			CalendarEventID: created.ID,
		})
		if err != nil {
			logger.Warn("Failed to record booking", zap.Error(err))
		}
	}

	m.refreshCalendarContext(ctx, state)

	m.reply(state, fmt.Sprintf("All set! I've scheduled %s for %s on %s. The meeting is %s long.",
		title, formatClock(chosen.Start), formatDate(chosen.Start), durationWords(duration)))

	state.Confirmed = true
	state.BookingConfirmed = true
	state.AwaitingTitleInput = false
	state.AvailableSlots = nil
	state.PartialGap = nil
	state.LastCompletedBooking = &models.CompletedBooking{
		Title:           title,
		Date:            chosen.Start.Format("2006-01-02"),
		Time:            chosen.Start.Format("15:04"),
		DurationMinutes: duration,
		Timestamp:       m.now(),
	}
	state.ConversationPhase = models.PhasePostConfirmation

	// "...and another one on Friday" keeps the turn going.
	if containsAnyWord(message, "another", "also", "more", "else") {
		return nodeExtract, nil
	}
	return "", nil
}

// pickSlot resolves the requested time against the candidates. A nil slot
// with no error means the turn ended with a question to the user.
func (m *Machine) pickSlot(ctx context.Context, state *models.SessionState, slots []models.Slot, hasTitle bool) (*models.Slot, string, error) {
	if state.SpecificHour == nil {
		return &slots[0], "", nil
	}
	hour := *state.SpecificHour
	minute := 0
	if state.SpecificMinute != nil {
		minute = *state.SpecificMinute
	}

	if exact := slotsAtTime(slots, hour, minute); len(exact) > 0 {
		return &exact[0], "", nil
	}

	if nearby := slotsNear(slots, hour, minute, 30, 3); len(nearby) > 0 {
		if hasTitle {
			return &nearby[0], "", nil
		}
		state.AvailableSlots = nearby
		state.Confirmed = false
		state.AwaitingTitleInput = false
		m.reply(state, fmt.Sprintf("That time isn't available, but I have %s. Would any of those work?",
			joinNaturally(slotTimes(nearby, 3), "or")))
		return nil, "", nil
	}

	// Nothing near the requested time among the suggestions; search the
	// calendar again anchored on it.
	date, ok := m.preferredDate(state)
	if !ok {
		date = time.Date(slots[0].Start.Year(), slots[0].Start.Month(), slots[0].Start.Day(), 0, 0, 0, 0, m.loc)
	}
	pref := fmt.Sprintf("%02d:%02d", hour, minute)
	fresh, _, err := m.engine.FindAvailableSlots(ctx, date, durationOrDefault(state), pref)
	if err != nil {
		return nil, "", err
	}

	if exact := slotsAtTime(fresh, hour, minute); len(exact) > 0 {
		return &exact[0], "", nil
	}
	if len(fresh) > 0 {
		if hasTitle {
			return &fresh[0], "", nil
		}
		state.AvailableSlots = fresh
		state.Confirmed = false
		m.reply(state, fmt.Sprintf("That time isn't available, but I have %s. Would any of those work?",
			joinNaturally(slotTimes(fresh, 3), "or")))
		return nil, "", nil
	}

	if hasTitle {
		return &slots[0], "", nil
	}
	state.Confirmed = false
	m.reply(state, fmt.Sprintf("That time isn't available. I have %s. Which would you prefer?",
		joinNaturally(slotTimes(slots, 5), "or")))
	return nil, "", nil
}

// refreshCalendarContext caches the next two weeks of events so follow-up
// turns can reason about them without another round-trip.
func (m *Machine) refreshCalendarContext(ctx context.Context, state *models.SessionState) {
	now := m.now().In(m.loc)
	events, err := m.engine.Provider.ListEvents(ctx, m.engine.CalendarID, now, now.AddDate(0, 0, 14))
	if err != nil {
		utils.GetLogger().Warn("Failed to refresh calendar context", zap.Error(err))
		return
	}
	if len(events) > 20 {
		events = events[:20]
	}
	state.CalendarContext = events
}
