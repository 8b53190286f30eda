package conversation

import (
	"context"
	"testing"
	"time"

	"meetwise/config"
	"meetwise/models"
	"meetwise/services/availability"
	"meetwise/services/calendar"
	"meetwise/services/intelligence"
	"meetwise/services/reference"
	"meetwise/services/timeparse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday, March 2 2026, 09:00 UTC.
var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestMachine(events ...models.CalendarEvent) (*Machine, *calendar.MemoryProvider) {
	provider := calendar.NewMemoryProvider(events...)
	engine := availability.NewEngine(provider, "primary", time.UTC)
	resolver := reference.NewResolver(provider, "primary", time.UTC)
	resolver.Now = func() time.Time { return testNow }
	classifier := intelligence.NewLocalClassifier(timeparse.NewParserAt(testNow))

	m := NewMachine(classifier, engine, resolver, nil, time.UTC)
	m.now = func() time.Time { return testNow }
	return m, provider
}

func newTestState() *models.SessionState {
	return &models.SessionState{UserID: "u1", ConversationPhase: models.PhaseActiveBooking}
}

func TestBookingFlowEndToEnd(t *testing.T) {
	m, provider := newTestMachine()
	state := newTestState()
	ctx := context.Background()

	reply, err := m.HandleMessage(ctx, state, "I need a 30 minute meeting tomorrow at 10 AM")
	require.NoError(t, err)
	assert.Contains(t, reply, "10:00 AM")
	require.NotEmpty(t, state.AvailableSlots)
	assert.Equal(t, 10, state.AvailableSlots[0].Start.Hour())
	assert.Equal(t, "2026-03-03", state.PreferredDate)
	require.NotNil(t, state.MeetingDurationMinutes)
	assert.Equal(t, 30, *state.MeetingDurationMinutes)

	// A plain yes is not enough to book: the meeting needs a name first.
	reply, err = m.HandleMessage(ctx, state, "yes")
	require.NoError(t, err)
	assert.Contains(t, reply, "What would you like to call this meeting?")
	assert.True(t, state.AwaitingTitleInput)

	reply, err = m.HandleMessage(ctx, state, "Project kickoff")
	require.NoError(t, err)
	assert.Contains(t, reply, "All set!")
	assert.Contains(t, reply, "Project kickoff")
	assert.Contains(t, reply, "thirty minutes")
	assert.True(t, state.BookingConfirmed)
	assert.Equal(t, models.PhasePostConfirmation, state.ConversationPhase)
	require.NotNil(t, state.LastCompletedBooking)
	assert.Equal(t, "Project kickoff", state.LastCompletedBooking.Title)

	events, err := provider.ListEvents(ctx, "primary", testNow, testNow.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Project kickoff", events[0].Summary)
	assert.Equal(t, 10, events[0].Start.Hour())
	assert.Equal(t, 30, int(events[0].Duration().Minutes()))
}

func TestNearbyTimeIsOfferedNotAutoBooked(t *testing.T) {
	m, _ := newTestMachine()
	state := newTestState()
	ctx := context.Background()

	_, err := m.HandleMessage(ctx, state, "I need a 30 minute meeting tomorrow at 10 AM")
	require.NoError(t, err)
	require.NotEmpty(t, state.AvailableSlots)

	// 9:15 is not among the suggestions; close slots are offered instead of
	// silently booked.
	reply, err := m.HandleMessage(ctx, state, "sure, 9:15 works")
	require.NoError(t, err)
	assert.Contains(t, reply, "That time isn't available")
	assert.Contains(t, reply, "Would any of those work?")
	assert.False(t, state.Confirmed)
	assert.False(t, state.BookingConfirmed)
}

func TestCancelThenResume(t *testing.T) {
	m, _ := newTestMachine()
	state := newTestState()
	ctx := context.Background()

	_, err := m.HandleMessage(ctx, state, "I need a 30 minute meeting tomorrow at 10 AM")
	require.NoError(t, err)

	reply, err := m.HandleMessage(ctx, state, "actually, cancel that")
	require.NoError(t, err)
	assert.Contains(t, reply, "No problem")
	assert.True(t, state.Cancelled)
	assert.Nil(t, state.MeetingDurationMinutes)
	require.NotNil(t, state.CancelledParams)
	require.NotNil(t, state.CancelledParams.DurationMinutes)
	assert.Equal(t, 30, *state.CancelledParams.DurationMinutes)

	// Resuming restores the saved duration and time, then asks for the one
	// thing that was lost.
	reply, err = m.HandleMessage(ctx, state, "actually, let's do it after all")
	require.NoError(t, err)
	assert.False(t, state.Cancelled)
	require.NotNil(t, state.MeetingDurationMinutes)
	assert.Equal(t, 30, *state.MeetingDurationMinutes)
	assert.Equal(t, "10:00", state.PreferredTime)
	assert.Contains(t, reply, "What day")
}

func TestReferenceBookingBeforeFlight(t *testing.T) {
	flight := models.CalendarEvent{
		Summary: "Flight to Denver",
		Start:   time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 3, 5, 16, 0, 0, 0, time.UTC),
	}
	m, _ := newTestMachine(flight)
	state := newTestState()

	reply, err := m.HandleMessage(context.Background(), state, "I need 45 minutes before my 'Flight to Denver'")
	require.NoError(t, err)

	assert.Contains(t, reply, "3-hour travel")
	assert.Contains(t, reply, "11:00 AM")
	require.NotNil(t, state.ResolvedReference)
	assert.Equal(t, "Flight to Denver", state.ResolvedReference.Summary)
	assert.Equal(t, reference.RelationBefore, state.ReferenceRelation)
	assert.Equal(t, "2026-03-05", state.PreferredDate)

	cutoff := flight.Start.Add(-3 * time.Hour)
	require.NotEmpty(t, state.AvailableSlots)
	for _, s := range state.AvailableSlots {
		assert.False(t, s.End.After(cutoff), "slot %v ends inside the travel buffer", s.Start)
	}
}

func TestUnknownReferenceAsksForDetails(t *testing.T) {
	m, _ := newTestMachine()
	state := newTestState()

	reply, err := m.HandleMessage(context.Background(), state, "I need 45 minutes before my 'Board Review'")
	require.NoError(t, err)
	assert.Contains(t, reply, "couldn't find an event called 'Board Review'")
	assert.False(t, state.IsReferenceQuery)
}

func TestMultiDaySearchSkipsExcludedDay(t *testing.T) {
	m, _ := newTestMachine()
	state := newTestState()

	reply, err := m.HandleMessage(context.Background(), state,
		"I'm free sometime next week for a 60 minute meeting, but not on wednesday")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-09", state.DateRangeStart)
	assert.Equal(t, "2026-03-13", state.DateRangeEnd)
	assert.True(t, state.MultiDaySearch)
	assert.NotContains(t, reply, "Wednesday")
	require.NotEmpty(t, state.AvailableSlots)
	for _, s := range state.AvailableSlots {
		assert.NotEqual(t, time.Wednesday, s.Start.Weekday())
	}
}

func TestConflictOffersAlternatives(t *testing.T) {
	busy := models.CalendarEvent{
		Summary: "Offsite",
		Start:   time.Date(2026, 3, 3, 13, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC),
	}
	m, _ := newTestMachine(busy)
	state := newTestState()

	reply, err := m.HandleMessage(context.Background(), state, "Book 60 minutes tomorrow at 3 pm")
	require.NoError(t, err)

	assert.Contains(t, reply, "Would any of those work?")
	assert.Contains(t, reply, "11:00 AM")
	assert.Equal(t, "2026-03-03", state.OriginalRequestedDate)
	require.NotEmpty(t, state.AvailableSlots)
	for _, s := range state.AvailableSlots {
		assert.False(t, s.Overlaps(busy.Start, busy.End))
	}
}

func TestClarifyAsksForDurationFirst(t *testing.T) {
	m, _ := newTestMachine()
	state := newTestState()

	reply, err := m.HandleMessage(context.Background(), state, "Can you set up a meeting for me?")
	require.NoError(t, err)
	assert.Contains(t, reply, "How long")
	assert.Equal(t, 1, state.ClarificationAttempts)
}

func TestClarifyResolvesAmbiguousWeekPhrase(t *testing.T) {
	m, _ := newTestMachine()
	state := newTestState()
	ctx := context.Background()

	reply, err := m.HandleMessage(ctx, state, "I need an hour late next week")
	require.NoError(t, err)
	assert.Contains(t, reply, "Thursday or Friday")
	assert.Equal(t, "next_week", state.WeekContext)

	// The answer is interpreted inside next week, not this one.
	_, err = m.HandleMessage(ctx, state, "Friday works")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-13", state.PreferredDate)
}

func TestPostConfirmationStartsFresh(t *testing.T) {
	m, _ := newTestMachine()
	state := newTestState()
	ctx := context.Background()

	_, err := m.HandleMessage(ctx, state, "I need a 30 minute meeting tomorrow at 10 AM")
	require.NoError(t, err)
	_, err = m.HandleMessage(ctx, state, "yes")
	require.NoError(t, err)
	_, err = m.HandleMessage(ctx, state, "Sprint review")
	require.NoError(t, err)
	require.True(t, state.BookingConfirmed)

	reply, err := m.HandleMessage(ctx, state, "I need another meeting")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseActiveBooking, state.ConversationPhase)
	assert.Nil(t, state.MeetingDurationMinutes)
	assert.Contains(t, reply, "How long")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "March 3rd", ordinalDate(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "March 21st", ordinalDate(time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "March 12th", ordinalDate(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "9:00 AM", joinNaturally([]string{"9:00 AM"}, "or"))
	assert.Equal(t, "9:00 AM or 10:00 AM", joinNaturally([]string{"9:00 AM", "10:00 AM"}, "or"))
	assert.Equal(t, "9:00 AM, 10:00 AM, or 11:00 AM",
		joinNaturally([]string{"9:00 AM", "10:00 AM", "11:00 AM"}, "or"))

	assert.Equal(t, "one hour", durationWords(60))
	assert.Equal(t, "an hour and thirty minutes", durationWords(90))
	assert.Equal(t, "45 minutes", durationWords(45))

	assert.True(t, containsWord("book another one", "another"))
	assert.False(t, containsWord("see you tomorrow", "more"))
}

func TestLongMeetingBooksAfterConfirmation(t *testing.T) {
	m, provider := newTestMachine()
	state := newTestState()
	ctx := context.Background()

	reply, err := m.HandleMessage(ctx, state, "I need a 4 hour meeting tomorrow at 10 AM")
	require.NoError(t, err)
	assert.Contains(t, reply, "quite long")
	assert.True(t, state.PendingDurationConfirm)
	assert.Empty(t, state.AvailableSlots)

	// Affirming the length clears the warning and the search proceeds.
	reply, err = m.HandleMessage(ctx, state, "yes, that's correct")
	require.NoError(t, err)
	assert.NotContains(t, reply, "quite long")
	assert.Contains(t, reply, "10:00 AM")
	assert.True(t, state.DurationAcknowledged)
	require.NotEmpty(t, state.AvailableSlots)

	reply, err = m.HandleMessage(ctx, state, "yes")
	require.NoError(t, err)
	assert.Contains(t, reply, "What would you like to call this meeting?")

	reply, err = m.HandleMessage(ctx, state, "Quarterly planning")
	require.NoError(t, err)
	assert.Contains(t, reply, "All set!")
	assert.True(t, state.BookingConfirmed)

	events, err := provider.ListEvents(ctx, "primary", testNow, testNow.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 240, int(events[0].Duration().Minutes()))
}

func TestRescueWindowUsesConfiguredWorkDay(t *testing.T) {
	old := config.AppConfig
	defer func() { config.AppConfig = old }()
	config.AppConfig.WorkDayStartHour = 9
	config.AppConfig.WorkDayEndHour = 17

	start, end := rescueWindow(newTestState())
	assert.Equal(t, 9, start)
	assert.Equal(t, 17, end)

	// A stated preference still wins over the work-day fallback.
	state := newTestState()
	state.PreferredTime = "evening"
	start, end = rescueWindow(state)
	assert.Equal(t, 17, start)
	assert.Equal(t, 21, end)
}

func TestWeekdayInMatchesWholeWords(t *testing.T) {
	wd, ok := weekdayIn("any friday works")
	assert.True(t, ok)
	assert.Equal(t, time.Friday, wd)

	wd, ok = weekdayIn("no fridays please")
	assert.True(t, ok)
	assert.Equal(t, time.Friday, wd)

	_, ok = weekdayIn("a mondayish kind of morning")
	assert.False(t, ok)
}
