package availability

import (
	"context"
	"testing"
	"time"

	"meetwise/models"
	"meetwise/services/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loc = time.UTC

// Monday, 2026-03-02.
func day(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, loc)
}

func event(summary string, start, end time.Time) models.CalendarEvent {
	return models.CalendarEvent{Summary: summary, Start: start, End: end}
}

func TestFindGaps(t *testing.T) {
	events := []models.CalendarEvent{
		event("standup", day(10, 0), day(11, 0)),
		event("lunch", day(13, 0), day(14, 30)),
	}

	gaps := FindGaps(events, day(9, 0), day(18, 0), 60)
	require.Len(t, gaps, 3)

	assert.Equal(t, day(9, 0), gaps[0].Start)
	assert.Equal(t, day(10, 0), gaps[0].End)
	assert.True(t, gaps[0].FitsRequirement)
	assert.Equal(t, 60, gaps[0].AvailableMinutes)

	assert.Equal(t, day(11, 0), gaps[1].Start)
	assert.Equal(t, day(13, 0), gaps[1].End)
	assert.True(t, gaps[1].FitsRequirement)

	assert.Equal(t, day(14, 30), gaps[2].Start)
	assert.Equal(t, day(18, 0), gaps[2].End)
	assert.True(t, gaps[2].FitsRequirement)
}

func TestFindGapsPartial(t *testing.T) {
	events := []models.CalendarEvent{
		event("review", day(15, 30), day(19, 0)),
	}

	gaps := FindGaps(events, day(14, 0), day(19, 0), 120)
	require.Len(t, gaps, 1)
	assert.False(t, gaps[0].FitsRequirement)
	assert.Equal(t, 90, gaps[0].AvailableMinutes)

	// Undersized gaps never produce slots.
	assert.Empty(t, GenerateSlots(gaps, 120))
}

func TestFindGapsOverlappingEvents(t *testing.T) {
	// Back-to-back and overlapping events leave no gap between them.
	events := []models.CalendarEvent{
		event("a", day(10, 0), day(12, 0)),
		event("b", day(11, 0), day(13, 0)),
		event("c", day(13, 0), day(14, 0)),
	}

	gaps := FindGaps(events, day(9, 0), day(17, 0), 30)
	require.Len(t, gaps, 2)
	assert.Equal(t, day(9, 0), gaps[0].Start)
	assert.Equal(t, day(10, 0), gaps[0].End)
	assert.Equal(t, day(14, 0), gaps[1].Start)
	assert.Equal(t, day(17, 0), gaps[1].End)
}

func TestGenerateSlotsEdgePriorities(t *testing.T) {
	gaps := FindGaps(nil, day(11, 0), day(13, 0), 60)
	slots := GenerateSlots(gaps, 60)

	require.Len(t, slots, 2)
	assert.Equal(t, day(11, 0), slots[0].Start)
	assert.Equal(t, 1, slots[0].Priority)
	assert.Equal(t, day(12, 0), slots[1].Start)
	assert.Equal(t, 2, slots[1].Priority)
}

func TestGenerateSlotsSkipsCrampedEndSlot(t *testing.T) {
	// A 70-minute gap fits the hour twice but the end-aligned slot would sit
	// only 10 minutes from the start-aligned one.
	gaps := FindGaps(nil, day(13, 0), day(14, 10), 60)
	slots := GenerateSlots(gaps, 60)

	require.Len(t, slots, 1)
	assert.Equal(t, day(13, 0), slots[0].Start)
}

func TestGenerateSlotsIntermediates(t *testing.T) {
	// 14:30-18:00 with a 60-minute meeting: edges plus 30-minute boundaries,
	// all spaced at least 15 minutes apart.
	gaps := FindGaps(nil, day(14, 30), day(18, 0), 60)
	slots := GenerateSlots(gaps, 60)

	var starts []time.Time
	for _, s := range slots {
		starts = append(starts, s.Start)
		assert.Equal(t, time.Hour, s.End.Sub(s.Start))
	}
	assert.Contains(t, starts, day(14, 30))
	assert.Contains(t, starts, day(17, 0))
	assert.Contains(t, starts, day(15, 0))
	assert.Contains(t, starts, day(16, 30))

	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			d := slots[i].Start.Sub(slots[j].Start)
			if d < 0 {
				d = -d
			}
			assert.GreaterOrEqual(t, d, 15*time.Minute)
		}
	}
}

func TestSlotsNeverOverlapEvents(t *testing.T) {
	events := []models.CalendarEvent{
		event("standup", day(10, 0), day(11, 0)),
		event("lunch", day(13, 0), day(14, 30)),
		event("1:1", day(16, 0), day(16, 45)),
	}

	gaps := FindGaps(events, day(8, 0), day(18, 0), 45)
	slots := GenerateSlots(gaps, 45)
	require.NotEmpty(t, slots)

	for _, s := range slots {
		assert.Equal(t, 45*time.Minute, s.End.Sub(s.Start))
		for _, ev := range events {
			assert.False(t, s.Overlaps(ev.Start, ev.End),
				"slot %s overlaps %s", s.Start.Format("15:04"), ev.Summary)
		}
	}
}

func TestAlignToRequestedHourSynthetic(t *testing.T) {
	// A wide-open day: generated slots cluster early, so 15:00 only appears
	// as a synthetic slot validated against the gap.
	gaps := FindGaps(nil, day(9, 0), day(18, 0), 60)
	slots := GenerateSlots(gaps, 60)

	aligned := AlignToRequestedHour(slots, gaps, 15, 60)
	require.NotEmpty(t, aligned)
	assert.Equal(t, day(15, 0), aligned[0].Start)
	assert.Equal(t, 0, aligned[0].Priority)
	assert.True(t, aligned[0].IsSynthetic)
}

func TestAlignToRequestedHourNearestFirst(t *testing.T) {
	// 15:00 itself is blocked; the nearest alternative leads but nothing is
	// fabricated at the requested time.
	events := []models.CalendarEvent{
		event("busy", day(14, 50), day(16, 10)),
	}
	gaps := FindGaps(events, day(13, 0), day(18, 0), 60)
	slots := GenerateSlots(gaps, 60)

	aligned := AlignToRequestedHour(slots, gaps, 15, 60)
	require.NotEmpty(t, aligned)
	for _, s := range aligned {
		assert.False(t, s.IsSynthetic)
		assert.NotEqual(t, day(15, 0), s.Start)
	}
	// The closest start wins the first position.
	first := aligned[0].Start
	assert.True(t, first.Equal(day(16, 10)) || first.Equal(day(14, 0)) || first.Equal(day(13, 50)),
		"unexpected first slot %s", first.Format("15:04"))
}

func TestPartialGapAtHour(t *testing.T) {
	events := []models.CalendarEvent{
		event("review", day(15, 30), day(19, 0)),
	}
	gaps := FindGaps(events, day(14, 0), day(19, 0), 120)

	partial := PartialGapAtHour(gaps, 15, 120)
	require.NotNil(t, partial)
	assert.Equal(t, 90, partial.Gap.AvailableMinutes)
	assert.Equal(t, 30, partial.ShortageMinutes)

	// No partial when the requested hour is outside every undersized gap.
	assert.Nil(t, PartialGapAtHour(gaps, 18, 120))
}

func TestTimeRangeFor(t *testing.T) {
	start, end := TimeRangeFor("17:00")
	assert.Equal(t, 16, start)
	assert.Equal(t, 21, end)

	start, end = TimeRangeFor("06:00")
	assert.Equal(t, 5, start)
	assert.Equal(t, 10, end)

	start, end = TimeRangeFor("morning")
	assert.Equal(t, 5, start)
	assert.Equal(t, 12, end)

	start, end = TimeRangeFor("")
	assert.Equal(t, 0, start)
	assert.Equal(t, 23, end)
}

func TestEngineRankingIdempotent(t *testing.T) {
	provider := calendar.NewMemoryProvider(
		event("standup", day(10, 0), day(11, 0)),
		event("lunch", day(13, 0), day(14, 0)),
	)
	engine := NewEngine(provider, "primary", loc)

	first, _, err := engine.FindAvailableSlots(context.Background(), day(0, 0), 60, "afternoon")
	require.NoError(t, err)
	second, _, err := engine.FindAvailableSlots(context.Background(), day(0, 0), 60, "afternoon")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngineBufferAfterLastMeeting(t *testing.T) {
	provider := calendar.NewMemoryProvider(
		event("all hands", day(11, 0), day(14, 0)),
	)
	engine := NewEngine(provider, "primary", loc)

	constraints := models.SearchConstraints{BufferAfterLastMeeting: 60}
	slots, _, err := engine.FindSlotsWithConstraints(context.Background(), day(0, 0), 30, "", constraints)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.False(t, s.Start.Before(day(15, 0)),
			"slot %s violates the post-meeting buffer", s.Start.Format("15:04"))
	}

	// A bigger buffer can only push the earliest slot later, never earlier.
	constraints.BufferAfterLastMeeting = 120
	wider, _, err := engine.FindSlotsWithConstraints(context.Background(), day(0, 0), 30, "", constraints)
	require.NoError(t, err)
	require.NotEmpty(t, wider)
	assert.False(t, wider[0].Start.Before(slots[0].Start))
}

func TestEngineBufferBeforeNextMeeting(t *testing.T) {
	provider := calendar.NewMemoryProvider(
		event("flight", day(16, 0), day(18, 0)),
	)
	engine := NewEngine(provider, "primary", loc)

	constraints := models.SearchConstraints{BufferBeforeNextMeeting: 90}
	slots, _, err := engine.FindSlotsWithConstraints(context.Background(), day(0, 0), 60, "afternoon", constraints)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.False(t, s.End.After(day(14, 30)),
			"slot ending %s violates the pre-meeting buffer", s.End.Format("15:04"))
	}
}

func TestEngineMultiDayConstraints(t *testing.T) {
	// Week of 2026-03-02 (Mon) to 2026-03-06 (Fri), no Wednesdays, nothing
	// before 10:00.
	provider := calendar.NewMemoryProvider()
	engine := NewEngine(provider, "primary", loc)

	earliest := 10
	constraints := models.SearchConstraints{
		NegativeDays: []time.Weekday{time.Wednesday},
		EarliestHour: &earliest,
	}
	slots, err := engine.FindMultiDaySlots(context.Background(),
		day(0, 0), day(0, 0).AddDate(0, 0, 4), 60, "", constraints)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.LessOrEqual(t, len(slots), 10)

	perDay := map[string]int{}
	for _, s := range slots {
		assert.NotEqual(t, time.Wednesday, s.Start.Weekday())
		assert.NotEqual(t, "2026-03-04", s.Date)
		assert.GreaterOrEqual(t, s.Start.Hour(), 10)
		require.NotEmpty(t, s.Date)
		perDay[s.Date]++
		assert.LessOrEqual(t, perDay[s.Date], 3)
	}
}

func TestEngineExcludedDaySingleSearch(t *testing.T) {
	provider := calendar.NewMemoryProvider()
	engine := NewEngine(provider, "primary", loc)

	constraints := models.SearchConstraints{NegativeDays: []time.Weekday{time.Monday}}
	slots, partial, err := engine.FindSlotsWithConstraints(context.Background(), day(0, 0), 60, "", constraints)
	require.NoError(t, err)
	assert.Nil(t, partial)
	assert.Empty(t, slots)
}
