package availability

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"meetwise/models"
	"meetwise/services/calendar"
	"meetwise/utils"

	"go.uber.org/zap"
)

// Engine searches a calendar for open meeting slots.
type Engine struct {
	Provider   calendar.Provider
	CalendarID string
	Loc        *time.Location
}

// NewEngine wires an engine to a calendar provider.
func NewEngine(provider calendar.Provider, calendarID string, loc *time.Location) *Engine {
	return &Engine{Provider: provider, CalendarID: calendarID, Loc: loc}
}

// TimeRangeFor returns the search window hours for a preference: a specific
// time like "17:00" searches [hour-1, hour+4]; words map to day parts; no
// preference means the whole day.
func TimeRangeFor(preference string) (int, int) {
	if strings.Contains(preference, ":") {
		if hour, err := strconv.Atoi(strings.SplitN(preference, ":", 2)[0]); err == nil {
			start := hour - 1
			if start < 0 {
				start = 0
			}
			end := hour + 4
			if end > 23 {
				end = 23
			}
			return start, end
		}
	}

	switch preference {
	case "morning":
		return 5, 12
	case "afternoon":
		return 12, 18
	case "evening":
		return 17, 23
	case "night", "late night":
		return 20, 23
	default:
		return 0, 23
	}
}

// SpecificHour extracts the hour from a "HH:MM" preference, or -1.
func SpecificHour(preference string) int {
	if !strings.Contains(preference, ":") {
		return -1
	}
	hour, err := strconv.Atoi(strings.SplitN(preference, ":", 2)[0])
	if err != nil {
		return -1
	}
	return hour
}

// FindAvailableSlots searches one day. A specific time in the preference
// narrows the window around it and promotes exact matches.
func (e *Engine) FindAvailableSlots(ctx context.Context, date time.Time, durationMinutes int, timePreference string) ([]models.Slot, *PartialGap, error) {
	startHour, endHour := TimeRangeFor(timePreference)
	return e.findSlotsInWindow(ctx, date, durationMinutes, timePreference, startHour, endHour)
}

// FindSlotsWithConstraints applies search constraints on top of the
// preference window: excluded weekdays yield nothing, hour bounds clamp the
// window, and meeting buffers push it past the day's existing events.
func (e *Engine) FindSlotsWithConstraints(ctx context.Context, date time.Time, durationMinutes int, timePreference string, constraints models.SearchConstraints) ([]models.Slot, *PartialGap, error) {
	if constraints.ExcludesDay(date.Weekday()) {
		return nil, nil, nil
	}

	startHour, endHour := TimeRangeFor(timePreference)
	if constraints.EarliestHour != nil && *constraints.EarliestHour > startHour {
		startHour = *constraints.EarliestHour
	}
	if constraints.LatestHour != nil && *constraints.LatestHour < endHour {
		endHour = *constraints.LatestHour
	}
	if startHour >= endHour {
		return nil, nil, nil
	}

	windowStart := e.dayTime(date, startHour)
	windowEnd := e.dayTime(date, endHour)

	if constraints.BufferAfterLastMeeting > 0 || constraints.BufferBeforeNextMeeting > 0 {
		dayEvents, err := e.Provider.ListEvents(ctx, e.CalendarID, e.dayTime(date, 0), e.dayTime(date, 23))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list events for buffers: %w", err)
		}
		if constraints.BufferAfterLastMeeting > 0 && len(dayEvents) > 0 {
			lastEnd := dayEvents[0].End
			for _, ev := range dayEvents[1:] {
				if ev.End.After(lastEnd) {
					lastEnd = ev.End
				}
			}
			earliest := lastEnd.Add(time.Duration(constraints.BufferAfterLastMeeting) * time.Minute)
			if earliest.After(windowStart) {
				windowStart = earliest
			}
		}
		if constraints.BufferBeforeNextMeeting > 0 && len(dayEvents) > 0 {
			latest := dayEvents[0].Start.Add(-time.Duration(constraints.BufferBeforeNextMeeting) * time.Minute)
			if latest.Before(windowEnd) {
				windowEnd = latest
			}
		}
	}

	if !windowStart.Before(windowEnd) {
		return nil, nil, nil
	}
	return e.findSlots(ctx, durationMinutes, timePreference, windowStart, windowEnd)
}

// FindMultiDaySlots walks a date range, collecting up to 3 slots per day and
// 10 overall, each tagged with its date. Excluded weekdays are skipped.
func (e *Engine) FindMultiDaySlots(ctx context.Context, startDate, endDate time.Time, durationMinutes int, timePreference string, constraints models.SearchConstraints) ([]models.Slot, error) {
	logger := utils.GetLogger()

	var out []models.Slot
	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		if constraints.ExcludesDay(day.Weekday()) {
			logger.Debug("Multi-day search skipping excluded day", zap.String("day", day.Weekday().String()))
			continue
		}
		slots, _, err := e.FindSlotsWithConstraints(ctx, day, durationMinutes, timePreference, constraints)
		if err != nil {
			return nil, err
		}
		dateStr := day.Format("2006-01-02")
		for i, s := range slots {
			if i >= 3 {
				break
			}
			s.Date = dateStr
			out = append(out, s)
			if len(out) >= maxReturnedSlots {
				return out, nil
			}
		}
	}
	return out, nil
}

func (e *Engine) findSlotsInWindow(ctx context.Context, date time.Time, durationMinutes int, timePreference string, startHour, endHour int) ([]models.Slot, *PartialGap, error) {
	return e.findSlots(ctx, durationMinutes, timePreference, e.dayTime(date, startHour), e.dayTime(date, endHour))
}

func (e *Engine) findSlots(ctx context.Context, durationMinutes int, timePreference string, windowStart, windowEnd time.Time) ([]models.Slot, *PartialGap, error) {
	logger := utils.GetLogger()

	events, err := e.Provider.ListEvents(ctx, e.CalendarID, windowStart, windowEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list events: %w", err)
	}

	gaps := FindGaps(events, windowStart, windowEnd, durationMinutes)
	slots := GenerateSlots(gaps, durationMinutes)

	var partial *PartialGap
	if hour := SpecificHour(timePreference); hour >= 0 {
		partial = PartialGapAtHour(gaps, hour, durationMinutes)
		slots = AlignToRequestedHour(slots, gaps, hour, durationMinutes)
	}

	logger.Info("Availability search complete",
		zap.Time("windowStart", windowStart),
		zap.Time("windowEnd", windowEnd),
		zap.Int("events", len(events)),
		zap.Int("slots", len(slots)))

	return slots, partial, nil
}

func (e *Engine) dayTime(date time.Time, hour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, e.Loc)
}
