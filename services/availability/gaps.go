package availability

import (
	"time"

	"meetwise/models"
)

// FindGaps walks the day's events chronologically and returns every free
// interval inside [windowStart, windowEnd). Intervals shorter than the
// requested duration are kept with FitsRequirement=false.
func FindGaps(events []models.CalendarEvent, windowStart, windowEnd time.Time, durationMinutes int) []models.Gap {
	duration := time.Duration(durationMinutes) * time.Minute
	current := windowStart

	var gaps []models.Gap
	appendGap := func(start, end time.Time) {
		minutes := int(end.Sub(start).Minutes())
		if minutes <= 0 {
			return
		}
		gaps = append(gaps, models.Gap{
			Start:            start,
			End:              end,
			FitsRequirement:  end.Sub(start) >= duration,
			AvailableMinutes: minutes,
		})
	}

	for _, ev := range events {
		appendGap(current, ev.Start)
		if ev.End.After(current) {
			current = ev.End
		}
	}
	appendGap(current, windowEnd)

	return gaps
}

// slot generation limits.
const (
	maxGeneratedSlots   = 20
	maxReturnedSlots    = 10
	maxIntermediates    = 8
	minSlotSpacing      = 15 * time.Minute
	edgeSlotSeparation  = 30 * time.Minute
	intermediateStepMin = 30
)

// GenerateSlots builds candidate slots from fitting gaps. Per gap: the
// gap-start slot (priority 1), the gap-end slot (priority 2, only when far
// enough from the start slot), then 30-minute-boundary intermediates
// (priority 3) for gaps more than twice the duration.
func GenerateSlots(gaps []models.Gap, durationMinutes int) []models.Slot {
	duration := time.Duration(durationMinutes) * time.Minute

	var fitting []models.Slot
	for _, gap := range gaps {
		if !gap.FitsRequirement {
			continue
		}

		startAligned := false
		if !gap.Start.Add(duration).After(gap.End) {
			fitting = append(fitting, models.Slot{
				Start:    gap.Start,
				End:      gap.Start.Add(duration),
				Priority: 1,
			})
			startAligned = true
		}

		endSlotStart := gap.End.Add(-duration)
		if !endSlotStart.Before(gap.Start) {
			if !startAligned || endSlotStart.Sub(gap.Start) >= edgeSlotSeparation {
				fitting = append(fitting, models.Slot{
					Start:    endSlotStart,
					End:      gap.End,
					Priority: 2,
				})
			}
		}

		if gap.AvailableMinutes > durationMinutes*2 {
			fitting = appendIntermediates(fitting, gap, duration)
		}

		if len(fitting) >= maxGeneratedSlots {
			break
		}
	}

	if len(fitting) > maxReturnedSlots {
		fitting = fitting[:maxReturnedSlots]
	}
	return fitting
}

// appendIntermediates adds slots on 30-minute boundaries inside a large gap,
// keeping every new slot at least 15 minutes away from all existing ones.
func appendIntermediates(fitting []models.Slot, gap models.Gap, duration time.Duration) []models.Slot {
	hour := gap.Start.Hour()
	minute := (gap.Start.Minute() / intermediateStepMin) * intermediateStepMin
	if minute == 0 {
		minute = 30
	} else {
		hour++
		minute = 0
	}

	count := 0
	for count < maxIntermediates && hour <= 23 {
		candidate := time.Date(gap.Start.Year(), gap.Start.Month(), gap.Start.Day(),
			hour, minute, 0, 0, gap.Start.Location())

		if !candidate.Add(duration).After(gap.End) {
			tooClose := false
			for _, existing := range fitting {
				d := candidate.Sub(existing.Start)
				if d < 0 {
					d = -d
				}
				if d < minSlotSpacing {
					tooClose = true
					break
				}
			}
			if !tooClose {
				fitting = append(fitting, models.Slot{
					Start:    candidate,
					End:      candidate.Add(duration),
					Priority: 3,
				})
				count++
			}
		}

		minute += intermediateStepMin
		if minute >= 60 {
			minute = 0
			hour++
			if hour >= gap.End.Hour() {
				break
			}
		}
	}
	return fitting
}
