package availability

import (
	"sort"
	"time"

	"meetwise/models"
)

// PartialGap describes a free interval that covers the requested time but is
// too short for the requested duration, so the flow can offer a compromise.
type PartialGap struct {
	Gap                      models.Gap `json:"gap"`
	RequestedDurationMinutes int        `json:"requestedDurationMinutes"`
	ShortageMinutes          int        `json:"shortageMinutes"`
}

// AlignToRequestedHour reorders slots around a specifically requested hour:
// exact-hour slots first, then the rest by minute distance. When no slot
// starts at the hour, a synthetic one is built if the requested time fits
// entirely inside a fitting gap.
func AlignToRequestedHour(slots []models.Slot, gaps []models.Gap, specificHour, durationMinutes int) []models.Slot {
	if len(slots) == 0 {
		return slots
	}
	duration := time.Duration(durationMinutes) * time.Minute

	var exact, others []models.Slot
	for _, s := range slots {
		if s.Start.Hour() == specificHour {
			exact = append(exact, s)
		} else {
			others = append(others, s)
		}
	}

	if len(exact) == 0 {
		for _, gap := range gaps {
			if !gap.FitsRequirement {
				continue
			}
			requested := atHour(gap.Start, specificHour)
			if !requested.Before(gap.Start) && !requested.Add(duration).After(gap.End) {
				exact = append(exact, models.Slot{
					Start:       requested,
					End:         requested.Add(duration),
					Priority:    0,
					IsSynthetic: true,
				})
				break
			}
		}
	}

	sort.SliceStable(others, func(i, j int) bool {
		return minuteDistance(others[i], specificHour) < minuteDistance(others[j], specificHour)
	})

	return append(exact, others...)
}

// PartialGapAtHour returns the first undersized gap covering the requested
// hour, or one starting exactly on it.
func PartialGapAtHour(gaps []models.Gap, specificHour, durationMinutes int) *PartialGap {
	for _, gap := range gaps {
		if gap.FitsRequirement {
			continue
		}
		requested := atHour(gap.Start, specificHour)
		covers := !requested.Before(gap.Start) && requested.Before(gap.End)
		startsOnHour := gap.Start.Hour() == specificHour && gap.Start.Minute() == 0
		if covers || startsOnHour {
			return &PartialGap{
				Gap:                      gap,
				RequestedDurationMinutes: durationMinutes,
				ShortageMinutes:          durationMinutes - gap.AvailableMinutes,
			}
		}
	}
	return nil
}

// minuteDistance scores a slot's closeness to the requested hour: each hour
// away costs 60, minutes only count within the same hour.
func minuteDistance(s models.Slot, specificHour int) int {
	hourDiff := s.Start.Hour() - specificHour
	if hourDiff < 0 {
		hourDiff = -hourDiff
	}
	if hourDiff == 0 {
		return s.Start.Minute()
	}
	return hourDiff * 60
}

func atHour(ref time.Time, hour int) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, 0, 0, 0, ref.Location())
}
