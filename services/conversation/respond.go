package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meetwise/config"
	"meetwise/models"
	"meetwise/services/reference"
	"meetwise/utils"

	"go.uber.org/zap"
)

// suggestTimes phrases the found slots as a question the user can answer with
// a time or a plain yes.
func (m *Machine) suggestTimes(state *models.SessionState) {
	slots := state.AvailableSlots
	if len(slots) == 0 {
		m.clarify(state)
		return
	}

	switch {
	case state.ResolvedReference != nil && state.IsReferenceQuery:
		m.suggestAroundReference(state, slots)
	case state.PartialGap != nil && !state.PartialGap.FitsRequirement:
		m.suggestPartialGap(state, slots)
	case slots[0].Date != "":
		m.suggestAcrossDays(state, slots)
	default:
		date := slots[0].Start
		m.reply(state, fmt.Sprintf("I have %s available on %s. Which works best for you?",
			joinNaturally(slotTimes(slots, 3), "or"), formatDate(date)))
	}

	state.NextAction = "wait_for_selection"
}

func (m *Machine) suggestAroundReference(state *models.SessionState, slots []models.Slot) {
	ref := state.ResolvedReference

	if len(slots) == 1 {
		s := slots[0]
		m.reply(state, fmt.Sprintf("You have a %s %s on %s. I can schedule %s-%s %s it. Should I book it?",
			formatClock(ref.Start), ref.Summary, formatDate(ref.Start),
			formatClock(s.Start), formatClock(s.End), state.ReferenceRelation))
		return
	}

	times := joinNaturally(slotTimes(slots, 3), "or")

	if state.ReferenceDayOffset != 0 {
		m.reply(state, fmt.Sprintf("Your '%s' is on %s. I can do %s at %s. Which works best for you?",
			ref.Summary, ordinalDate(ref.Start), ordinalDate(slots[0].Start), times))
		return
	}

	if state.ReferenceRelation == reference.RelationBefore {
		if buffer := reference.TravelBuffer(ref.Summary); buffer == reference.FlightBufferMinutes {
			cutoff := ref.Start.Add(-time.Duration(buffer) * time.Minute)
			m.reply(state, fmt.Sprintf("Your %s is at %s. Assuming a %d-hour travel and check-in buffer, I can schedule before %s. I have %s. Which works best?",
				ref.Summary, formatClock(ref.Start), buffer/60, formatClock(cutoff), times))
			return
		}
		m.reply(state, fmt.Sprintf("Your '%s' is at %s. I have %s available before then. Which works best?",
			ref.Summary, formatClock(ref.Start), times))
		return
	}

	m.reply(state, fmt.Sprintf("Your '%s' ends at %s. I have %s available after it. Which works best?",
		ref.Summary, formatClock(ref.End), times))
}

func (m *Machine) suggestPartialGap(state *models.SessionState, slots []models.Slot) {
	gap := state.PartialGap
	requested := durationOrDefault(state)

	m.reply(state, fmt.Sprintf("I only have a %d-minute slot at %s. Would you like to (1) schedule %d minutes at %s, or (2) find a different %d-minute slot? I have %s available.",
		gap.AvailableMinutes, formatClock(gap.Start),
		gap.AvailableMinutes, formatClock(gap.Start),
		requested, joinNaturally(slotTimes(slots, 3), "or")))
}

// suggestAcrossDays offers the first slot of up to three different days.
func (m *Machine) suggestAcrossDays(state *models.SessionState, slots []models.Slot) {
	var options []string
	seen := map[string]bool{}
	for _, s := range slots {
		if len(options) >= 3 {
			break
		}
		if seen[s.Date] {
			continue
		}
		seen[s.Date] = true
		options = append(options, fmt.Sprintf("%s at %s", s.Start.Format("Monday"), formatClock(s.Start)))
	}
	m.reply(state, fmt.Sprintf("I have %s. Which works best for you?", joinNaturally(options, "or")))
}

// resolveConflict searches wider when the requested window has nothing: first
// a rescue window around the requested time, then the rest of the day, then
// the next day.
func (m *Machine) resolveConflict(ctx context.Context, state *models.SessionState) error {
	logger := utils.GetLogger()

	duration := durationOrDefault(state)
	date, ok := m.preferredDate(state)
	if !ok {
		date = m.today().AddDate(0, 0, 1)
	}

	startHour, endHour := rescueWindow(state)
	cons := state.Constraints
	cons.EarliestHour = &startHour
	cons.LatestHour = &endHour

	slots, _, err := m.engine.FindSlotsWithConstraints(ctx, date, duration, "", cons)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		// The rescue window came up empty too; take the whole day.
		slots, _, err = m.engine.FindSlotsWithConstraints(ctx, date, duration, "", state.Constraints)
		if err != nil {
			return err
		}
	}

	if ref := state.ResolvedReference; ref != nil && state.IsReferenceQuery && state.ReferenceDayOffset == 0 {
		buffer := reference.TravelBuffer(ref.Summary)
		slots = reference.FilterSlots(slots, state.ReferenceRelation, ref.Start, ref.End, buffer)
	}

	if state.SpecificHour != nil {
		minute := 0
		if state.SpecificMinute != nil {
			minute = *state.SpecificMinute
		}
		slots = dropSlotAt(slots, *state.SpecificHour, minute)
	}

	alternatives := slots
	if len(alternatives) > 3 {
		alternatives = alternatives[:3]
	}

	if len(alternatives) == 0 {
		nextDay := date.AddDate(0, 0, 1)
		nextSlots, _, err := m.engine.FindSlotsWithConstraints(ctx, nextDay, duration, state.PreferredTime, state.Constraints)
		if err != nil {
			return err
		}
		if len(nextSlots) > 2 {
			nextSlots = nextSlots[:2]
		}
		alternatives = nextSlots
	}

	if len(alternatives) == 0 {
		logger.Info("No alternatives found", zap.String("date", state.PreferredDate))
		m.reply(state, "I couldn't find any available slots in the near future. Would you like me to check a wider time range, or do you have a different timeframe in mind?")
		state.AvailableSlots = nil
		return nil
	}

	if state.OriginalRequestedDate == "" {
		state.OriginalRequestedDate = state.PreferredDate
	}
	state.PreferredDate = alternatives[0].Start.Format("2006-01-02")
	state.AvailableSlots = alternatives

	var options []string
	for _, s := range alternatives {
		options = append(options, fmt.Sprintf("%s on %s", formatClock(s.Start), formatDate(s.Start)))
	}
	m.reply(state, fmt.Sprintf("That time isn't open. The closest I have is %s. Would any of those work?",
		joinNaturally(options, "or")))
	return nil
}

// rescueWindow picks the hours to retry in when the first search fails. A
// specific hour widens around itself; a day-part preference uses its natural
// bounds; no preference falls back to business hours.
func rescueWindow(state *models.SessionState) (int, int) {
	if state.SpecificHour != nil {
		switch h := *state.SpecificHour; {
		case h >= 5 && h < 8:
			return 5, 11
		case h >= 8 && h < 12:
			return 7, 14
		case h >= 12 && h < 17:
			return 11, 19
		case h >= 17 && h < 21:
			return 15, 22
		default:
			return 18, 23
		}
	}
	switch state.PreferredTime {
	case "morning":
		return 6, 12
	case "afternoon":
		return 12, 18
	case "evening":
		return 17, 21
	case "night", "late night":
		return 20, 23
	}
	return config.WorkDayHours()
}

func dropSlotAt(slots []models.Slot, hour, minute int) []models.Slot {
	var out []models.Slot
	for _, s := range slots {
		if s.Start.Hour() == hour && s.Start.Minute() == minute {
			continue
		}
		out = append(out, s)
	}
	return out
}

// clarify asks for the single most important missing parameter, resolving
// fuzzy week phrases first.
func (m *Machine) clarify(state *models.SessionState) {
	state.ClarificationAttempts++
	state.NextAction = nodeExtract

	rangeSearch := state.MultiDaySearch && hasDateRange(state)
	dateMissing := state.PreferredDate == "" && !state.IsReferenceQuery && !rangeSearch

	if dateMissing {
		recent := strings.ToLower(strings.Join(lastUserMessages(state, 3), " "))
		if question, weekContext, ok := ambiguousDateQuestion(recent, m.today()); ok {
			state.WeekContext = weekContext
			m.reply(state, question)
			return
		}
	}

	switch {
	case state.MeetingDurationMinutes == nil:
		m.reply(state, "How long should the meeting be?")
	case dateMissing:
		m.reply(state, "What day would you like to schedule this?")
	case state.PreferredTime == "" && state.Constraints.EarliestHour == nil && state.Constraints.LatestHour == nil && !rangeSearch:
		m.reply(state, "What time works best for you? Morning, afternoon, or do you have a specific time in mind?")
	default:
		m.reply(state, "Could you tell me a bit more about when you'd like to meet?")
	}
}

// ambiguousDateQuestion maps fuzzy phrases to a concrete either/or question.
func ambiguousDateQuestion(recent string, today time.Time) (string, string, bool) {
	switch {
	case strings.Contains(recent, "late next week"):
		return "By late next week, do you mean Thursday or Friday?", "next_week", true
	case strings.Contains(recent, "early next week"):
		return "By early next week, do you mean Monday or Tuesday?", "next_week", true
	case strings.Contains(recent, "mid week") || strings.Contains(recent, "midweek"):
		return "By midweek, do you mean Tuesday, Wednesday, or Thursday?", "", true
	case strings.Contains(recent, "sometime next week"):
		return "Which day next week works best for you?", "next_week", true
	case strings.Contains(recent, "end of the month"):
		return fmt.Sprintf("By the end of the month, do you mean the last few days of %s?", today.Format("January")), "", true
	case strings.Contains(recent, "early next month"):
		next := today.AddDate(0, 1, 0)
		return fmt.Sprintf("By early next month, do you mean the first week of %s?", next.Format("January")), "", true
	}
	return "", "", false
}
