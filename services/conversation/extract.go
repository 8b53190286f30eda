package conversation

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"meetwise/models"
	"meetwise/services/intelligence"
	"meetwise/services/reference"
	"meetwise/services/timeparse"
	"meetwise/services/validation"
	"meetwise/utils"

	"go.uber.org/zap"
)

// extract interprets the latest user message: it classifies intent, applies
// parameter changes, and decides whether to search the calendar, book, or ask
// a follow-up question.
func (m *Machine) extract(ctx context.Context, state *models.SessionState) (string, error) {
	logger := utils.GetLogger()
	parser := m.parser()
	message := state.LatestUserMessage()
	lower := strings.ToLower(message)

	// Anything said after a completed booking starts a fresh request.
	if state.ConversationPhase == models.PhasePostConfirmation {
		state.ClearWorkingFields()
		state.Cancelled = false
		state.ConversationPhase = models.PhaseActiveBooking
	}

	// When we asked for a name, the whole message is the name.
	if state.AwaitingTitleInput {
		title := strings.Trim(strings.TrimSpace(message), `"'`)
		if title == "" {
			title = "Meeting"
		}
		state.Title = capitalize(title)
		state.AwaitingTitleInput = false
		state.Confirmed = true
		return nodeCreateEvent, nil
	}

	// Recurring meetings ("our weekly sync-up") inherit their usual length
	// from past bookings.
	if state.MeetingDurationMinutes == nil {
		if keyword, ok := reference.DetectRecurring(lower); ok {
			if minutes := m.learnedDuration(ctx, state.UserID, keyword); minutes > 0 {
				state.MeetingDurationMinutes = &minutes
				if state.Title == "" {
					state.Title = capitalize(keyword)
				}
				logger.Info("Learned recurring meeting duration",
					zap.String("keyword", keyword),
					zap.Int("minutes", minutes))
			}
		}
	}

	analysis, err := m.classifier.Analyze(ctx, m.snapshot(state, message))
	if err != nil {
		return "", fmt.Errorf("failed to analyze message: %w", err)
	}
	logger.Debug("Intent classified",
		zap.String("intent", analysis.Intent),
		zap.String("reasoning", analysis.Reasoning))

	switch analysis.Intent {
	case intelligence.IntentNewRequest:
		state.ClearWorkingFields()
		state.Cancelled = false

	case intelligence.IntentCancel:
		state.CancelledParams = &models.CancelledParams{
			DurationMinutes: state.MeetingDurationMinutes,
			Date:            state.PreferredDate,
			Time:            state.PreferredTime,
			Title:           state.Title,
			Description:     state.Description,
		}
		state.ClearWorkingFields()
		state.Cancelled = true
		m.reply(state, "No problem. Let me know if you'd like to schedule something else.")
		return "", nil

	case intelligence.IntentReject:
		state.AvailableSlots = nil
		state.PartialGap = nil
		state.Confirmed = false

	case intelligence.IntentConfirm:
		// The user might be changing the length while agreeing ("yes, but
		// make it 30 minutes").
		if newDur, ok := parser.ParseDuration(lower); ok &&
			state.MeetingDurationMinutes != nil && newDur != *state.MeetingDurationMinutes {
			analysis.Intent = intelligence.IntentModify
			analysis.Modifications.Duration = intelligence.FieldChange{
				Action:        "change",
				NewValue:      strconv.Itoa(newDur),
				MentionedText: message,
			}
			break
		}
		if len(state.AvailableSlots) == 0 {
			break
		}
		return m.confirmSelection(state, parser, lower)
	}

	// A long-duration warning blocks until the user affirms the length is
	// intentional. The classifier never reads a bare "yes" as confirm while no
	// slots are pending, so check the message directly.
	if state.PendingDurationConfirm {
		state.PendingDurationConfirm = false
		if analysis.Intent == intelligence.IntentConfirm || intelligence.IsAffirmative(message) {
			state.DurationAcknowledged = true
		}
	}

	// Restore after a cancellation ("actually, let's do it").
	if state.CancelledParams != nil {
		restored := false
		mods := analysis.Modifications
		if mods.Duration.Action == "restore" && state.CancelledParams.DurationMinutes != nil {
			d := *state.CancelledParams.DurationMinutes
			state.MeetingDurationMinutes = &d
			restored = true
		}
		if mods.Date.Action == "restore" && state.CancelledParams.Date != "" {
			state.PreferredDate = state.CancelledParams.Date
			restored = true
		}
		if mods.Time.Action == "restore" && state.CancelledParams.Time != "" {
			m.setTimePreference(state, state.CancelledParams.Time)
			restored = true
		}
		if mods.Title.Action == "restore" && state.CancelledParams.Title != "" {
			state.Title = state.CancelledParams.Title
			restored = true
		}
		if restored {
			state.Cancelled = false
		}
	}

	hadSuggestions := len(state.AvailableSlots) > 0
	durationChanged := m.applyDurationChange(state, parser, analysis.Modifications.Duration, message)
	dateChanged := m.applyDateChange(state, parser, analysis.Modifications.Date)
	timeChanged := m.applyTimeChange(state, parser, analysis.Modifications.Time, message)
	if durationChanged {
		// A new length has to be re-checked.
		state.DurationAcknowledged = false
	}
	if mod := analysis.Modifications.Title; mod.Action == "change" && mod.NewValue != "" {
		state.Title = mod.NewValue
	}

	// A new time against pending suggestions may already be covered by one of
	// them; check before throwing the search away.
	if timeChanged && !durationChanged && hadSuggestions && state.SpecificHour != nil {
		hour := *state.SpecificHour
		minute := 0
		if state.SpecificMinute != nil {
			minute = *state.SpecificMinute
		}
		exact := slotsAtTime(state.AvailableSlots, hour, minute)
		if len(exact) > 0 {
			state.AvailableSlots = exact
			timeChanged = false
		} else if nearby := slotsNear(state.AvailableSlots, hour, minute, 30, 3); len(nearby) > 0 {
			state.AvailableSlots = nearby
			state.Confirmed = false
			m.reply(state, fmt.Sprintf("That exact time isn't free, but I have %s close by. Would any of those work?",
				joinNaturally(slotTimes(nearby, 3), "or")))
			return "", nil
		}
	}

	// Sanity-check what we parsed before acting on it.
	var dateObj *time.Time
	if d, ok := m.preferredDate(state); ok {
		dateObj = &d
	}
	dateString := analysis.Modifications.Date.MentionedText
	if dateString == "" {
		dateString = message
	}
	durationForCheck := 0
	if state.MeetingDurationMinutes != nil {
		durationForCheck = *state.MeetingDurationMinutes
	}
	issue := m.validator().ValidateAll(dateObj, dateString, durationForCheck, state.PreferredTime, message)
	if issue != nil && issue.Type == validation.ErrLongDuration && state.DurationAcknowledged {
		issue = nil
	}
	if issue != nil {
		if issue.Type == validation.ErrLongDuration {
			state.PendingDurationConfirm = true
		}
		logger.Info("Extracted parameters need clarification", zap.String("issue", issue.Type))
		m.reply(state, issue.Question)
		state.NextAction = nodeClarify
		return "", nil
	}

	if analysis.BufferAfterLastMeeting != nil {
		state.Constraints.BufferAfterLastMeeting = *analysis.BufferAfterLastMeeting
	}
	if analysis.BufferBeforeNextMeeting != nil {
		state.Constraints.BufferBeforeNextMeeting = *analysis.BufferBeforeNextMeeting
	}
	m.applyConstraints(state, analysis.Constraints)

	// Catch "next week" style ranges from earlier turns the classifier
	// could not see.
	if state.MultiDaySearch && !hasDateRange(state) {
		for _, msg := range lastUserMessages(state, 3) {
			l := strings.ToLower(msg)
			if strings.Contains(l, "next week") {
				m.applyDateRange(state, "next week")
				break
			}
			if strings.Contains(l, "this week") {
				m.applyDateRange(state, "this week")
				break
			}
		}
	}

	if reference.Detect(message) {
		state.IsReferenceQuery = true
		state.ReferenceEventName = message
	}

	if (durationChanged || dateChanged || timeChanged) && hadSuggestions {
		state.AvailableSlots = nil
		state.PartialGap = nil
		state.Confirmed = false
	}
	if durationChanged || dateChanged || timeChanged {
		if state.MeetingDurationMinutes != nil &&
			(state.PreferredDate != "" || state.IsReferenceQuery || hasDateRange(state)) {
			return nodeQueryCalendar, nil
		}
		return nodeClarify, nil
	}

	if missing := m.missingInfo(state); len(missing) > 0 {
		logger.Debug("Missing booking parameters", zap.Strings("missing", missing))
		return nodeClarify, nil
	}
	return nodeQueryCalendar, nil
}

// confirmSelection handles a "yes" against pending suggestions: pin down the
// slot, make sure the meeting has a name, then book.
func (m *Machine) confirmSelection(state *models.SessionState, parser *timeparse.Parser, lower string) (string, error) {
	if clock, ok := parser.ParseSpecificTime(lower, state.PreferredTime); ok {
		hour, minute, _ := timeparse.SplitClock(clock)
		exact := slotsAtTime(state.AvailableSlots, hour, minute)
		switch {
		case len(exact) > 0:
			state.AvailableSlots = exact
			m.setTimePreference(state, clock)
		case len(state.AvailableSlots) > 0:
			nearby := slotsNear(state.AvailableSlots, hour, minute, 15, 3)
			if len(nearby) > 0 {
				state.AvailableSlots = nearby
				state.Confirmed = false
				m.reply(state, fmt.Sprintf("That time isn't available, but I have %s. Would any of those work?",
					joinNaturally(slotTimes(nearby, 3), "or")))
				return "", nil
			}
			state.Confirmed = false
			m.reply(state, fmt.Sprintf("That time isn't available. I have %s. Which would you prefer?",
				joinNaturally(slotTimes(state.AvailableSlots, 5), "or")))
			return "", nil
		}
	}

	if state.Title == "" || strings.EqualFold(state.Title, "meeting") {
		slot := state.AvailableSlots[0]
		m.reply(state, fmt.Sprintf("Great, I can book that for %s on %s. What would you like to call this meeting?",
			formatClock(slot.Start), formatDate(slot.Start)))
		state.AwaitingTitleInput = true
		return "", nil
	}

	state.Confirmed = true
	return nodeCreateEvent, nil
}

func (m *Machine) applyDurationChange(state *models.SessionState, parser *timeparse.Parser, mod intelligence.FieldChange, message string) bool {
	if mod.Action != "change" {
		return false
	}
	text := mod.MentionedText
	if text == "" {
		text = message
	}
	minutes, ok := parser.ParseDuration(text)
	if !ok {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, mod.NewValue)
		if digits == "" {
			return false
		}
		minutes, _ = strconv.Atoi(digits)
	}
	if minutes <= 0 || (state.MeetingDurationMinutes != nil && *state.MeetingDurationMinutes == minutes) {
		return false
	}
	state.MeetingDurationMinutes = &minutes
	return true
}

func (m *Machine) applyDateChange(state *models.SessionState, parser *timeparse.Parser, mod intelligence.FieldChange) bool {
	if mod.Action != "change" || mod.NewValue == "" || mod.NewValue == "AMBIGUOUS" {
		return false
	}
	// "at 3pm" is a time, not a date, no matter what the classifier thinks.
	mentioned := strings.ToLower(mod.MentionedText)
	if strings.Contains(mentioned, "pm") || strings.Contains(mentioned, "am") || strings.Contains(mentioned, "o'clock") {
		if _, ok := parser.ParseDate(mentioned); !ok {
			return false
		}
	}

	date, ok := parser.ParseDate(mod.NewValue)
	if !ok {
		return false
	}
	// An earlier "next week" answer pins bare weekdays into next week.
	if state.WeekContext == "next_week" {
		today := m.today()
		nextMonday := today.AddDate(0, 0, 7-(int(today.Weekday())+6)%7)
		if date.Before(nextMonday) {
			date = date.AddDate(0, 0, 7)
		}
	}
	formatted := date.Format("2006-01-02")
	if formatted == state.PreferredDate {
		return false
	}
	state.PreferredDate = formatted
	state.WeekContext = ""
	return true
}

func (m *Machine) applyTimeChange(state *models.SessionState, parser *timeparse.Parser, mod intelligence.FieldChange, message string) bool {
	if mod.Action != "change" {
		return false
	}
	text := mod.MentionedText
	if text == "" {
		text = mod.NewValue
	}
	if text == "" {
		text = message
	}
	pref, ok := parser.ParseTimePreference(text, state.PreferredTime)
	if !ok || pref == state.PreferredTime {
		return false
	}
	m.setTimePreference(state, pref)
	return true
}

func (m *Machine) setTimePreference(state *models.SessionState, pref string) {
	state.PreferredTime = pref
	if hour, minute, ok := timeparse.SplitClock(pref); ok {
		state.SpecificHour = &hour
		state.SpecificMinute = &minute
	} else {
		state.SpecificHour = nil
		state.SpecificMinute = nil
	}
}

func (m *Machine) applyConstraints(state *models.SessionState, cons intelligence.Constraints) {
	for _, day := range cons.NegativeDays {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]
		if !ok || state.Constraints.ExcludesDay(wd) {
			continue
		}
		state.Constraints.NegativeDays = append(state.Constraints.NegativeDays, wd)
	}
	if cons.EarliestTime != "" {
		if hour, _, ok := timeparse.SplitClock(cons.EarliestTime); ok {
			state.Constraints.EarliestHour = &hour
		}
	}
	if cons.LatestTime != "" {
		if hour, _, ok := timeparse.SplitClock(cons.LatestTime); ok {
			state.Constraints.LatestHour = &hour
		}
	}
	if cons.MultiDaySearch {
		state.MultiDaySearch = true
	}
	if cons.DateRange != "" {
		m.applyDateRange(state, cons.DateRange)
	}
}

// applyDateRange turns "next week" / "this week" into concrete search dates.
func (m *Machine) applyDateRange(state *models.SessionState, dateRange string) {
	today := m.today()
	// Monday-indexed weekday, Monday = 0.
	wd := (int(today.Weekday()) + 6) % 7

	var start, end time.Time
	switch strings.ToLower(strings.TrimSpace(dateRange)) {
	case "next week":
		daysUntilMonday := (7-wd)%7 + 7
		start = today.AddDate(0, 0, daysUntilMonday)
		end = start.AddDate(0, 0, 4)
	case "this week":
		start = today.AddDate(0, 0, 1)
		daysUntilFriday := (4 - wd + 7) % 7
		if daysUntilFriday == 0 {
			daysUntilFriday = 7
		}
		end = today.AddDate(0, 0, daysUntilFriday)
		if end.Before(start) {
			end = start
		}
	default:
		return
	}

	state.MultiDaySearch = true
	state.DateRangeStart = start.Format("2006-01-02")
	state.DateRangeEnd = end.Format("2006-01-02")
}

func (m *Machine) missingInfo(state *models.SessionState) []string {
	rangeSearch := state.MultiDaySearch && hasDateRange(state)

	var missing []string
	if state.MeetingDurationMinutes == nil {
		missing = append(missing, "duration")
	}
	if state.PreferredDate == "" && !state.IsReferenceQuery && !rangeSearch {
		missing = append(missing, "date")
	}
	hasTimeInfo := state.PreferredTime != "" ||
		state.Constraints.EarliestHour != nil || state.Constraints.LatestHour != nil
	if !hasTimeInfo && !rangeSearch && !state.IsReferenceQuery {
		missing = append(missing, "time")
	}
	return missing
}

// learnedDuration looks up how long this kind of meeting usually runs, first
// on the calendar itself, then in the booking history.
func (m *Machine) learnedDuration(ctx context.Context, userID, keyword string) int {
	logger := utils.GetLogger()

	now := m.now().In(m.loc)
	events, err := m.engine.Provider.ListEvents(ctx, m.engine.CalendarID, now.AddDate(0, 0, -60), now)
	if err != nil {
		logger.Warn("Failed to scan calendar for recurring pattern", zap.Error(err))
	} else {
		counts := map[int]int{}
		var matched int
		for _, ev := range events {
			if !strings.Contains(strings.ToLower(ev.Summary), keyword) {
				continue
			}
			matched++
			counts[int(ev.Duration().Minutes())]++
		}
		best, bestCount := 0, 0
		for minutes, count := range counts {
			if count > bestCount {
				best, bestCount = minutes, count
			}
		}
		if bestCount >= 2 || matched == 1 {
			if best > 0 {
				return best
			}
		}
	}

	if m.records == nil {
		return 0
	}
	minutes, err := m.records.MostFrequentDuration(ctx, userID, keyword)
	if err != nil {
		logger.Warn("Failed to look up booking history", zap.Error(err))
		return 0
	}
	return minutes
}

func lastUserMessages(state *models.SessionState, n int) []string {
	var out []string
	for i := len(state.Messages) - 1; i >= 0 && len(out) < n; i-- {
		if state.Messages[i].Role == "user" {
			out = append(out, state.Messages[i].Content)
		}
	}
	return out
}

func slotsAtTime(slots []models.Slot, hour, minute int) []models.Slot {
	var out []models.Slot
	for _, s := range slots {
		if s.Start.Hour() == hour && s.Start.Minute() == minute {
			out = append(out, s)
		}
	}
	return out
}

// slotsNear returns up to max slots within window minutes of the requested
// time, closest first.
func slotsNear(slots []models.Slot, hour, minute, window, max int) []models.Slot {
	requested := hour*60 + minute

	type scored struct {
		slot models.Slot
		diff int
	}
	var candidates []scored
	for _, s := range slots {
		diff := s.Start.Hour()*60 + s.Start.Minute() - requested
		if diff < 0 {
			diff = -diff
		}
		if diff <= window {
			candidates = append(candidates, scored{s, diff})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].diff < candidates[j].diff })

	var out []models.Slot
	for _, c := range candidates {
		if len(out) >= max {
			break
		}
		out = append(out, c.slot)
	}
	return out
}
