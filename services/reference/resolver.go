package reference

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"meetwise/models"
	"meetwise/services/calendar"
	"meetwise/utils"

	"go.uber.org/zap"
)

// Relations between the requested meeting and the referenced event.
const (
	RelationBefore = "before"
	RelationAfter  = "after"
)

// Travel buffers applied to same-day "before" queries.
const (
	FlightBufferMinutes  = 180
	MeetingBufferMinutes = 30
)

const searchWindowDays = 30

var (
	timeRefRe    = regexp.MustCompile(`(?i)\b(before|after)\s+(my|the)\s+\d`)
	quotedRefRe  = regexp.MustCompile(`(?i)(before|after)\s+(the|my)?\s*['"]`)
	dayOffsetRe  = regexp.MustCompile(`(?i)(a\s+day|days?|the\s+day)\s+(before|after)\s+(the|my)`)
	namedEventRe = regexp.MustCompile(`(before|after)\s+(the|my)\s+[A-Z][a-z]+\s+(Kick-?off|Meeting|Call|Conference|Session)`)

	nameQuotedArticleRe = regexp.MustCompile(`(?i)(?:before|after)\s+(?:the|my)\s+['"]([^'"]+)`)
	nameQuotedRe        = regexp.MustCompile(`(?i)(?:before|after)\s+['"]([^'"]+)`)
	nameCapitalizedRe   = regexp.MustCompile(`(?i)(?:before|after)\s+(?:the|my)\s+([A-Z][A-Za-z\s-]+(?:Kick-?off|Meeting|Call|Conference|Session))`)

	offsetNDaysRe   = regexp.MustCompile(`(?i)(\d+)\s+days?\s+(after|before)`)
	offsetADayRe    = regexp.MustCompile(`(?i)a\s+day\s+(after|before)`)
	offsetTheDayRe  = regexp.MustCompile(`(?i)the\s+day\s+(after|before)`)
	offsetNextDayRe = regexp.MustCompile(`(?i)the\s+next\s+day|tomorrow`)
	sameDayRe       = regexp.MustCompile(`(?i)(?:sometime\s+)?(before|after)\s+(?:my|the)\s+`)

	recurringLeadRe  = regexp.MustCompile(`(?:usual|regular|our|my)\s+([\w-]+(?:\s+[\w-]+)?)`)
	recurringTrailRe = regexp.MustCompile(`([\w-]+(?:\s+[\w-]+)?)\s+(?:like usual|as usual)`)
	recurringVerbRe  = regexp.MustCompile(`schedule (?:a|the) ([\w-]+(?:\s+[\w-]+)?)`)

	travelKeywords = []string{"flight", "plane", "airport", "travel", "departure"}

	recurringKeywords = map[string]bool{
		"sync-up": true, "sync up": true, "syncup": true, "synch-up": true,
		"standup": true, "stand-up": true,
		"1-on-1": true, "one-on-one": true,
		"check-in": true, "checkin": true,
		"review": true, "weekly": true, "daily": true,
		"team meeting": true, "status update": true,
	}
)

// Detect reports whether a message schedules relative to another calendar
// event, e.g. "an hour before my 5 PM meeting" or "a day after the 'Kick-off'".
func Detect(message string) bool {
	lower := strings.ToLower(message)
	return timeRefRe.MatchString(lower) ||
		quotedRefRe.MatchString(lower) ||
		dayOffsetRe.MatchString(lower) ||
		namedEventRe.MatchString(message)
}

// DetectRecurring returns the meeting keyword when the user refers to a
// recurring meeting type ("our usual sync-up"), so past bookings can supply
// the duration.
func DetectRecurring(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, re := range []*regexp.Regexp{recurringLeadRe, recurringTrailRe, recurringVerbRe} {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		keyword := strings.TrimSpace(m[1])
		if recurringKeywords[keyword] {
			return keyword, true
		}
		// The capture is greedy; retry with the first word alone so
		// "standup on Monday" still yields "standup".
		if first, _, found := strings.Cut(keyword, " "); found && recurringKeywords[first] {
			return first, true
		}
	}
	return "", false
}

// ExtractEventName pulls the referenced event's name out of the message.
// Quoted names win, even without a closing quote; otherwise a capitalized
// name ending in a meeting word is accepted.
func ExtractEventName(message string) string {
	for _, re := range []*regexp.Regexp{nameQuotedArticleRe, nameQuotedRe, nameCapitalizedRe} {
		if m := re.FindStringSubmatch(message); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// DayOffset resolves the day shift between the referenced event and the
// requested meeting: explicit "N days after/before" style phrases first, then
// bare before/after meaning the same day, defaulting to the next day.
func DayOffset(message string) int {
	if m := offsetNDaysRe.FindStringSubmatch(message); m != nil {
		n, _ := strconv.Atoi(m[1])
		if strings.EqualFold(m[2], "after") {
			return n
		}
		return -n
	}
	for _, re := range []*regexp.Regexp{offsetADayRe, offsetTheDayRe} {
		if m := re.FindStringSubmatch(message); m != nil {
			if strings.EqualFold(m[1], "after") {
				return 1
			}
			return -1
		}
	}
	if offsetNextDayRe.MatchString(message) {
		return 1
	}
	if sameDayRe.MatchString(message) {
		return 0
	}
	return 1
}

// Relation decides before/after: same-day queries trust the words in the
// message, day offsets trust the sign.
func Relation(message string, dayOffset int) string {
	if dayOffset == 0 {
		lower := strings.ToLower(message)
		if strings.Contains(lower, RelationAfter) && !strings.Contains(lower, RelationBefore) {
			return RelationAfter
		}
		return RelationBefore
	}
	if dayOffset > 0 {
		return RelationAfter
	}
	return RelationBefore
}

// TravelBuffer returns the minutes to keep clear next to the referenced
// event: three hours for flights and travel, half an hour otherwise.
func TravelBuffer(summary string) int {
	lower := strings.ToLower(summary)
	for _, kw := range travelKeywords {
		if strings.Contains(lower, kw) {
			return FlightBufferMinutes
		}
	}
	return MeetingBufferMinutes
}

// FilterSlots keeps only slots compatible with the relation: "before" slots
// must end by refStart minus the buffer, "after" slots must start at or past
// refEnd plus the buffer.
func FilterSlots(slots []models.Slot, relation string, refStart, refEnd time.Time, bufferMinutes int) []models.Slot {
	buffer := time.Duration(bufferMinutes) * time.Minute

	var out []models.Slot
	switch relation {
	case RelationBefore:
		cutoff := refStart.Add(-buffer)
		for _, s := range slots {
			if !s.End.After(cutoff) {
				out = append(out, s)
			}
		}
	case RelationAfter:
		cutoff := refEnd.Add(buffer)
		for _, s := range slots {
			if !s.Start.Before(cutoff) {
				out = append(out, s)
			}
		}
	default:
		out = slots
	}
	return out
}

// Resolver looks up referenced events on the calendar.
type Resolver struct {
	Provider   calendar.Provider
	CalendarID string
	Now        func() time.Time
}

// NewResolver builds a resolver searching the given calendar.
func NewResolver(provider calendar.Provider, calendarID string, loc *time.Location) *Resolver {
	return &Resolver{
		Provider:   provider,
		CalendarID: calendarID,
		Now:        func() time.Time { return time.Now().In(loc) },
	}
}

// Resolve finds the best upcoming event matching the name within the next 30
// days. Exact summary matches beat substring matches in either direction.
// A nil event with a nil error means nothing matched.
func (r *Resolver) Resolve(ctx context.Context, eventName string) (*models.CalendarEvent, error) {
	logger := utils.GetLogger()

	now := r.Now()
	events, err := r.Provider.ListEvents(ctx, r.CalendarID, now, now.AddDate(0, 0, searchWindowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to search for event %q: %w", eventName, err)
	}

	type match struct {
		event models.CalendarEvent
		score int
	}
	nameLower := strings.ToLower(eventName)

	var matches []match
	for _, ev := range events {
		summaryLower := strings.ToLower(ev.Summary)
		var score int
		switch {
		case summaryLower == nameLower:
			score = 100
		case strings.Contains(summaryLower, nameLower):
			score = 80
		case strings.Contains(nameLower, summaryLower):
			score = 70
		default:
			continue
		}
		matches = append(matches, match{event: ev, score: score})
	}

	if len(matches) == 0 {
		logger.Warn("Referenced event not found", zap.String("eventName", eventName))
		return nil, nil
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	best := matches[0]
	logger.Info("Resolved referenced event",
		zap.String("eventName", eventName),
		zap.String("summary", best.event.Summary),
		zap.Int("score", best.score))
	return &best.event, nil
}
