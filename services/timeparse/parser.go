package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"meetwise/config"
	"meetwise/utils"

	"go.uber.org/zap"
)

// Weekdays maps names and common abbreviations to Go weekdays.
var Weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// TimeOfDay maps preference words to [start,end) hour windows used when the
// user gives no specific clock time.
var TimeOfDay = map[string][2]int{
	"morning":   {8, 12},
	"afternoon": {12, 17},
	"evening":   {17, 21},
	"night":     {21, 23},
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// Parser extracts dates, times and durations from free-form text. Now is the
// reference instant; tests pin it.
type Parser struct {
	Loc *time.Location
	Now time.Time
}

// NewParser builds a parser for the given IANA timezone, anchored at the
// current time. An unknown zone falls back to UTC.
func NewParser(timezone string) *Parser {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		utils.GetLogger().Warn("Unknown timezone, falling back to UTC", zap.String("timezone", timezone))
		loc = time.UTC
	}
	return &Parser{Loc: loc, Now: time.Now().In(loc)}
}

// NewParserAt builds a parser anchored at a fixed instant.
func NewParserAt(now time.Time) *Parser {
	return &Parser{Loc: now.Location(), Now: now}
}

var (
	oclockRe    = regexp.MustCompile(`(\d+)\s*o['’]?\s*clock`)
	clockRe     = regexp.MustCompile(`(\d+):(\d+)`)
	rangeRe     = regexp.MustCompile(`(\d{1,2})\s*(?:to|-)\s*(\d{1,2}):?(\d{2})?`)
	hmMeridRe   = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)`)
	hMeridRe    = regexp.MustCompile(`(\d{1,2})\s*(am|pm)`)
	h24Re       = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	bareHourRe  = regexp.MustCompile(`(?:^|\s)(\d{1,2})(?:\s|$|,)`)
	weekdayRe   = regexp.MustCompile(`\b(monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun)\b`)
	monthDayRe  = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})\b`)
	dayMonthRe  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	relWeekPats = []string{"late next week", "end of next week", "this weekend", "next weekend", "early next week", "beginning of next week"}
)

// ParseDate resolves a date mention to midnight in the parser's timezone.
func (p *Parser) ParseDate(text string) (time.Time, bool) {
	t := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.Contains(t, "today"):
		return p.startOfDay(p.Now), true
	case strings.Contains(t, "tomorrow"):
		return p.startOfDay(p.Now.AddDate(0, 0, 1)), true
	case strings.Contains(t, "yesterday"):
		return p.startOfDay(p.Now.AddDate(0, 0, -1)), true
	}

	if strings.Contains(t, "last weekday of") || strings.Contains(t, "last working day of") {
		return p.lastWeekdayOfMonth(t), true
	}

	for _, pat := range relWeekPats {
		if strings.Contains(t, pat) {
			return p.relativeWeekDate(t), true
		}
	}

	if m := weekdayRe.FindStringSubmatch(t); m != nil {
		return p.nextWeekday(Weekdays[m[1]], t), true
	}

	return p.parseExplicitDate(t)
}

// parseExplicitDate handles month-name and ISO forms ("November 5",
// "5th of March", "2026-03-05").
func (p *Parser) parseExplicitDate(t string) (time.Time, bool) {
	if m := isoDateRe.FindStringSubmatch(t); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, p.Loc), true
	}

	var monthWord string
	var day int
	if m := monthDayRe.FindStringSubmatch(t); m != nil {
		monthWord = m[1]
		day, _ = strconv.Atoi(m[2])
	} else if m := dayMonthRe.FindStringSubmatch(t); m != nil {
		day, _ = strconv.Atoi(m[1])
		monthWord = m[2]
	} else {
		return time.Time{}, false
	}

	month := time.Month(0)
	for i, name := range monthNames {
		if name == monthWord {
			month = time.Month(i + 1)
			break
		}
	}
	if month == 0 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	// Assume this year; roll forward if the date already passed.
	candidate := time.Date(p.Now.Year(), month, day, 0, 0, 0, 0, p.Loc)
	if candidate.Before(p.startOfDay(p.Now)) {
		candidate = candidate.AddDate(1, 0, 0)
	}
	return candidate, true
}

// ParseTimePreference returns either a specific clock time ("15:00") or a
// time-of-day word ("morning"). contextTime is the previously chosen time, if
// any, used to disambiguate bare hours.
func (p *Parser) ParseTimePreference(text, contextTime string) (string, bool) {
	t := strings.ToLower(text)

	if specific, ok := p.ParseSpecificTime(t, contextTime); ok {
		return specific, true
	}

	for pref := range TimeOfDay {
		if strings.Contains(t, pref) {
			return pref, true
		}
	}
	return "", false
}

// ParseSpecificTime extracts a clock time and returns it as "HH:MM" in
// 24-hour form. It rejects impossible times ("26 o'clock", "14:75").
func (p *Parser) ParseSpecificTime(text, contextTime string) (string, bool) {
	t := strings.ToLower(text)

	if m := oclockRe.FindStringSubmatch(t); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour > 24 || hour == 0 {
			return "", false
		}
	}
	if m := clockRe.FindStringSubmatch(t); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour >= 24 || minute >= 60 {
			return "", false
		}
	}

	// Range form like "5 to 5:30": the user wants the start time.
	if m := rangeRe.FindStringSubmatch(t); m != nil {
		startHour, _ := strconv.Atoi(m[1])

		isPM := false
		switch {
		case strings.Contains(t, "pm") || strings.Contains(t, "afternoon") || strings.Contains(t, "evening"):
			isPM = true
		case strings.Contains(t, "am") || strings.Contains(t, "morning"):
			isPM = false
		case strings.Contains(contextTime, ":"):
			if ch, _, ok := SplitClock(contextTime); ok {
				isPM = ch >= 12
			}
		case startHour >= 5 && startHour <= 11:
			// In conversation, bare 5-11 usually means the afternoon/evening.
			isPM = true
		}
		if isPM && startHour < 12 {
			startHour += 12
		}
		if startHour < 24 {
			return fmt.Sprintf("%02d:00", startHour), true
		}
	}

	if m := hmMeridRe.FindStringSubmatch(t); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if m[3] == "pm" && hour != 12 {
			hour += 12
		} else if m[3] == "am" && hour == 12 {
			hour = 0
		}
		if hour < 24 {
			return fmt.Sprintf("%02d:%02d", hour, minute), true
		}
	}

	if m := hMeridRe.FindStringSubmatch(t); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if m[2] == "pm" && hour != 12 {
			hour += 12
		} else if m[2] == "am" && hour == 12 {
			hour = 0
		}
		if hour < 24 {
			return fmt.Sprintf("%02d:00", hour), true
		}
	}

	if m := h24Re.FindStringSubmatch(t); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}

	// Bare hour like "5" resolved via conversation context, avoiding date
	// mentions like "November 5".
	if contextTime != "" && !containsMonthName(t) {
		if m := bareHourRe.FindStringSubmatch(t); m != nil {
			hour, _ := strconv.Atoi(m[1])
			if hour >= 1 && hour <= 12 && strings.Contains(contextTime, ":") {
				if ch, _, ok := SplitClock(contextTime); ok {
					if ch >= 12 && hour < 12 {
						hour += 12
					}
					return fmt.Sprintf("%02d:00", hour), true
				}
			}
		}
	}

	return "", false
}

var (
	hourAndHalfRe   = regexp.MustCompile(`(?:an?\s+)?hour\s+and\s+a\s+half|1\.5\s*hours?`)
	halfHourRe      = regexp.MustCompile(`(?:a\s+)?half\s+(?:an?\s+)?hours?|half[\s-]hour`)
	fullHourRe      = regexp.MustCompile(`\b(?:a\s+full\s+hour|full\s+hour|an?\s+hour|one\s+hour)\b`)
	hourThenNumRe   = regexp.MustCompile(`(?:an?\s+|one\s+)?hour\s+(?:and\s+)?\d+`)
	hourWordRe      = regexp.MustCompile(`(?:^|[^\w])([\w\s-]+?)\s+hours?(?:\s|$|\.|,)`)
	minuteWordRe    = regexp.MustCompile(`(?:^|[^\w])([\w\s-]+?)\s+minutes?(?:\s|$|\.|,)`)
	fillerPrefixRe  = regexp.MustCompile(`^(i need|make it|uh|um|er)\s+`)
	fillerSuffixRe  = regexp.MustCompile(`,\s*(uh|um|er)\s*$`)
	combinedNumRe   = regexp.MustCompile(`(\d+)[\s\-]*(?:hour|hr|h)s?\s*(?:and)?\s*(\d+)[\s\-]*(?:minute|min|m)s?`)
	hourNumRe       = regexp.MustCompile(`(\d+)[\s\-]*(?:hour|hr|h)s?`)
	minuteNumRe     = regexp.MustCompile(`(\d+)[\s\-]*(?:minute|min|m)s?`)
	fractionHoursRe = regexp.MustCompile(`(\d+)\.(\d+)\s*hours?`)
)

// ParseDuration extracts a meeting length in minutes. Natural-language forms
// win over numeric ones so "an hour and a half" never reads as 60.
func (p *Parser) ParseDuration(text string) (int, bool) {
	t := strings.ToLower(text)

	if hourAndHalfRe.MatchString(t) {
		return 90, true
	}
	if halfHourRe.MatchString(t) {
		return 30, true
	}
	if fullHourRe.MatchString(t) {
		if !hourThenNumRe.MatchString(t) {
			return 60, true
		}
		// "an hour and 15 minutes"
		if m := minuteNumRe.FindStringSubmatch(t); m != nil {
			minutes, _ := strconv.Atoi(m[1])
			return 60 + minutes, true
		}
		return 60, true
	}

	if m := hourWordRe.FindStringSubmatch(t); m != nil {
		word := fillerPrefixRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
		if v, ok := ParseWordNumber(word); ok {
			return v * 60, true
		}
	}
	if m := minuteWordRe.FindStringSubmatch(t); m != nil {
		word := fillerPrefixRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
		word = fillerSuffixRe.ReplaceAllString(word, "")
		if v, ok := ParseWordNumber(word); ok {
			return v, true
		}
	}

	if m := fractionHoursRe.FindStringSubmatch(t); m != nil {
		whole, _ := strconv.Atoi(m[1])
		frac, _ := strconv.Atoi(m[2])
		return whole*60 + frac*60/pow10(len(m[2])), true
	}
	if m := combinedNumRe.FindStringSubmatch(t); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		return hours*60 + minutes, true
	}
	if m := hourNumRe.FindStringSubmatch(t); m != nil {
		hours, _ := strconv.Atoi(m[1])
		return hours * 60, true
	}
	if m := minuteNumRe.FindStringSubmatch(t); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		return minutes, true
	}

	return 0, false
}

// TimeRangeForPreference returns the search window for a date and an optional
// time-of-day word; without one it defaults to the configured work day.
func (p *Parser) TimeRangeForPreference(date time.Time, preference string) (time.Time, time.Time) {
	startHour, endHour := config.WorkDayHours()
	if window, ok := TimeOfDay[preference]; ok {
		startHour, endHour = window[0], window[1]
	}
	day := p.startOfDay(date)
	return day.Add(time.Duration(startHour) * time.Hour), day.Add(time.Duration(endHour) * time.Hour)
}

// nextWeekday resolves a weekday mention relative to Now. "last friday" keeps
// the past date so the validator can flag it.
func (p *Parser) nextWeekday(target time.Weekday, text string) time.Time {
	daysAhead := mondayIndex(target) - mondayIndex(p.Now.Weekday())
	t := strings.ToLower(text)

	if strings.Contains(t, "last") && !strings.Contains(t, "next") {
		if daysAhead > 0 {
			daysAhead -= 7
		}
		return p.startOfDay(p.Now.AddDate(0, 0, daysAhead))
	}

	if strings.Contains(t, "next") {
		if daysAhead <= 0 {
			daysAhead += 7
		}
	} else if daysAhead < 0 {
		daysAhead += 7
	}
	return p.startOfDay(p.Now.AddDate(0, 0, daysAhead))
}

// lastWeekdayOfMonth walks back from the month's last day until a Mon-Fri.
func (p *Parser) lastWeekdayOfMonth(text string) time.Time {
	target := p.Now
	if strings.Contains(text, "next month") {
		target = target.AddDate(0, 1, 0)
	}

	// First day of the following month minus one day is the month's end.
	firstNext := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, p.Loc).AddDate(0, 1, 0)
	last := firstNext.AddDate(0, 0, -1)
	for last.Weekday() == time.Saturday || last.Weekday() == time.Sunday {
		last = last.AddDate(0, 0, -1)
	}
	return last
}

// relativeWeekDate resolves "late next week" style phrases. Ambiguous
// phrases land on the earlier option so the conversation layer can ask.
func (p *Parser) relativeWeekDate(text string) time.Time {
	weekStart := p.startOfDay(p.Now.AddDate(0, 0, -mondayIndex(p.Now.Weekday())))
	if strings.Contains(text, "next week") {
		weekStart = weekStart.AddDate(0, 0, 7)
	}

	var target int
	switch {
	case strings.Contains(text, "late") || strings.Contains(text, "end of"):
		target = 3 // Thursday; clarify asks "Thursday or Friday?"
	case strings.Contains(text, "early") || strings.Contains(text, "beginning of"):
		target = 0 // Monday
	case strings.Contains(text, "weekend"):
		target = 5 // Saturday
	default:
		target = 2 // Wednesday
	}

	daysAhead := (target - mondayIndex(weekStart.Weekday()) + 7) % 7
	return weekStart.AddDate(0, 0, daysAhead)
}

func (p *Parser) startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.Loc)
}

// SplitClock parses "HH:MM" into hour and minute.
func SplitClock(s string) (int, int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return h, m, true
}

func containsMonthName(t string) bool {
	for _, m := range monthNames {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

// mondayIndex maps a Go weekday onto a Monday=0 index.
func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func pow10(n int) int {
	v := 1
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
