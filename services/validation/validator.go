package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"meetwise/utils"

	"go.uber.org/zap"
)

// Duration thresholds in minutes.
const (
	MaxReasonableDuration = 480
	LongDurationThreshold = 240
)

// Issue error types.
const (
	ErrPastDate            = "past_date"
	ErrUnrealisticDuration = "unrealistic_duration"
	ErrLongDuration        = "long_duration"
	ErrInvalidTime         = "invalid_time"
)

// Issue is a validation failure with a question to send back to the user.
type Issue struct {
	Type       string
	Question   string
	Suggestion string
}

// Validator catches impossible or suspicious scheduling parameters before
// they reach the calendar. Now is the reference instant; tests pin it.
type Validator struct {
	Now time.Time
}

// NewValidator anchors a validator at the current time in the given zone.
func NewValidator(loc *time.Location) *Validator {
	return &Validator{Now: time.Now().In(loc)}
}

// NewValidatorAt anchors a validator at a fixed instant.
func NewValidatorAt(now time.Time) *Validator {
	return &Validator{Now: now}
}

var (
	invalidOclockRe  = regexp.MustCompile(`(\d+)\s*o['’]?\s*clock`)
	invalidMeridRe   = regexp.MustCompile(`(\d+)\s*(?:pm|am)`)
	invalidClockRe   = regexp.MustCompile(`(\d+):(\d+)`)
	timeIndicatorRe  = regexp.MustCompile(`(?:at|around|about)\s+(\d+)(?:\s|$|\.)`)
	explicitPastWord = []string{"last", "past", "yesterday", "previous"}
)

// ValidateAll runs the checks in order time, date, duration; the first
// failure wins.
func (v *Validator) ValidateAll(date *time.Time, dateString string, durationMinutes int, timeString, message string) *Issue {
	if issue := v.ValidateTime(timeString, message); issue != nil {
		return issue
	}
	if date != nil {
		if issue := v.ValidateDate(*date, dateString); issue != nil {
			return issue
		}
	}
	if durationMinutes > 0 {
		if issue := v.ValidateDuration(durationMinutes); issue != nil {
			return issue
		}
	}
	return nil
}

// ValidateDate rejects dates in the past. When the user explicitly said
// "last"/"yesterday" we can suggest the matching future weekday.
func (v *Validator) ValidateDate(date time.Time, dateString string) *Issue {
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	nowOnly := time.Date(v.Now.Year(), v.Now.Month(), v.Now.Day(), 0, 0, 0, 0, v.Now.Location())
	if !dateOnly.Before(nowOnly) {
		return nil
	}

	utils.GetLogger().Warn("Past date detected", zap.String("date", dateOnly.Format("2006-01-02")))

	lower := strings.ToLower(dateString)
	for _, w := range explicitPastWord {
		if strings.Contains(lower, w) {
			dayName := date.Weekday().String()
			return &Issue{
				Type:       ErrPastDate,
				Question:   fmt.Sprintf("I can only schedule future events. Did you mean next %s?", dayName),
				Suggestion: "next " + strings.ToLower(dayName),
			}
		}
	}

	return &Issue{
		Type:     ErrPastDate,
		Question: fmt.Sprintf("That date (%s) has already passed. Did you mean a future date?", date.Format("January 2")),
	}
}

// ValidateDuration flags unrealistic (>8h) and suspiciously long (4-8h)
// durations. Both block until the user confirms or revises.
func (v *Validator) ValidateDuration(durationMinutes int) *Issue {
	if durationMinutes <= 0 {
		return nil
	}

	if durationMinutes > MaxReasonableDuration {
		hours := durationMinutes / 60
		utils.GetLogger().Warn("Unrealistic duration", zap.Int("minutes", durationMinutes))

		var suggestion string
		if durationMinutes == 600 {
			suggestion = "1 hour"
		} else if durationMinutes >= MaxReasonableDuration {
			suggestion = fmt.Sprintf("%d hours", hours/2)
		}

		question := fmt.Sprintf("%d hours is quite long — did you mean %s?", hours, suggestion)
		if suggestion == "" {
			question = fmt.Sprintf("%d hours is quite long — did you mean %d minutes or 1 hour?", hours, hours)
		}
		return &Issue{Type: ErrUnrealisticDuration, Question: question, Suggestion: suggestion}
	}

	if durationMinutes >= LongDurationThreshold {
		return &Issue{
			Type:     ErrLongDuration,
			Question: fmt.Sprintf("%d hours is quite long. Is that correct?", durationMinutes/60),
		}
	}

	return nil
}

// ValidateTime scans the raw message for impossible clock times ("26
// o'clock", "14 PM", "25:00") and, when no time parsed at all, for garbled
// "at N" references.
func (v *Validator) ValidateTime(timeString, message string) *Issue {
	if message == "" {
		return nil
	}
	lower := strings.ToLower(message)

	invalid := func(s string) *Issue {
		utils.GetLogger().Warn("Invalid time format", zap.String("match", s))
		return &Issue{
			Type:       ErrInvalidTime,
			Question:   "I didn't catch that time. Could you say '2 PM' or '14:00'?",
			Suggestion: "2 PM or 14:00",
		}
	}

	if m := invalidOclockRe.FindStringSubmatch(lower); m != nil {
		if n, _ := strconv.Atoi(m[1]); n > 24 || n == 0 {
			return invalid(m[0])
		}
	}
	if m := findBareMeridiem(lower); m != nil {
		if n, _ := strconv.Atoi(m[1]); n > 12 || n == 0 {
			return invalid(m[0])
		}
	}
	if m := invalidClockRe.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if h >= 24 || mm >= 60 {
			return invalid(m[0])
		}
	}

	if timeString == "" {
		if m := timeIndicatorRe.FindStringSubmatch(lower); m != nil {
			if n, _ := strconv.Atoi(m[1]); n > 24 || n == 0 {
				return invalid(m[0])
			}
		}
	}

	return nil
}

// findBareMeridiem matches "N pm" where N is not part of a clock time like
// "5:30 pm" (the minutes would otherwise read as the hour).
func findBareMeridiem(lower string) []string {
	for _, m := range invalidMeridRe.FindAllStringSubmatchIndex(lower, -1) {
		start := m[2]
		if start > 0 {
			prev := lower[start-1]
			if prev == ':' || (prev >= '0' && prev <= '9') {
				continue
			}
		}
		return []string{lower[m[0]:m[1]], lower[m[2]:m[3]]}
	}
	return nil
}
