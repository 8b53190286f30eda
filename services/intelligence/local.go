package intelligence

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"meetwise/services/timeparse"
)

var (
	negativeDayRe = regexp.MustCompile(`(?:not on|no|except|but not|avoid)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?`)
	bufferAfterRe = regexp.MustCompile(`(\d+)\s*(hour|hr|minute|min)s?\s+after\s+my\s+last\s+meeting`)
	bufferBeforeRe = regexp.MustCompile(`(\d+)\s*(hour|hr|minute|min)s?\s+before\s+my\s+(?:first|next)\s+meeting`)

	cancelPhrases  = []string{"cancel", "never mind", "nevermind", "forget it", "don't book", "do not book", "abort"}
	confirmPhrases = []string{"yes", "yep", "yeah", "sure", "sounds good", "that works", "works for me", "perfect", "book it", "confirm", "go ahead", "let's do it"}
	rejectPhrases  = []string{"no", "neither", "none of those", "something else", "different time", "other options"}
)

// LocalClassifier is a deterministic keyword classifier used when no model
// is configured and as the fallback when the model's reply cannot be parsed.
type LocalClassifier struct {
	parser *timeparse.Parser
}

func NewLocalClassifier(parser *timeparse.Parser) *LocalClassifier {
	return &LocalClassifier{parser: parser}
}

func (c *LocalClassifier) Analyze(ctx context.Context, snap Snapshot) (*IntentAnalysis, error) {
	lower := strings.ToLower(snap.Message)

	analysis := &IntentAnalysis{
		Intent:    IntentModify,
		Reasoning: "keyword classification",
	}

	switch {
	case containsAny(lower, cancelPhrases):
		analysis.Intent = IntentCancel
	case snap.ReadyToBook && containsAny(lower, confirmPhrases):
		analysis.Intent = IntentConfirm
	case snap.ReadyToBook && containsAny(lower, rejectPhrases):
		analysis.Intent = IntentReject
	case snap.Cancelled && (strings.Contains(lower, "actually") || strings.Contains(lower, "let's do") || strings.Contains(lower, "go ahead")):
		// Resuming after a cancellation restores the saved parameters.
		analysis.Modifications.Duration = FieldChange{Action: "restore"}
		analysis.Modifications.Time = FieldChange{Action: "restore"}
		analysis.Modifications.Title = FieldChange{Action: "restore"}
	}

	if analysis.Intent == IntentCancel {
		return analysis, nil
	}

	if minutes, ok := c.parser.ParseDuration(snap.Message); ok {
		analysis.Modifications.Duration = FieldChange{
			Action:        "change",
			NewValue:      strconv.Itoa(minutes),
			MentionedText: snap.Message,
		}
	}
	if phrase := ambiguousDatePhrase(lower); phrase != "" {
		// Phrases like "late next week" need a follow-up question, not a
		// guessed date.
		analysis.Modifications.Date = FieldChange{
			Action:        "change",
			NewValue:      "AMBIGUOUS",
			MentionedText: phrase,
		}
	} else if _, ok := c.parser.ParseDate(snap.Message); ok {
		analysis.Modifications.Date = FieldChange{
			Action:        "change",
			NewValue:      snap.Message,
			MentionedText: snap.Message,
		}
	}
	if pref, ok := c.parser.ParseTimePreference(snap.Message, snap.TimePreference); ok {
		analysis.Modifications.Time = FieldChange{
			Action:        "change",
			NewValue:      pref,
			MentionedText: snap.Message,
		}
	}

	c.extractConstraints(lower, analysis)
	c.extractBuffers(lower, analysis)
	c.fillMissingInfo(snap, analysis)

	// A message carrying a full fresh request while nothing was collected yet
	// reads as a new request.
	if snap.Duration == "" && snap.Date == "" && !snap.ReadyToBook && !snap.Cancelled {
		analysis.Intent = IntentNewRequest
	}

	return analysis, nil
}

func (c *LocalClassifier) extractConstraints(lower string, analysis *IntentAnalysis) {
	for _, m := range negativeDayRe.FindAllStringSubmatch(lower, -1) {
		analysis.Constraints.NegativeDays = append(analysis.Constraints.NegativeDays, m[1])
	}
	if strings.Contains(lower, "not too early") {
		analysis.Constraints.EarliestTime = "10:00"
	}
	if strings.Contains(lower, "not too late") {
		analysis.Constraints.LatestTime = "17:00"
	}

	broad := strings.Contains(lower, "free") || strings.Contains(lower, "available") ||
		strings.Contains(lower, "any day") || strings.Contains(lower, "sometime")
	if strings.Contains(lower, "next week") && broad {
		analysis.Constraints.MultiDaySearch = true
		analysis.Constraints.DateRange = "next week"
	} else if strings.Contains(lower, "this week") && broad {
		analysis.Constraints.MultiDaySearch = true
		analysis.Constraints.DateRange = "this week"
	}
}

func (c *LocalClassifier) extractBuffers(lower string, analysis *IntentAnalysis) {
	if m := bufferAfterRe.FindStringSubmatch(lower); m != nil {
		analysis.BufferAfterLastMeeting = bufferMinutes(m[1], m[2])
	}
	if m := bufferBeforeRe.FindStringSubmatch(lower); m != nil {
		analysis.BufferBeforeNextMeeting = bufferMinutes(m[1], m[2])
	}
}

func (c *LocalClassifier) fillMissingInfo(snap Snapshot, analysis *IntentAnalysis) {
	if snap.Duration == "" && analysis.Modifications.Duration.Action == "" {
		analysis.MissingInfo = append(analysis.MissingInfo, "duration")
	}
	hasDate := snap.Date != "" || analysis.Modifications.Date.Action == "change" || analysis.Constraints.MultiDaySearch
	if !hasDate {
		analysis.MissingInfo = append(analysis.MissingInfo, "date")
	}
	hasTime := snap.TimePreference != "" || analysis.Modifications.Time.Action == "change" ||
		analysis.Constraints.EarliestTime != "" || analysis.Constraints.LatestTime != "" ||
		analysis.Constraints.MultiDaySearch
	if !hasTime {
		analysis.MissingInfo = append(analysis.MissingInfo, "time")
	}
}

var ambiguousDatePhrases = []string{
	"late next week", "early next week", "mid week", "midweek",
	"sometime next week", "end of the month", "early next month",
}

func ambiguousDatePhrase(lower string) string {
	for _, p := range ambiguousDatePhrases {
		if strings.Contains(lower, p) {
			return p
		}
	}
	return ""
}

func bufferMinutes(value, unit string) *int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	if strings.HasPrefix(unit, "h") {
		n *= 60
	}
	return &n
}

// IsAffirmative reports whether the message reads as a plain yes, independent
// of whether slots are pending.
func IsAffirmative(message string) bool {
	return containsAny(strings.ToLower(message), confirmPhrases)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if p == "yes" || p == "no" {
			// Short words need boundaries so "now" doesn't match "no".
			if matchWord(s, p) {
				return true
			}
			continue
		}
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func matchWord(s, word string) bool {
	re := regexp.MustCompile(fmt.Sprintf(`\b%s\b`, regexp.QuoteMeta(word)))
	return re.MatchString(s)
}
