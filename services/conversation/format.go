package conversation

import (
	"fmt"
	"strings"
	"time"

	"meetwise/models"
)

func formatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

func formatDate(t time.Time) string {
	return t.Format("Monday, January 2")
}

// ordinalDate renders "January 2" as "January 2nd".
func ordinalDate(t time.Time) string {
	day := t.Day()
	suffix := "th"
	switch {
	case day%100 >= 11 && day%100 <= 13:
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%s %d%s", t.Format("January"), day, suffix)
}

// joinNaturally renders a list the way a person would say it:
// "A", "A or B", "A, B, or C".
func joinNaturally(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conj + " " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", " + conj + " " + items[len(items)-1]
	}
}

func durationWords(minutes int) string {
	switch minutes {
	case 30:
		return "thirty minutes"
	case 60:
		return "one hour"
	case 90:
		return "an hour and thirty minutes"
	case 120:
		return "two hours"
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}

func slotTimes(slots []models.Slot, max int) []string {
	var out []string
	for _, s := range slots {
		if len(out) >= max {
			break
		}
		out = append(out, formatClock(s.Start))
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func containsAnyWord(text string, words ...string) bool {
	for _, w := range words {
		if containsWord(text, w) {
			return true
		}
	}
	return false
}

// containsWord matches on word boundaries so "more" does not fire on
// "tomorrow".
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '\''
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// weekdayIn finds a weekday named as a whole word (singular or plural), so
// "mondayish" never reads as Monday.
func weekdayIn(lower string) (time.Weekday, bool) {
	for name, wd := range weekdayNames {
		if containsWord(lower, name) || containsWord(lower, name+"s") {
			return wd, true
		}
	}
	return 0, false
}
