package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday, 2026-03-02 10:00 UTC.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestParser() *Parser {
	return NewParserAt(testNow)
}

func TestParseWordNumber(t *testing.T) {
	cases := map[string]int{
		"five":               5,
		"twelve":             12,
		"twenty":             20,
		"sixty five":         65,
		"twenty-one":         21,
		"thirty and three":   33,
		"hundred":            100,
		"two hundred":        200,
		"one hundred twenty": 120,
	}
	for text, want := range cases {
		got, ok := ParseWordNumber(text)
		require.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	_, ok := ParseWordNumber("banana")
	assert.False(t, ok)
}

func TestParseDurationNaturalLanguage(t *testing.T) {
	p := newTestParser()

	cases := map[string]int{
		"an hour and a half":             90,
		"let's do 1.5 hours":             90,
		"half an hour":                   30,
		"a half hour works":              30,
		"an hour":                        60,
		"a full hour":                    60,
		"one hour please":                60,
		"sixty minutes":                  60,
		"i need sixty five minutes":      65,
		"make it two hours":              120,
		"1 hour 30 minutes":              90,
		"1h 30m":                         90,
		"2 hours":                        120,
		"45 minutes":                     45,
		"45 min":                         45,
		"book 30-min with the designers": 30,
	}
	for text, want := range cases {
		got, ok := p.ParseDuration(text)
		require.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	_, ok := p.ParseDuration("sometime tomorrow")
	assert.False(t, ok)
}

func TestParseDurationHourAndNumberNotSixty(t *testing.T) {
	p := newTestParser()

	// "an hour and 15 minutes" must not short-circuit to 60.
	got, ok := p.ParseDuration("an hour and 15 minutes")
	require.True(t, ok)
	assert.Equal(t, 75, got)
}

func TestParseSpecificTime(t *testing.T) {
	p := newTestParser()

	cases := []struct {
		text    string
		context string
		want    string
	}{
		{"5:30 pm", "", "17:30"},
		{"5 pm", "", "17:00"},
		{"12 pm", "", "12:00"},
		{"12 am", "", "00:00"},
		{"14:30", "", "14:30"},
		{"9:15 am", "", "09:15"},
		{"5 to 5:30 pm", "", "17:00"},
		{"5 to 5:30", "", "17:00"}, // bare 5-11 defaults to PM
		{"5 to 5:30 in the morning", "", "05:00"},
		{"5 to 5:30", "14:00", "17:00"}, // afternoon context keeps PM
		{"5", "15:00", "17:00"},         // bare hour with PM context
	}
	for _, c := range cases {
		got, ok := p.ParseSpecificTime(c.text, c.context)
		require.True(t, ok, c.text)
		assert.Equal(t, c.want, got, c.text)
	}
}

func TestParseSpecificTimeRejectsInvalid(t *testing.T) {
	p := newTestParser()

	for _, text := range []string{"26 o'clock", "0 o'clock", "25:00", "14:75", "november 5"} {
		_, ok := p.ParseSpecificTime(text, "")
		assert.False(t, ok, text)
	}

	// "November 5" with context must not be read as a bare hour.
	_, ok := p.ParseSpecificTime("november 5", "15:00")
	assert.False(t, ok)
}

func TestParseTimePreferenceWords(t *testing.T) {
	p := newTestParser()

	got, ok := p.ParseTimePreference("sometime in the morning", "")
	require.True(t, ok)
	assert.Equal(t, "morning", got)

	got, ok = p.ParseTimePreference("evening would be great", "")
	require.True(t, ok)
	assert.Equal(t, "evening", got)

	_, ok = p.ParseTimePreference("whenever", "")
	assert.False(t, ok)
}

func TestParseDateRelativeDays(t *testing.T) {
	p := newTestParser()

	today, ok := p.ParseDate("today if possible")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), today)

	tomorrow, ok := p.ParseDate("tomorrow afternoon")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), tomorrow)

	yesterday, ok := p.ParseDate("yesterday")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), yesterday)
}

func TestParseDateWeekdays(t *testing.T) {
	p := newTestParser() // anchored on a Monday

	friday, ok := p.ParseDate("friday")
	require.True(t, ok)
	assert.Equal(t, time.Friday, friday.Weekday())
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), friday)

	nextFriday, ok := p.ParseDate("next friday")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), nextFriday)

	// Same day mentioned without "next" stays today; with "next" it jumps a week.
	monday, ok := p.ParseDate("monday")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), monday)

	nextMonday, ok := p.ParseDate("next monday")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), nextMonday)

	// "last friday" resolves to the past so validation can flag it.
	lastFriday, ok := p.ParseDate("last friday")
	require.True(t, ok)
	assert.True(t, lastFriday.Before(testNow))
	assert.Equal(t, time.Friday, lastFriday.Weekday())
}

func TestParseDateRelativeWeek(t *testing.T) {
	p := newTestParser()

	lateNextWeek, ok := p.ParseDate("late next week")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), lateNextWeek) // Thursday

	earlyNextWeek, ok := p.ParseDate("early next week")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), earlyNextWeek) // Monday

	weekend, ok := p.ParseDate("next weekend")
	require.True(t, ok)
	assert.Equal(t, time.Saturday, weekend.Weekday())
}

func TestParseDateLastWeekdayOfMonth(t *testing.T) {
	p := newTestParser()

	// March 2026 ends on Tuesday the 31st, already a weekday.
	d, ok := p.ParseDate("last weekday of this month")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), d)

	// May 2026 ends on Sunday the 31st; the last weekday is Friday the 29th.
	mayParser := NewParserAt(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	d, ok = mayParser.ParseDate("last working day of this month")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 5, 29, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, time.Friday, d.Weekday())
}

func TestParseDateExplicit(t *testing.T) {
	p := newTestParser()

	d, ok := p.ParseDate("march 15")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), d)

	// A passed date rolls into next year.
	d, ok = p.ParseDate("january 10")
	require.True(t, ok)
	assert.Equal(t, time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC), d)

	d, ok = p.ParseDate("15th of april")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), d)

	_, ok = p.ParseDate("whenever works")
	assert.False(t, ok)
}

func TestTimeRangeForPreference(t *testing.T) {
	p := newTestParser()
	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	start, end := p.TimeRangeForPreference(date, "morning")
	assert.Equal(t, 8, start.Hour())
	assert.Equal(t, 12, end.Hour())

	start, end = p.TimeRangeForPreference(date, "")
	assert.Equal(t, 8, start.Hour())
	assert.Equal(t, 18, end.Hour())
}
