package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) // Monday

func TestValidateDatePast(t *testing.T) {
	v := NewValidatorAt(testNow)

	past := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC) // last Friday

	issue := v.ValidateDate(past, "last friday")
	require.NotNil(t, issue)
	assert.Equal(t, ErrPastDate, issue.Type)
	assert.Equal(t, "next friday", issue.Suggestion)
	assert.Contains(t, issue.Question, "next Friday")

	// Without an explicit past word there is no weekday suggestion.
	issue = v.ValidateDate(past, "february 27")
	require.NotNil(t, issue)
	assert.Equal(t, ErrPastDate, issue.Type)
	assert.Empty(t, issue.Suggestion)

	// Today and future dates pass.
	assert.Nil(t, v.ValidateDate(testNow, "today"))
	assert.Nil(t, v.ValidateDate(testNow.AddDate(0, 0, 3), "thursday"))
}

func TestValidateDuration(t *testing.T) {
	v := NewValidatorAt(testNow)

	assert.Nil(t, v.ValidateDuration(30))
	assert.Nil(t, v.ValidateDuration(120))
	assert.Nil(t, v.ValidateDuration(0))

	// 600 minutes is the classic "10 hours, meant 1 hour" slip.
	issue := v.ValidateDuration(600)
	require.NotNil(t, issue)
	assert.Equal(t, ErrUnrealisticDuration, issue.Type)
	assert.Equal(t, "1 hour", issue.Suggestion)

	issue = v.ValidateDuration(720)
	require.NotNil(t, issue)
	assert.Equal(t, ErrUnrealisticDuration, issue.Type)
	assert.Equal(t, "6 hours", issue.Suggestion)

	// 4-8 hours is a soft warning that still blocks.
	issue = v.ValidateDuration(300)
	require.NotNil(t, issue)
	assert.Equal(t, ErrLongDuration, issue.Type)
}

func TestValidateTimeInvalidPatterns(t *testing.T) {
	v := NewValidatorAt(testNow)

	for _, msg := range []string{
		"let's meet at 26 o'clock",
		"0 o'clock works",
		"how about 14 pm",
		"25:00 tomorrow",
		"14:75 please",
	} {
		issue := v.ValidateTime("", msg)
		require.NotNil(t, issue, msg)
		assert.Equal(t, ErrInvalidTime, issue.Type, msg)
	}

	// Valid forms pass.
	assert.Nil(t, v.ValidateTime("14:00", "2 pm works"))
	assert.Nil(t, v.ValidateTime("17:30", "5:30 pm"))
	assert.Nil(t, v.ValidateTime("", "sometime tomorrow"))
}

func TestValidateTimeGarbledReference(t *testing.T) {
	v := NewValidatorAt(testNow)

	// "at 26" with no parsed time is a garbled time, not a quantity.
	issue := v.ValidateTime("", "meet at 26 tomorrow")
	require.NotNil(t, issue)
	assert.Equal(t, ErrInvalidTime, issue.Type)

	// Same words with a parsed time are left alone.
	assert.Nil(t, v.ValidateTime("10:00", "meet at 26 tomorrow"))
}

func TestValidateAllOrdering(t *testing.T) {
	v := NewValidatorAt(testNow)
	past := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)

	// Time problems win over date problems.
	issue := v.ValidateAll(&past, "last friday", 600, "", "at 26 o'clock")
	require.NotNil(t, issue)
	assert.Equal(t, ErrInvalidTime, issue.Type)

	// Then date problems win over duration problems.
	issue = v.ValidateAll(&past, "last friday", 600, "", "ten hours last friday")
	require.NotNil(t, issue)
	assert.Equal(t, ErrPastDate, issue.Type)

	// Finally duration.
	future := testNow.AddDate(0, 0, 2)
	issue = v.ValidateAll(&future, "wednesday", 600, "", "ten hours on wednesday")
	require.NotNil(t, issue)
	assert.Equal(t, ErrUnrealisticDuration, issue.Type)

	assert.Nil(t, v.ValidateAll(&future, "wednesday", 60, "10:00", "an hour at 10 am on wednesday"))
}
