package intelligence

import (
	"context"
	"testing"
	"time"

	"meetwise/services/timeparse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal() *LocalClassifier {
	parser := timeparse.NewParserAt(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	return NewLocalClassifier(parser)
}

func TestParseIntentJSONStripsFences(t *testing.T) {
	raw := "```json\n{\"intent\":\"confirm\",\"reasoning\":\"user agreed\"}\n```"
	analysis, err := parseIntentJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, IntentConfirm, analysis.Intent)

	_, err = parseIntentJSON("I think the user wants to book a meeting.")
	assert.Error(t, err)

	_, err = parseIntentJSON(`{"reasoning":"no intent"}`)
	assert.Error(t, err)
}

func TestLocalClassifierNewRequest(t *testing.T) {
	c := newLocal()

	analysis, err := c.Analyze(context.Background(), Snapshot{
		Message: "I need a 45 minute meeting on Friday afternoon",
	})
	require.NoError(t, err)

	assert.Equal(t, IntentNewRequest, analysis.Intent)
	assert.Equal(t, "change", analysis.Modifications.Duration.Action)
	assert.Equal(t, "45", analysis.Modifications.Duration.NewValue)
	assert.Equal(t, "change", analysis.Modifications.Date.Action)
	assert.Equal(t, "change", analysis.Modifications.Time.Action)
	assert.Empty(t, analysis.MissingInfo)
}

func TestLocalClassifierConfirmAndCancel(t *testing.T) {
	c := newLocal()

	analysis, err := c.Analyze(context.Background(), Snapshot{
		Message:     "yes, book it",
		ReadyToBook: true,
	})
	require.NoError(t, err)
	assert.Equal(t, IntentConfirm, analysis.Intent)

	analysis, err = c.Analyze(context.Background(), Snapshot{
		Message: "actually, never mind, cancel that",
	})
	require.NoError(t, err)
	assert.Equal(t, IntentCancel, analysis.Intent)
}

func TestLocalClassifierConstraints(t *testing.T) {
	c := newLocal()

	analysis, err := c.Analyze(context.Background(), Snapshot{
		Message:  "I'm free next week, but not too early and not on wednesday",
		Duration: "60",
	})
	require.NoError(t, err)

	assert.True(t, analysis.Constraints.MultiDaySearch)
	assert.Equal(t, "next week", analysis.Constraints.DateRange)
	assert.Equal(t, []string{"wednesday"}, analysis.Constraints.NegativeDays)
	assert.Equal(t, "10:00", analysis.Constraints.EarliestTime)
	assert.NotContains(t, analysis.MissingInfo, "date")
	assert.NotContains(t, analysis.MissingInfo, "time")
}

func TestLocalClassifierBuffers(t *testing.T) {
	c := newLocal()

	analysis, err := c.Analyze(context.Background(), Snapshot{
		Message: "find me something 2 hours after my last meeting on Friday",
	})
	require.NoError(t, err)
	require.NotNil(t, analysis.BufferAfterLastMeeting)
	assert.Equal(t, 120, *analysis.BufferAfterLastMeeting)

	analysis, err = c.Analyze(context.Background(), Snapshot{
		Message: "I want 30 minutes before my first meeting tomorrow",
	})
	require.NoError(t, err)
	require.NotNil(t, analysis.BufferBeforeNextMeeting)
	assert.Equal(t, 30, *analysis.BufferBeforeNextMeeting)
}

func TestLocalClassifierRestoreAfterCancel(t *testing.T) {
	c := newLocal()

	analysis, err := c.Analyze(context.Background(), Snapshot{
		Message:         "actually, let's do it after all",
		Cancelled:       true,
		CancelledParams: "duration=60",
	})
	require.NoError(t, err)
	assert.Equal(t, "restore", analysis.Modifications.Duration.Action)
	assert.Equal(t, "restore", analysis.Modifications.Time.Action)
}
