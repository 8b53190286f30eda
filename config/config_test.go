package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkDayHours(t *testing.T) {
	old := AppConfig
	defer func() { AppConfig = old }()

	AppConfig.WorkDayStartHour = 0
	AppConfig.WorkDayEndHour = 0
	start, end := WorkDayHours()
	assert.Equal(t, 8, start)
	assert.Equal(t, 18, end)

	AppConfig.WorkDayStartHour = 9
	AppConfig.WorkDayEndHour = 17
	start, end = WorkDayHours()
	assert.Equal(t, 9, start)
	assert.Equal(t, 17, end)

	// An inverted window falls back rather than producing an empty day.
	AppConfig.WorkDayStartHour = 18
	AppConfig.WorkDayEndHour = 9
	start, end = WorkDayHours()
	assert.Equal(t, 8, start)
	assert.Equal(t, 18, end)
}
