package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TypeCalendarRefresh = "calendar:refresh"

// CalendarRefreshPayload identifies whose cached calendar context to rebuild.
type CalendarRefreshPayload struct {
	UserID string `json:"userId"`
}

// NewCalendarRefreshTask builds the task enqueued after each booking so the
// session's calendar snapshot catches up in the background.
func NewCalendarRefreshTask(userID string) (*asynq.Task, error) {
	b, err := json.Marshal(CalendarRefreshPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCalendarRefresh, b), nil
}
