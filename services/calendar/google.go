package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"meetwise/models"
	"meetwise/utils"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleProvider talks to the Google Calendar API.
type GoogleProvider struct {
	svc *gcal.Service
}

// NewGoogleProvider builds a provider from a service-account credentials file.
func NewGoogleProvider(ctx context.Context, credentialsFile string) (*GoogleProvider, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleProvider{svc: svc}, nil
}

func (g *GoogleProvider) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]models.CalendarEvent, error) {
	call := g.svc.Events.List(calendarID).
		Context(ctx).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]models.CalendarEvent, 0, len(res.Items))
	for _, item := range res.Items {
		ev, ok := fromGoogleEvent(item)
		if !ok {
			// All-day events carry no clock times and are skipped.
			continue
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

func (g *GoogleProvider) CreateEvent(ctx context.Context, calendarID string, ev models.CalendarEvent) (models.CalendarEvent, error) {
	logger := utils.GetLogger()

	created, err := g.svc.Events.Insert(calendarID, &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}).Context(ctx).Do()
	if err != nil {
		return models.CalendarEvent{}, fmt.Errorf("failed to create event: %w", err)
	}

	logger.Info("Created calendar event",
		zap.String("eventID", created.Id),
		zap.String("summary", ev.Summary))

	ev.ID = created.Id
	ev.Status = created.Status
	return ev, nil
}

func (g *GoogleProvider) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}

func fromGoogleEvent(item *gcal.Event) (models.CalendarEvent, bool) {
	if item.Start == nil || item.End == nil || item.Start.DateTime == "" || item.End.DateTime == "" {
		return models.CalendarEvent{}, false
	}
	start, err1 := time.Parse(time.RFC3339, item.Start.DateTime)
	end, err2 := time.Parse(time.RFC3339, item.End.DateTime)
	if err1 != nil || err2 != nil {
		return models.CalendarEvent{}, false
	}
	return models.CalendarEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Start:       start,
		End:         end,
		Status:      item.Status,
	}, true
}
