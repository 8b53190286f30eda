package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"meetwise/models"

	"github.com/google/uuid"
)

// MemoryProvider is an in-process calendar used by tests and local runs.
type MemoryProvider struct {
	mu     sync.Mutex
	events []models.CalendarEvent
}

// NewMemoryProvider seeds an in-memory calendar with the given events.
func NewMemoryProvider(events ...models.CalendarEvent) *MemoryProvider {
	p := &MemoryProvider{}
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		p.events = append(p.events, ev)
	}
	return p
}

func (p *MemoryProvider) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]models.CalendarEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []models.CalendarEvent
	for _, ev := range p.events {
		if ev.Start.Before(to) && from.Before(ev.End) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (p *MemoryProvider) CreateEvent(ctx context.Context, calendarID string, ev models.CalendarEvent) (models.CalendarEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Status == "" {
		ev.Status = "confirmed"
	}
	p.events = append(p.events, ev)
	return ev, nil
}

func (p *MemoryProvider) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, ev := range p.events {
		if ev.ID == eventID {
			p.events = append(p.events[:i], p.events[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("event %s not found", eventID)
}
