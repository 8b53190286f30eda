package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"meetwise/config"
	"meetwise/services/calendar"
	"meetwise/services/conversation"
	"meetwise/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitCalendarWorker runs the async worker in background. It keeps each
// session's cached calendar context fresh after bookings.
func InitCalendarWorker(store *conversation.Store, provider calendar.Provider, calendarID string) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeCalendarRefresh, handleCalendarRefresh(store, provider, calendarID))

	go monitorRedisConnection()

	go func() {
		log.Println("[CalendarWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[CalendarWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[CalendarWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleCalendarRefresh(store *conversation.Store, provider calendar.Provider, calendarID string) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.CalendarRefreshPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[CalendarRefresh] Invalid payload: %v", err)
			return err
		}

		state, err := store.Get(ctx, p.UserID)
		if err != nil {
			log.Printf("[CalendarRefresh] Failed to load session for %s: %v", p.UserID, err)
			return err
		}

		now := time.Now()
		events, err := provider.ListEvents(ctx, calendarID, now, now.AddDate(0, 0, 14))
		if err != nil {
			log.Printf("[CalendarRefresh] Failed to list events for %s: %v", p.UserID, err)
			return err
		}
		if len(events) > 20 {
			events = events[:20]
		}

		state.CalendarContext = events
		if err := store.Save(ctx, state); err != nil {
			log.Printf("[CalendarRefresh] Failed to save session for %s: %v", p.UserID, err)
			return err
		}

		log.Printf("[CalendarRefresh] Refreshed calendar context for %s (%d events)", p.UserID, len(events))
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[CalendarWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
