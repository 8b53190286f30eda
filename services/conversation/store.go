package conversation

import (
	"context"
	"encoding/json"
	"time"

	"meetwise/models"

	"github.com/go-redis/redis/v8"
)

const sessionPrefix = "session:"

// Store persists conversation state in Redis between chat turns.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get loads the session for a user, returning a fresh state when none
// exists.
func (s *Store) Get(ctx context.Context, userID string) (*models.SessionState, error) {
	key := sessionPrefix + userID
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return &models.SessionState{UserID: userID, ConversationPhase: models.PhaseActiveBooking}, nil
	}
	if err != nil {
		return nil, err
	}
	var state models.SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save writes the session back with the configured TTL.
func (s *Store) Save(ctx context.Context, state *models.SessionState) error {
	key := sessionPrefix + state.UserID
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, s.ttl).Err()
}

// Clear drops the session entirely.
func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, sessionPrefix+userID).Err()
}
