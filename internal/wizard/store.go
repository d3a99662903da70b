package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"facematch/internal/redis"
)

// Store persists drafts in Redis so a reload or a new session picks the
// wizard up where the user left it.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: client, ttl: ttl}
}

func draftKey(userID string) string {
	return "signup:draft:" + userID
}

// Load returns the user's draft, or a fresh one when none is stored.
func (s *Store) Load(ctx context.Context, userID string) (*Draft, error) {
	raw, err := s.redis.Get(ctx, draftKey(userID))
	if err != nil {
		if redis.IsNil(err) {
			return NewDraft(), nil
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	if draft.Images == nil {
		draft.Images = []ImageItem{}
	}
	return &draft, nil
}

func (s *Store) Save(ctx context.Context, userID string, draft *Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.redis.Set(ctx, draftKey(userID), raw, s.ttl); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, draftKey(userID))
}
