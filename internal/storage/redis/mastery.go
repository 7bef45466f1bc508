package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/dungeon/internal/game/mastery"
)

// keyPrefix namespaces every mastery key.
const keyPrefix = "dungeon:mastery:"

var _ mastery.Store = (*MasteryRepository)(nil)

// MasteryRepository keeps the mastery blob as one JSON string value.
type MasteryRepository struct {
	client Client
	key    string
}

// NewMasteryRepository creates a MasteryRepository for the value named key.
//
// Precondition: client must not be nil; key must be non-empty.
func NewMasteryRepository(client Client, key string) *MasteryRepository {
	if client == nil {
		panic("redis: NewMasteryRepository precondition violated: client must not be nil")
	}
	if key == "" {
		panic("redis: NewMasteryRepository precondition violated: key must be non-empty")
	}
	return &MasteryRepository{client: client, key: keyPrefix + key}
}

// Key returns the full Redis key.
func (r *MasteryRepository) Key() string { return r.key }

// Load reads the value. A missing key yields empty data.
func (r *MasteryRepository) Load(ctx context.Context) (mastery.Data, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return mastery.Data{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting %q: %w", r.key, err)
	}
	return mastery.Unmarshal(raw)
}

// Save replaces the value with d. The key never expires.
func (r *MasteryRepository) Save(ctx context.Context, d mastery.Data) error {
	raw, err := mastery.Marshal(d)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("setting %q: %w", r.key, err)
	}
	return nil
}

// Delete removes the value.
func (r *MasteryRepository) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("deleting %q: %w", r.key, err)
	}
	return nil
}
