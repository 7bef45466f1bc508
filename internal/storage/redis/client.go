// Package redis stores the mastery record in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/dungeon/internal/config"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go

// Client wraps redis.UniversalClient so repositories can be tested against a mock.
type Client interface {
	redis.UniversalClient
}

// NewClient creates a client for a single Redis instance. The connection is
// opened lazily on first use.
//
// Precondition: cfg.Addr must be non-empty.
func NewClient(cfg config.RedisConfig) (Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	}), nil
}

// Health pings the server within timeout.
func Health(ctx context.Context, c Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}
