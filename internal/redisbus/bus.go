// Package redisbus publishes signal events to Redis channels where
// notification collaborators pick them up.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ridopark/FibTrader/pkg/logging"
)

// Config holds the Redis connection settings
type Config struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// Bus publishes JSON events on prefixed Redis channels
type Bus struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewBus creates a Redis event bus
func NewBus(cfg Config) *Bus {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Bus{
		client: client,
		prefix: cfg.ChannelPrefix,
		logger: logging.GetLogger("redisbus"),
	}
}

// HealthCheck verifies the Redis connection
func (b *Bus) HealthCheck(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Publish marshals the payload and publishes it on prefix:eventType
func (b *Bus) Publish(ctx context.Context, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", eventType, err)
	}
	channel := b.prefix + ":" + eventType
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}
	b.logger.Debug().Str("channel", channel).Int("bytes", len(data)).Msg("Published event")
	return nil
}

// Close closes the Redis client
func (b *Bus) Close() error {
	return b.client.Close()
}
