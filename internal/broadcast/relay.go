package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisRelay publishes every broadcast event to a Redis pub/sub channel so
// out-of-process consumers (dashboards, notifiers) can follow the stream
// without holding a websocket to this instance.
type RedisRelay struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisRelay connects to Redis and verifies the connection.
func NewRedisRelay(redisURL, channel string, logger zerolog.Logger) (*RedisRelay, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Str("channel", channel).Msg("Connected to Redis relay")

	return &RedisRelay{
		client:  client,
		channel: channel,
		logger:  logger.With().Str("component", "relay").Logger(),
	}, nil
}

// Publish sends one event to the relay channel as JSON.
func (r *RedisRelay) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *RedisRelay) Close() error {
	return r.client.Close()
}
