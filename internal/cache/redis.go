package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chatbotx/gateway/internal/config"
	"github.com/chatbotx/gateway/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache is the Redis-backed ContextCache used in deployments.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg config.RedisConfig, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client, logger: logger}, nil
}

// GetContext retrieves a conversation context, nil on miss
func (c *RedisCache) GetContext(ctx context.Context, senderID string) (*domain.ConversationContext, error) {
	data, err := c.client.Get(ctx, contextKey(senderID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cc domain.ConversationContext
	if err := json.Unmarshal([]byte(data), &cc); err != nil {
		c.logger.Warn("discarding malformed cached context",
			zap.String("sender_id", senderID), zap.Error(err))
		return nil, nil
	}
	return &cc, nil
}

// SetContext stores a conversation context with a TTL
func (c *RedisCache) SetContext(ctx context.Context, senderID string, cc *domain.ConversationContext, ttl time.Duration) error {
	data, err := json.Marshal(cc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, contextKey(senderID), data, ttl).Err()
}

// DeleteContext removes a conversation context
func (c *RedisCache) DeleteContext(ctx context.Context, senderID string) error {
	return c.client.Del(ctx, contextKey(senderID)).Err()
}

// Ping checks cache availability
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
