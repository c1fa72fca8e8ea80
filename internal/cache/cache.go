package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/chatbotx/gateway/internal/domain"
)

// ContextCache stores short-lived per-sender conversation state. A missing
// or expired entry is reported as (nil, nil) so callers can start a fresh
// context without special-casing the first message.
type ContextCache interface {
	GetContext(ctx context.Context, senderID string) (*domain.ConversationContext, error)
	SetContext(ctx context.Context, senderID string, c *domain.ConversationContext, ttl time.Duration) error
	DeleteContext(ctx context.Context, senderID string) error
	Ping(ctx context.Context) error
	Close() error
}

func contextKey(senderID string) string {
	return fmt.Sprintf("context:%s", senderID)
}
