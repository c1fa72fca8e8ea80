package cache

import (
	"context"
	"sync"
	"time"

	"github.com/chatbotx/gateway/internal/domain"
)

type memoryEntry struct {
	ctx      domain.ConversationContext
	deadline time.Time
}

// MemoryCache is an in-process ContextCache used when Redis is not
// configured, and in tests. Entries expire lazily on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// GetContext retrieves a conversation context, nil on miss or expiry
func (c *MemoryCache) GetContext(_ context.Context, senderID string) (*domain.ConversationContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[contextKey(senderID)]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.deadline) {
		delete(c.entries, contextKey(senderID))
		return nil, nil
	}

	cc := entry.ctx
	return &cc, nil
}

// SetContext stores a conversation context with a TTL
func (c *MemoryCache) SetContext(_ context.Context, senderID string, cc *domain.ConversationContext, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[contextKey(senderID)] = memoryEntry{
		ctx:      *cc,
		deadline: time.Now().Add(ttl),
	}
	return nil
}

// DeleteContext removes a conversation context
func (c *MemoryCache) DeleteContext(_ context.Context, senderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, contextKey(senderID))
	return nil
}

// Ping always succeeds for the in-memory cache
func (c *MemoryCache) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op
func (c *MemoryCache) Close() error {
	return nil
}
