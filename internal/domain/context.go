package domain

import "time"

// ConversationContext is the short-lived per-sender state kept in the cache.
// MessageCount only ever grows: every processed message reads the current
// context, derives a new one, and overwrites it.
type ConversationContext struct {
	UserName     string    `json:"user_name,omitempty"`
	LastMessage  string    `json:"last_message"`
	LastResponse string    `json:"last_response"`
	LastIntent   string    `json:"last_intent"`
	MessageCount int       `json:"message_count"`
	LastUpdated  time.Time `json:"last_updated"`
}
