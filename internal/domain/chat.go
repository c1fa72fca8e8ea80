package domain

import "time"

// IncomingMessage is a normalized inbound chat message. It is never mutated
// after it has been received.
type IncomingMessage struct {
	Text     string         `json:"message"`
	SenderID string         `json:"sender_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChatRequest is the HTTP chat endpoint request body.
type ChatRequest struct {
	Message  string         `json:"message" binding:"required"`
	SenderID string         `json:"sender_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChatResponse is the HTTP chat endpoint response body.
type ChatResponse struct {
	Response    string           `json:"response"`
	SenderID    string           `json:"sender_id"`
	RecipientID string           `json:"recipient_id"`
	Timestamp   time.Time        `json:"timestamp"`
	Confidence  float64          `json:"confidence,omitempty"`
	Intent      string           `json:"intent,omitempty"`
	Entities    []map[string]any `json:"entities,omitempty"`
}

// MessageRecord is one processed exchange as persisted to storage.
type MessageRecord struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	UserMessage string          `json:"user_message"`
	BotResponse string          `json:"bot_response"`
	Intent      string          `json:"intent"`
	Confidence  float64         `json:"confidence"`
	Source      Source          `json:"source"`
	Timestamp   time.Time       `json:"timestamp"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	Sentiment   SentimentScores `json:"sentiment"`
	Language    string          `json:"language"`
}
