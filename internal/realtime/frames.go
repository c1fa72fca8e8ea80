package realtime

import (
	"time"

	"github.com/chatbotx/gateway/internal/domain"
)

// Outbound frame types on the realtime channel.
const (
	FrameSystem      = "system"
	FrameTyping      = "typing"
	FrameBotResponse = "bot_response"
	FrameError       = "error"
)

// InboundFrame is what clients send over the realtime channel.
type InboundFrame struct {
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SystemFrame carries connection lifecycle notices.
type SystemFrame struct {
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	MessageType string    `json:"message_type,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// TypingFrame signals that the bot is composing a reply.
type TypingFrame struct {
	Type      string    `json:"type"`
	IsTyping  bool      `json:"is_typing"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorFrame reports a per-message failure to the client.
type ErrorFrame struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// BotResponseFrame delivers a processed bot reply.
type BotResponseFrame struct {
	Type         string               `json:"type"`
	Text         string               `json:"text"`
	Buttons      []domain.Button      `json:"buttons,omitempty"`
	QuickReplies []domain.QuickReply  `json:"quick_replies,omitempty"`
	Suggestions  []string             `json:"suggestions,omitempty"`
	Metadata     *domain.ResponseMeta `json:"metadata,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

func newSystemFrame(message, messageType string) SystemFrame {
	return SystemFrame{
		Type:        FrameSystem,
		Message:     message,
		MessageType: messageType,
		Timestamp:   time.Now().UTC(),
	}
}

func newTypingFrame(isTyping bool) TypingFrame {
	return TypingFrame{
		Type:      FrameTyping,
		IsTyping:  isTyping,
		Timestamp: time.Now().UTC(),
	}
}

func newErrorFrame(message string) ErrorFrame {
	return ErrorFrame{
		Type:      FrameError,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func newBotResponseFrame(resp *domain.BotResponse) BotResponseFrame {
	return BotResponseFrame{
		Type:         FrameBotResponse,
		Text:         resp.Text,
		Buttons:      resp.Buttons,
		QuickReplies: resp.QuickReplies,
		Suggestions:  resp.Suggestions,
		Metadata:     resp.Metadata,
		Timestamp:    time.Now().UTC(),
	}
}
