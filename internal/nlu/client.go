package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chatbotx/gateway/internal/config"
	"github.com/chatbotx/gateway/internal/domain"
)

// Fragment is one piece of a backend reply. A single message may produce
// several fragments which the dispatcher merges into one response.
type Fragment struct {
	Text         string              `json:"text,omitempty"`
	Buttons      []domain.Button     `json:"buttons,omitempty"`
	QuickReplies []domain.QuickReply `json:"quick_replies,omitempty"`
	Custom       map[string]any      `json:"custom,omitempty"`
}

type messageRequest struct {
	Sender   string         `json:"sender"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata"`
}

// Client talks to the NLU backend over its REST webhook protocol.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the configured request timeout
func NewClient(cfg config.NLUConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Health probes the backend status endpoint
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// SendMessage posts a message to the backend webhook and decodes the
// fragment list it replies with.
func (c *Client) SendMessage(ctx context.Context, sender, message string, metadata map[string]any) ([]Fragment, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	body, err := json.Marshal(messageRequest{
		Sender:   sender,
		Message:  message,
		Metadata: metadata,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/webhooks/rest/webhook", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend error: status %d", resp.StatusCode)
	}

	var fragments []Fragment
	if err := json.NewDecoder(resp.Body).Decode(&fragments); err != nil {
		return nil, fmt.Errorf("failed to decode backend response: %w", err)
	}
	return fragments, nil
}
