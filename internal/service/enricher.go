package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/chatbotx/gateway/internal/domain"
)

const (
	maxQuickReplies = 4
	maxSuggestions  = 3

	escalationOffer = "\n\nI understand this might be frustrating. Would you like me to connect you with a human agent?"
)

var (
	courseSuggestions = []string{
		"Browse our complete course catalog",
		"Check course prerequisites",
		"View course schedules",
	}
	priceSuggestions = []string{
		"View payment plans",
		"Check for discounts",
		"Compare course prices",
	}
)

// Enricher augments a base response with metadata, personalization,
// quick-reply defaults, free-text suggestions and an escalation flag.
type Enricher struct{}

// NewEnricher creates an enricher
func NewEnricher() *Enricher {
	return &Enricher{}
}

// Enrich produces the final response from a base response plus the analysis
// of the original user message. The base response is not mutated.
func (e *Enricher) Enrich(
	base *domain.BotResponse,
	userMessage string,
	senderID string,
	language string,
	sentiment domain.SentimentScores,
	cc *domain.ConversationContext,
) *domain.BotResponse {
	enriched := *base

	enriched.Metadata = &domain.ResponseMeta{
		Timestamp: time.Now().UTC(),
		Language:  language,
		Sentiment: sentiment,
		UserID:    senderID,
	}

	if cc != nil && cc.UserName != "" {
		enriched.Text = fmt.Sprintf("Hi %s, %s", cc.UserName, enriched.Text)
	}

	if len(enriched.QuickReplies) == 0 {
		enriched.QuickReplies = defaultQuickReplies(enriched.Text)
	}

	// Suggestions are always derived from the user's own words, never from
	// the response content.
	enriched.Suggestions = suggestionsFor(userMessage)

	if sentiment.Compound < -0.5 {
		enriched.Text += escalationOffer
		enriched.EscalationSuggested = true
	}

	return &enriched
}

func defaultQuickReplies(responseText string) []domain.QuickReply {
	quickReplies := []domain.QuickReply{
		{Title: "Help", Payload: "/help"},
		{Title: "More Info", Payload: "/more_info"},
	}

	lower := strings.ToLower(responseText)
	if strings.Contains(lower, "course") {
		quickReplies = append(quickReplies, domain.QuickReply{Title: "Enroll", Payload: "/enroll"})
	}
	if strings.Contains(lower, "price") || strings.Contains(lower, "cost") {
		quickReplies = append(quickReplies, domain.QuickReply{Title: "Payment Options", Payload: "/payment"})
	}

	if len(quickReplies) > maxQuickReplies {
		quickReplies = quickReplies[:maxQuickReplies]
	}
	return quickReplies
}

func suggestionsFor(userMessage string) []string {
	lower := strings.ToLower(userMessage)

	var suggestions []string
	if strings.Contains(lower, "course") {
		suggestions = append(suggestions, courseSuggestions...)
	}
	if strings.Contains(lower, "price") || strings.Contains(lower, "cost") || strings.Contains(lower, "pricing") {
		suggestions = append(suggestions, priceSuggestions...)
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}
