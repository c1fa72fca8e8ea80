package domain

import "time"

// Source identifies which strategy produced a bot response.
type Source string

const (
	SourceRasa        Source = "rasa"
	SourceGreeting    Source = "greeting"
	SourceFallback    Source = "fallback"
	SourceDefault     Source = "default"
	SourceFAQ         Source = "faq"
	SourceCourseQuery Source = "course_query"
	SourceBooking     Source = "booking"
	SourceError       Source = "error"
)

// Button is an actionable button attached to a response.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// QuickReply is a one-tap reply suggestion.
type QuickReply struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// SentimentScores combines a VADER-style vector with a polarity/subjectivity pair.
type SentimentScores struct {
	Compound     float64 `json:"compound"`
	Positive     float64 `json:"pos"`
	Neutral      float64 `json:"neu"`
	Negative     float64 `json:"neg"`
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// NeutralSentiment returns the zero-vector used when analysis is disabled or fails.
func NeutralSentiment() SentimentScores {
	return SentimentScores{Neutral: 1.0}
}

// ResponseMeta is the metadata block attached during enrichment.
type ResponseMeta struct {
	Timestamp time.Time       `json:"timestamp"`
	Language  string          `json:"language"`
	Sentiment SentimentScores `json:"sentiment"`
	UserID    string          `json:"user_id"`
}

// BotResponse is the reply delivered to a client, tagged by its source.
type BotResponse struct {
	Text                string         `json:"text"`
	Buttons             []Button       `json:"buttons,omitempty"`
	QuickReplies        []QuickReply   `json:"quick_replies,omitempty"`
	Custom              map[string]any `json:"custom,omitempty"`
	Source              Source         `json:"source"`
	Confidence          float64        `json:"confidence"`
	Intent              string         `json:"intent,omitempty"`
	Metadata            *ResponseMeta  `json:"metadata,omitempty"`
	Suggestions         []string       `json:"suggestions,omitempty"`
	EscalationSuggested bool           `json:"escalation_suggested,omitempty"`
}

// NewBotResponse builds a validated response. Confidence is clamped to [0, 1]
// and every source except "error" must carry text.
func NewBotResponse(source Source, text string, confidence float64) (*BotResponse, error) {
	if source != SourceError && text == "" {
		return nil, ErrEmptyResponse
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return &BotResponse{
		Text:       text,
		Source:     source,
		Confidence: confidence,
	}, nil
}
