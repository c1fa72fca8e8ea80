package service

import (
	"context"
	"strings"
	"time"

	"github.com/chatbotx/gateway/internal/cache"
	"github.com/chatbotx/gateway/internal/config"
	"github.com/chatbotx/gateway/internal/domain"
	"github.com/chatbotx/gateway/internal/nlp"
	"github.com/chatbotx/gateway/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatService runs the per-message processing pipeline: context lookup,
// dispatch, enrichment, context update and conversation logging.
type ChatService struct {
	cfg        *config.Config
	dispatcher *Dispatcher
	enricher   *Enricher
	language   *nlp.LanguageDetector
	sentiment  *nlp.SentimentAnalyzer
	contexts   cache.ContextCache
	messages   *repository.MessageRepository
	logger     *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	cfg *config.Config,
	dispatcher *Dispatcher,
	enricher *Enricher,
	language *nlp.LanguageDetector,
	sentiment *nlp.SentimentAnalyzer,
	contexts cache.ContextCache,
	messages *repository.MessageRepository,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		cfg:        cfg,
		dispatcher: dispatcher,
		enricher:   enricher,
		language:   language,
		sentiment:  sentiment,
		contexts:   contexts,
		messages:   messages,
		logger:     logger,
	}
}

// ProcessMessage handles one inbound message end to end and returns exactly
// one response plus the resolved sender id. It never returns an error: any
// processing fault collapses to an error-source response, and cache or
// logging faults are logged and swallowed so delivery is never blocked.
func (s *ChatService) ProcessMessage(ctx context.Context, msg *domain.IncomingMessage) (*domain.BotResponse, string) {
	senderID := msg.SenderID
	if senderID == "" {
		senderID = uuid.New().String()
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return errorResponse("Empty message received"), senderID
	}

	language := s.language.Detect(text)
	sentiment := s.sentiment.Analyze(text)

	cc, err := s.contexts.GetContext(ctx, senderID)
	if err != nil {
		s.logger.Warn("context lookup failed",
			zap.String("sender_id", senderID), zap.Error(err))
		cc = nil
	}

	resp := s.dispatcher.Dispatch(ctx, text, senderID, msg.Metadata, cc)
	enriched := s.enricher.Enrich(resp, text, senderID, language, sentiment, cc)

	s.updateContext(ctx, senderID, text, enriched, cc)
	s.logConversation(senderID, text, enriched, msg.Metadata, sentiment, language)

	return enriched, senderID
}

// History returns the most recent exchanges for a sender
func (s *ChatService) History(senderID string) ([]*domain.MessageRecord, error) {
	return s.messages.History(senderID, s.cfg.Chat.HistoryLimit)
}

// ClearHistory deletes all exchanges and cached context for a sender
func (s *ChatService) ClearHistory(ctx context.Context, senderID string) error {
	if err := s.contexts.DeleteContext(ctx, senderID); err != nil {
		s.logger.Warn("context delete failed",
			zap.String("sender_id", senderID), zap.Error(err))
	}
	return s.messages.ClearHistory(senderID)
}

// Ready reports whether the NLU backend is reachable
func (s *ChatService) Ready() bool {
	return s.dispatcher.Ready()
}

func (s *ChatService) updateContext(ctx context.Context, senderID, message string, resp *domain.BotResponse, prior *domain.ConversationContext) {
	next := domain.ConversationContext{}
	if prior != nil {
		next = *prior
	}

	intent := resp.Intent
	if intent == "" {
		intent = "unknown"
	}

	next.LastMessage = message
	next.LastResponse = resp.Text
	next.LastIntent = intent
	next.MessageCount++
	next.LastUpdated = time.Now().UTC()

	if err := s.contexts.SetContext(ctx, senderID, &next, s.cfg.Chat.ContextTTL); err != nil {
		s.logger.Warn("context update failed",
			zap.String("sender_id", senderID), zap.Error(err))
	}
}

func (s *ChatService) logConversation(senderID, message string, resp *domain.BotResponse, metadata map[string]any, sentiment domain.SentimentScores, language string) {
	intent := resp.Intent
	if intent == "" {
		intent = "unknown"
	}

	record := &domain.MessageRecord{
		UserID:      senderID,
		UserMessage: message,
		BotResponse: resp.Text,
		Intent:      intent,
		Confidence:  resp.Confidence,
		Source:      resp.Source,
		Timestamp:   time.Now().UTC(),
		Metadata:    metadata,
		Sentiment:   sentiment,
		Language:    language,
	}

	if err := s.messages.Insert(record); err != nil {
		s.logger.Error("conversation logging failed",
			zap.String("sender_id", senderID), zap.Error(err))
	}
}
