package service

import (
	"context"
	"fmt"

	"github.com/chatbotx/gateway/internal/domain"
	"go.uber.org/zap"
)

// BookingService handles enrollment and scheduling intents behind the rule
// cascade. It is the external booking collaborator of the dispatch path.
type BookingService struct {
	courses CourseLister
	logger  *zap.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(courses CourseLister, logger *zap.Logger) *BookingService {
	return &BookingService{courses: courses, logger: logger}
}

// HandleBookingQuery answers a booking-intent message. A returning sender
// with prior context gets a continuation prompt instead of the full intro.
func (s *BookingService) HandleBookingQuery(ctx context.Context, message, senderID string, cc *domain.ConversationContext) (*domain.BotResponse, error) {
	text := "I'd be happy to help you enroll! To get started, tell me which course you're interested in, or browse the catalog below."
	if cc != nil && cc.MessageCount > 0 {
		text = "Let's continue with your enrollment. Which course would you like to register for?"
	}

	courses, err := s.courses.ListActive(3)
	if err != nil {
		return nil, fmt.Errorf("booking course lookup: %w", err)
	}

	resp, err := domain.NewBotResponse(domain.SourceBooking, text, 0.8)
	if err != nil {
		return nil, err
	}

	resp.QuickReplies = []domain.QuickReply{
		{Title: "Browse Courses", Payload: "/browse_courses"},
		{Title: "Check Schedule", Payload: "/schedule"},
	}
	for _, course := range courses {
		if len(resp.QuickReplies) >= 4 {
			break
		}
		resp.QuickReplies = append(resp.QuickReplies, domain.QuickReply{
			Title:   course.Title,
			Payload: "/enroll_" + course.Code,
		})
	}

	s.logger.Info("booking intent handled", zap.String("sender_id", senderID))
	return resp, nil
}
