package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chatbotx/gateway/internal/domain"
	"github.com/chatbotx/gateway/internal/nlu"
	"go.uber.org/zap"
)

// NLUBackend is the request/response protocol to the NLU service.
type NLUBackend interface {
	Health(ctx context.Context) error
	SendMessage(ctx context.Context, sender, message string, metadata map[string]any) ([]nlu.Fragment, error)
}

// CourseLister provides the bounded course lookup used by the rule cascade.
type CourseLister interface {
	ListActive(limit int) ([]*domain.Course, error)
}

// FAQSearcher provides the FAQ lookup used by the rule cascade.
type FAQSearcher interface {
	Search(query string) (*domain.FAQ, error)
}

// Keyword buckets for the degraded-mode rule cascade. Rules are evaluated
// in a fixed order and the first match wins.
var (
	greetingKeywords = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}
	bookingKeywords  = []string{"book", "reserve", "enroll", "register", "schedule", "appointment"}
	courseKeywords   = []string{"course", "class", "program", "training", "learn", "study"}
)

// Dispatcher routes a message to the NLU backend, or to a deterministic
// rule cascade when the backend is unavailable. Dispatch never returns an
// error: every failure collapses to an error-source response.
type Dispatcher struct {
	backend NLUBackend
	booking *BookingService
	courses CourseLister
	faqs    FAQSearcher
	logger  *zap.Logger

	ready           atomic.Bool
	reprobeInterval time.Duration
}

// NewDispatcher creates a dispatcher in degraded mode; call Initialize to
// probe the backend.
func NewDispatcher(
	backend NLUBackend,
	booking *BookingService,
	courses CourseLister,
	faqs FAQSearcher,
	reprobeInterval time.Duration,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		backend:         backend,
		booking:         booking,
		courses:         courses,
		faqs:            faqs,
		reprobeInterval: reprobeInterval,
		logger:          logger,
	}
}

// Initialize probes the NLU backend once. A failed probe does not abort
// startup: the dispatcher stays in degraded mode and answers from the rule
// cascade. When a re-probe interval is configured, health is re-checked on
// that interval for the life of ctx.
func (d *Dispatcher) Initialize(ctx context.Context) {
	d.probe(ctx)

	if d.reprobeInterval > 0 {
		go d.reprobeLoop(ctx)
	}
}

func (d *Dispatcher) probe(ctx context.Context) {
	if err := d.backend.Health(ctx); err != nil {
		d.logger.Warn("NLU backend not available, using rule-based fallback", zap.Error(err))
		d.ready.Store(false)
		return
	}
	d.logger.Info("NLU backend is healthy")
	d.ready.Store(true)
}

func (d *Dispatcher) reprobeLoop(ctx context.Context) {
	ticker := time.NewTicker(d.reprobeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Ready reports whether the dispatcher is talking to the NLU backend
func (d *Dispatcher) Ready() bool {
	return d.ready.Load()
}

// Dispatch produces exactly one response for a message. Errors from the
// backend or the cascade are converted to an apologetic error response and
// never propagated.
func (d *Dispatcher) Dispatch(ctx context.Context, message, senderID string, metadata map[string]any, cc *domain.ConversationContext) *domain.BotResponse {
	var resp *domain.BotResponse
	var err error

	if d.ready.Load() {
		resp, err = d.sendToBackend(ctx, message, senderID, metadata)
	} else {
		resp, err = d.runCascade(ctx, message, senderID, cc)
	}

	if err != nil {
		d.logger.Error("dispatch failed", zap.String("sender_id", senderID), zap.Error(err))
		return errorResponse("I apologize, but I'm experiencing technical difficulties. Please try again.")
	}
	return resp
}

func (d *Dispatcher) sendToBackend(ctx context.Context, message, senderID string, metadata map[string]any) (*domain.BotResponse, error) {
	fragments, err := d.backend.SendMessage(ctx, senderID, message, metadata)
	if err != nil {
		d.logger.Error("NLU backend call failed", zap.Error(err))
		return fallbackResponse(), nil
	}
	if len(fragments) == 0 {
		return fallbackResponse(), nil
	}

	// Merge all fragments into a single response: text is space-joined,
	// structured fields are unioned.
	var texts []string
	var buttons []domain.Button
	var quickReplies []domain.QuickReply
	custom := map[string]any{}
	for _, frag := range fragments {
		if frag.Text != "" {
			texts = append(texts, frag.Text)
		}
		buttons = append(buttons, frag.Buttons...)
		quickReplies = append(quickReplies, frag.QuickReplies...)
		for k, v := range frag.Custom {
			custom[k] = v
		}
	}

	combined := strings.TrimSpace(strings.Join(texts, " "))
	if combined == "" {
		return fallbackResponse(), nil
	}

	resp, err := domain.NewBotResponse(domain.SourceRasa, combined, 0.8)
	if err != nil {
		return nil, err
	}
	resp.Buttons = buttons
	resp.QuickReplies = quickReplies
	if len(custom) > 0 {
		resp.Custom = custom
	}
	return resp, nil
}

// runCascade evaluates the fixed-priority rules: greeting, FAQ, booking,
// course query, default. It short-circuits at the first match.
func (d *Dispatcher) runCascade(ctx context.Context, message, senderID string, cc *domain.ConversationContext) (*domain.BotResponse, error) {
	lower := strings.ToLower(message)

	if matchesAny(lower, greetingKeywords) {
		return greetingResponse()
	}

	if faq, err := d.faqs.Search(message); err != nil {
		return nil, fmt.Errorf("faq search: %w", err)
	} else if faq != nil {
		resp, err := domain.NewBotResponse(domain.SourceFAQ, faq.Answer, 0.85)
		if err != nil {
			return nil, err
		}
		if resp.Custom == nil {
			resp.Custom = map[string]any{}
		}
		resp.Custom["faq_id"] = faq.ID
		return resp, nil
	}

	if matchesAny(lower, bookingKeywords) {
		return d.booking.HandleBookingQuery(ctx, message, senderID, cc)
	}

	if matchesAny(lower, courseKeywords) {
		return d.handleCourseQuery()
	}

	return defaultResponse()
}

func (d *Dispatcher) handleCourseQuery() (*domain.BotResponse, error) {
	courses, err := d.courses.ListActive(5)
	if err != nil {
		return nil, fmt.Errorf("course lookup: %w", err)
	}

	if len(courses) == 0 {
		return domain.NewBotResponse(domain.SourceCourseQuery,
			"We have many exciting courses available! Please visit our website or contact us directly for the most up-to-date course information.",
			0.7)
	}

	var b strings.Builder
	b.WriteString("Here are our available courses:\n\n")
	for _, course := range courses {
		fmt.Fprintf(&b, "📚 **%s** (%s)\n", course.Title, course.Code)
		fmt.Fprintf(&b, "   Duration: %s\n", course.Duration)
		fmt.Fprintf(&b, "   Price: $%.2f\n", course.Price)
		fmt.Fprintf(&b, "   Level: %s\n\n", titleCase(course.Level))
	}

	resp, err := domain.NewBotResponse(domain.SourceCourseQuery, b.String(), 0.9)
	if err != nil {
		return nil, err
	}
	resp.QuickReplies = []domain.QuickReply{
		{Title: "Enroll Now", Payload: "/enroll"},
		{Title: "More Details", Payload: "/course_details"},
		{Title: "Schedule", Payload: "/schedule"},
	}
	return resp, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func greetingResponse() (*domain.BotResponse, error) {
	resp, err := domain.NewBotResponse(domain.SourceGreeting,
		"Hello! Welcome to our Education Support Assistant. I'm here to help you with course information, enrollments, and answer any questions you might have. How can I assist you today?",
		1.0)
	if err != nil {
		return nil, err
	}
	resp.QuickReplies = []domain.QuickReply{
		{Title: "Browse Courses", Payload: "/browse_courses"},
		{Title: "Enrollment Help", Payload: "/enrollment_help"},
		{Title: "FAQ", Payload: "/faq"},
		{Title: "Contact Support", Payload: "/contact_support"},
	}
	return resp, nil
}

func fallbackResponse() *domain.BotResponse {
	resp, _ := domain.NewBotResponse(domain.SourceFallback,
		"I'm sorry, I didn't quite understand that. Could you please rephrase your question or choose from the options below?",
		0.3)
	resp.QuickReplies = []domain.QuickReply{
		{Title: "Course Information", Payload: "/courses"},
		{Title: "Enrollment", Payload: "/enrollment"},
		{Title: "FAQ", Payload: "/faq"},
		{Title: "Human Agent", Payload: "/human_agent"},
	}
	return resp
}

func defaultResponse() (*domain.BotResponse, error) {
	resp, err := domain.NewBotResponse(domain.SourceDefault,
		"I'm here to help! You can ask me about courses, enrollment, schedules, fees, or any other questions related to our educational programs.",
		0.5)
	if err != nil {
		return nil, err
	}
	resp.QuickReplies = []domain.QuickReply{
		{Title: "Course Catalog", Payload: "/courses"},
		{Title: "Enrollment Process", Payload: "/enrollment"},
		{Title: "Pricing", Payload: "/pricing"},
		{Title: "Support", Payload: "/support"},
	}
	return resp, nil
}

func errorResponse(text string) *domain.BotResponse {
	return &domain.BotResponse{
		Text:       text,
		Source:     domain.SourceError,
		Confidence: 0.0,
	}
}
