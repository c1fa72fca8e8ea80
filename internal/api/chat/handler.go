package chat

import (
	"net/http"
	"time"

	"github.com/chatbotx/gateway/internal/domain"
	"github.com/chatbotx/gateway/internal/service"
	"github.com/gin-gonic/gin"
)

// Handler handles the HTTP chat API
type Handler struct {
	chatService *service.ChatService
}

// NewHandler creates a new chat handler
func NewHandler(chatService *service.ChatService) *Handler {
	return &Handler{chatService: chatService}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/message", h.SendMessage)
	r.GET("/history/:sender_id", h.GetHistory)
	r.DELETE("/history/:sender_id", h.ClearHistory)
}

// SendMessage processes one chat message and returns the bot reply
func (h *Handler) SendMessage(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := &domain.IncomingMessage{
		Text:     req.Message,
		SenderID: req.SenderID,
		Metadata: req.Metadata,
	}
	resp, senderID := h.chatService.ProcessMessage(c.Request.Context(), msg)

	c.JSON(http.StatusOK, domain.ChatResponse{
		Response:    resp.Text,
		SenderID:    senderID,
		RecipientID: "chatbot",
		Timestamp:   time.Now().UTC(),
		Confidence:  resp.Confidence,
		Intent:      resp.Intent,
	})
}

// GetHistory returns recent exchanges for a sender
func (h *Handler) GetHistory(c *gin.Context) {
	senderID := c.Param("sender_id")

	history, err := h.chatService.History(senderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sender_id": senderID,
		"history":   history,
	})
}

// ClearHistory deletes all exchanges for a sender
func (h *Handler) ClearHistory(c *gin.Context) {
	senderID := c.Param("sender_id")

	if err := h.chatService.ClearHistory(c.Request.Context(), senderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chat history cleared for " + senderID})
}
