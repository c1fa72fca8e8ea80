package ws

import (
	"encoding/json"
	"net/http"

	"github.com/chatbotx/gateway/internal/domain"
	"github.com/chatbotx/gateway/internal/realtime"
	"github.com/chatbotx/gateway/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades realtime connections and runs their read loops.
type Handler struct {
	chatService *service.ChatService
	manager     *realtime.Manager
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewHandler creates a new realtime handler
func NewHandler(chatService *service.ChatService, manager *realtime.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		chatService: chatService,
		manager:     manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve upgrades the request and processes inbound frames until the client
// disconnects. Frames are handled one at a time so per-connection message
// order is preserved.
func (h *Handler) Serve(c *gin.Context) {
	clientID := c.Param("client_id")

	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("client_id", clientID), zap.Error(err))
		return
	}

	conn := realtime.NewConn(wsConn)
	h.manager.Connect(conn, clientID)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed",
					zap.String("client_id", clientID), zap.Error(err))
			}
			h.manager.Disconnect(clientID)
			return
		}

		h.manager.TouchActivity(clientID)

		var frame realtime.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.manager.SendError(clientID, "Invalid message format")
			continue
		}
		h.handleFrame(c, clientID, &frame)
	}
}

func (h *Handler) handleFrame(c *gin.Context, clientID string, frame *realtime.InboundFrame) {
	if frame.Message == "" {
		h.manager.SendError(clientID, "Message text is required")
		return
	}

	h.manager.SendTyping(clientID, true)

	msg := &domain.IncomingMessage{
		Text:     frame.Message,
		SenderID: clientID,
		Metadata: frame.Metadata,
	}
	resp, _ := h.chatService.ProcessMessage(c.Request.Context(), msg)

	h.manager.SendTyping(clientID, false)

	// The client may have vanished while we were processing; a failed send
	// already deregistered it, so the reply is simply dropped.
	h.manager.SendBotResponse(clientID, resp)
}

// Stats returns a snapshot of the connection registry
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Stats())
}
