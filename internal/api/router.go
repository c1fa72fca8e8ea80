package api

import (
	"net/http"
	"time"

	"github.com/chatbotx/gateway/internal/api/chat"
	"github.com/chatbotx/gateway/internal/api/middleware"
	"github.com/chatbotx/gateway/internal/api/ws"
	"github.com/gin-gonic/gin"
)

// Readiness reports the health of the gateway's collaborators.
type Readiness interface {
	BackendReady() bool
	StorageReady() bool
	CacheReady() bool
}

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	chatHandler *chat.Handler,
	wsHandler *ws.Handler,
	readiness Readiness,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check with per-collaborator readiness
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"services": gin.H{
				"backend": readiness.BackendReady(),
				"storage": readiness.StorageReady(),
				"cache":   readiness.CacheReady(),
			},
		})
	})

	// Chat API
	chatGroup := r.Group("/api/v1/chat")
	chatHandler.RegisterRoutes(chatGroup)

	// Realtime channel
	r.GET("/ws/:client_id", wsHandler.Serve)
	r.GET("/api/v1/ws/stats", wsHandler.Stats)

	return r
}
