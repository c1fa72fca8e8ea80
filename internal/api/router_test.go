package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chatbotx/gateway/internal/api/chat"
	"github.com/chatbotx/gateway/internal/api/ws"
	"github.com/chatbotx/gateway/internal/cache"
	"github.com/chatbotx/gateway/internal/config"
	"github.com/chatbotx/gateway/internal/nlp"
	"github.com/chatbotx/gateway/internal/nlu"
	"github.com/chatbotx/gateway/internal/realtime"
	"github.com/chatbotx/gateway/internal/repository"
	"github.com/chatbotx/gateway/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubReadiness struct {
	backend, storage, cacheOK bool
}

func (s stubReadiness) BackendReady() bool { return s.backend }
func (s stubReadiness) StorageReady() bool { return s.storage }
func (s stubReadiness) CacheReady() bool   { return s.cacheOK }

// newTestRouter wires a full gateway against a temp database and an in-memory
// context cache. The NLU backend URL points nowhere and the dispatcher is
// never initialized, so every reply comes from the rule cascade.
func newTestRouter(t *testing.T) (*gin.Engine, *realtime.Manager) {
	t.Helper()

	logger := zap.NewNop()
	cfg := &config.Config{
		Features: config.FeaturesConfig{DefaultLanguage: "en"},
		Chat: config.ChatConfig{
			ContextTTL:   time.Minute,
			HistoryLimit: 50,
		},
	}

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	courses := repository.NewCourseRepository(db)
	faqs := repository.NewFAQRepository(db)
	messages := repository.NewMessageRepository(db)
	contexts := cache.NewMemoryCache()

	backend := nlu.NewClient(config.NLUConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	})
	booking := service.NewBookingService(courses, logger)
	dispatcher := service.NewDispatcher(backend, booking, courses, faqs, 0, logger)

	chatService := service.NewChatService(
		cfg,
		dispatcher,
		service.NewEnricher(),
		nlp.NewLanguageDetector(cfg.Features),
		nlp.NewSentimentAnalyzer(cfg.Features),
		contexts,
		messages,
		logger,
	)

	manager := realtime.NewManager(logger)
	t.Cleanup(manager.CloseAll)

	router := SetupRouter(
		chat.NewHandler(chatService),
		ws.NewHandler(chatService, manager, logger),
		stubReadiness{backend: false, storage: true, cacheOK: true},
		RouterConfig{AllowOrigins: []string{"*"}},
	)
	return router, manager
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string          `json:"status"`
		Services map[string]bool `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.False(t, body.Services["backend"])
	assert.True(t, body.Services["storage"])
	assert.True(t, body.Services["cache"])
}

func TestChatMessageEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	payload, _ := json.Marshal(map[string]any{
		"message":   "hello",
		"sender_id": "u1",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Response    string  `json:"response"`
		SenderID    string  `json:"sender_id"`
		RecipientID string  `json:"recipient_id"`
		Confidence  float64 `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Response)
	assert.Equal(t, "u1", body.SenderID)
	assert.Equal(t, "chatbot", body.RecipientID)
	assert.Equal(t, 1.0, body.Confidence)
}

func TestChatMessageRejectsBadPayload(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHistoryRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	payload, _ := json.Marshal(map[string]any{"message": "hello", "sender_id": "u1"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chat/history/u1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SenderID string           `json:"sender_id"`
		History  []map[string]any `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.SenderID)
	require.Len(t, body.History, 1)
	assert.Equal(t, "hello", body.History[0]["user_message"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/chat/history/u1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chat/history/u1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.History)
}

func dialWS(t *testing.T, srv *httptest.Server, clientID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + clientID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketConversation(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialWS(t, srv, "client1")

	welcome := readFrame(t, conn)
	assert.Equal(t, realtime.FrameSystem, welcome["type"])
	assert.Contains(t, welcome["message"], "Connected successfully")

	require.NoError(t, conn.WriteJSON(map[string]any{"message": "hello"}))

	typingOn := readFrame(t, conn)
	assert.Equal(t, realtime.FrameTyping, typingOn["type"])
	assert.Equal(t, true, typingOn["is_typing"])

	typingOff := readFrame(t, conn)
	assert.Equal(t, realtime.FrameTyping, typingOff["type"])
	assert.Equal(t, false, typingOff["is_typing"])

	reply := readFrame(t, conn)
	assert.Equal(t, realtime.FrameBotResponse, reply["type"])
	assert.NotEmpty(t, reply["text"])
}

func TestWebSocketRejectsMalformedFrame(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialWS(t, srv, "client1")
	readFrame(t, conn) // welcome

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	frame := readFrame(t, conn)
	assert.Equal(t, realtime.FrameError, frame["type"])
	assert.Equal(t, "Invalid message format", frame["message"])

	// The connection survives a bad frame
	require.NoError(t, conn.WriteJSON(map[string]any{"message": "hello"}))
	frame = readFrame(t, conn)
	assert.Equal(t, realtime.FrameTyping, frame["type"])
}

func TestWebSocketRejectsEmptyMessage(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialWS(t, srv, "client1")
	readFrame(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(map[string]any{"message": ""}))

	frame := readFrame(t, conn)
	assert.Equal(t, realtime.FrameError, frame["type"])
	assert.Equal(t, "Message text is required", frame["message"])
}

func TestWebSocketStatsEndpoint(t *testing.T) {
	router, manager := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialWS(t, srv, "client1")
	readFrame(t, conn) // welcome
	manager.JoinRoom("client1", "support")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ws/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats realtime.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalConnections)
	assert.Equal(t, 1, stats.TotalRooms)
	assert.Equal(t, 1, stats.ConnectionsPerRoom["support"])
	assert.Contains(t, stats.ConnectedClients, "client1")
}
