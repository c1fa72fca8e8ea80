package realtime

import (
	"sync"
	"time"

	"github.com/chatbotx/gateway/internal/domain"
	"go.uber.org/zap"
)

// Transport is the write side of a realtime connection. The manager owns
// the transport exclusively once the connection is registered.
type Transport interface {
	WriteJSON(v any) error
	Close() error
}

type clientMeta struct {
	connectedAt  time.Time
	lastActivity time.Time
	status       string
}

// Stats is a point-in-time snapshot of the registry. It is not
// transactionally consistent with concurrent mutations.
type Stats struct {
	TotalConnections   int            `json:"total_connections"`
	TotalRooms         int            `json:"total_rooms"`
	ConnectionsPerRoom map[string]int `json:"connections_per_room"`
	ConnectedClients   []string       `json:"connected_clients"`
}

// Manager tracks live realtime connections, per-connection metadata and
// named rooms, and delivers frames to one, all, or a room of clients. Any
// delivery failure deregisters the failing connection; nothing is retried.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]Transport
	meta        map[string]*clientMeta
	rooms       map[string]map[string]bool
	logger      *zap.Logger
}

// NewManager creates an empty connection manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		connections: make(map[string]Transport),
		meta:        make(map[string]*clientMeta),
		rooms:       make(map[string]map[string]bool),
		logger:      logger,
	}
}

// Connect registers a connection under a client id. A duplicate id replaces
// the prior entry; the old transport is closed in the background. The new
// connection receives a welcome system message.
func (m *Manager) Connect(t Transport, clientID string) {
	now := time.Now()

	m.mu.Lock()
	if old, exists := m.connections[clientID]; exists {
		go old.Close()
	}
	m.connections[clientID] = t
	m.meta[clientID] = &clientMeta{
		connectedAt:  now,
		lastActivity: now,
		status:       "online",
	}
	total := len(m.connections)
	m.mu.Unlock()

	m.logger.Info("client connected",
		zap.String("client_id", clientID),
		zap.Int("total_connections", total))

	m.SendSystem(clientID, "Connected successfully! How can I help you today?", "info")
}

// Disconnect removes a connection, its metadata and its room memberships.
// Rooms left without members are deleted. Unknown ids are a no-op.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	t, exists := m.connections[clientID]
	delete(m.connections, clientID)
	delete(m.meta, clientID)
	for roomID, members := range m.rooms {
		delete(members, clientID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	total := len(m.connections)
	m.mu.Unlock()

	if !exists {
		return
	}
	t.Close()

	m.logger.Info("client disconnected",
		zap.String("client_id", clientID),
		zap.Int("total_connections", total))
}

// SendPersonal delivers a frame to one client. A transport failure is
// treated as a disconnect.
func (m *Manager) SendPersonal(clientID string, v any) error {
	m.mu.RLock()
	t, exists := m.connections[clientID]
	m.mu.RUnlock()

	if !exists {
		return domain.ErrNotConnected
	}

	if err := t.WriteJSON(v); err != nil {
		m.logger.Warn("send failed, dropping connection",
			zap.String("client_id", clientID), zap.Error(err))
		m.Disconnect(clientID)
		return err
	}

	m.TouchActivity(clientID)
	return nil
}

// Broadcast delivers a frame to every client except exclude. Failures are
// collected and those clients disconnected after the sweep, so one broken
// transport never blocks delivery to the rest.
func (m *Manager) Broadcast(v any, exclude string) {
	m.mu.RLock()
	targets := make(map[string]Transport, len(m.connections))
	for clientID, t := range m.connections {
		if clientID == exclude {
			continue
		}
		targets[clientID] = t
	}
	m.mu.RUnlock()

	var failed []string
	for clientID, t := range targets {
		if err := t.WriteJSON(v); err != nil {
			m.logger.Warn("broadcast delivery failed",
				zap.String("client_id", clientID), zap.Error(err))
			failed = append(failed, clientID)
		}
	}

	for _, clientID := range failed {
		m.Disconnect(clientID)
	}
}

// SendToRoom delivers a frame to every member of a room except exclude.
// An unknown room is a no-op.
func (m *Manager) SendToRoom(roomID string, v any, exclude string) {
	m.mu.RLock()
	members, exists := m.rooms[roomID]
	targets := make(map[string]Transport)
	if exists {
		for clientID := range members {
			if clientID == exclude {
				continue
			}
			if t, ok := m.connections[clientID]; ok {
				targets[clientID] = t
			}
		}
	}
	m.mu.RUnlock()

	if !exists {
		return
	}

	var failed []string
	for clientID, t := range targets {
		if err := t.WriteJSON(v); err != nil {
			m.logger.Warn("room delivery failed",
				zap.String("room_id", roomID),
				zap.String("client_id", clientID), zap.Error(err))
			failed = append(failed, clientID)
		}
	}

	for _, clientID := range failed {
		m.Disconnect(clientID)
	}
}

// JoinRoom adds a client to a room, creating the room on first join
func (m *Manager) JoinRoom(clientID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[string]bool)
	}
	if !m.rooms[roomID][clientID] {
		m.rooms[roomID][clientID] = true
		m.logger.Info("client joined room",
			zap.String("client_id", clientID), zap.String("room_id", roomID))
	}
}

// LeaveRoom removes a client from a room, deleting the room when the last
// member leaves
func (m *Manager) LeaveRoom(clientID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, exists := m.rooms[roomID]
	if !exists || !members[clientID] {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(m.rooms, roomID)
	}
	m.logger.Info("client left room",
		zap.String("client_id", clientID), zap.String("room_id", roomID))
}

// RoomMembers returns the member ids of a room
func (m *Manager) RoomMembers(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := make([]string, 0, len(m.rooms[roomID]))
	for clientID := range m.rooms[roomID] {
		members = append(members, clientID)
	}
	return members
}

// IsConnected reports whether a client has a live connection
func (m *Manager) IsConnected(clientID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.connections[clientID]
	return exists
}

// TouchActivity records activity for the idle sweep
func (m *Manager) TouchActivity(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if meta, exists := m.meta[clientID]; exists {
		meta.lastActivity = time.Now()
	}
}

// SendSystem sends a system frame to one client
func (m *Manager) SendSystem(clientID, message, messageType string) error {
	return m.SendPersonal(clientID, newSystemFrame(message, messageType))
}

// SendTyping sends a typing indicator to one client
func (m *Manager) SendTyping(clientID string, isTyping bool) error {
	return m.SendPersonal(clientID, newTypingFrame(isTyping))
}

// SendError sends an error frame to one client
func (m *Manager) SendError(clientID, message string) error {
	return m.SendPersonal(clientID, newErrorFrame(message))
}

// SendBotResponse sends a processed bot reply to one client
func (m *Manager) SendBotResponse(clientID string, resp *domain.BotResponse) error {
	return m.SendPersonal(clientID, newBotResponseFrame(resp))
}

// CleanupInactive disconnects every client idle for longer than timeout.
// Idle clients get a best-effort warning frame first. The connection set is
// snapshotted before acting so the sweep tolerates concurrent churn.
// Returns the number of disconnected clients.
func (m *Manager) CleanupInactive(timeout time.Duration) int {
	now := time.Now()

	m.mu.RLock()
	var idle []string
	for clientID, meta := range m.meta {
		if now.Sub(meta.lastActivity) > timeout {
			idle = append(idle, clientID)
		}
	}
	m.mu.RUnlock()

	for _, clientID := range idle {
		m.logger.Info("cleaning up inactive connection",
			zap.String("client_id", clientID))
		m.SendSystem(clientID, "Connection timed out due to inactivity", "warning")
		m.Disconnect(clientID)
	}

	return len(idle)
}

// Stats returns a snapshot of the registry
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	perRoom := make(map[string]int, len(m.rooms))
	for roomID, members := range m.rooms {
		perRoom[roomID] = len(members)
	}
	clients := make([]string, 0, len(m.connections))
	for clientID := range m.connections {
		clients = append(clients, clientID)
	}

	return Stats{
		TotalConnections:   len(m.connections),
		TotalRooms:         len(m.rooms),
		ConnectionsPerRoom: perRoom,
		ConnectedClients:   clients,
	}
}

// CloseAll disconnects every client, used during shutdown
func (m *Manager) CloseAll() {
	m.mu.RLock()
	clients := make([]string, 0, len(m.connections))
	for clientID := range m.connections {
		clients = append(clients, clientID)
	}
	m.mu.RUnlock()

	for _, clientID := range clients {
		m.Disconnect(clientID)
	}
}
