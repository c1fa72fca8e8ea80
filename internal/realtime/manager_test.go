package realtime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chatbotx/gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTransport struct {
	mu         sync.Mutex
	frames     []any
	failWrites bool
	closed     bool
}

func (t *fakeTransport) WriteJSON(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failWrites {
		return errors.New("broken pipe")
	}
	t.frames = append(t.frames, v)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) frameCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

func (t *fakeTransport) lastFrame() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func newTestManager() *Manager {
	return NewManager(zap.NewNop())
}

func TestConnectSendsWelcomeMessage(t *testing.T) {
	m := newTestManager()
	tr := &fakeTransport{}

	m.Connect(tr, "client-1")

	require.Equal(t, 1, tr.frameCount())
	frame, ok := tr.frames[0].(SystemFrame)
	require.True(t, ok)
	assert.Equal(t, FrameSystem, frame.Type)
	assert.Contains(t, frame.Message, "Connected successfully")
}

func TestConnectThenDisconnectRestoresState(t *testing.T) {
	m := newTestManager()

	before := m.Stats()
	m.Connect(&fakeTransport{}, "client-1")
	m.JoinRoom("client-1", "room-a")
	m.Disconnect("client-1")
	after := m.Stats()

	assert.Equal(t, before.TotalConnections, after.TotalConnections)
	assert.Equal(t, before.TotalRooms, after.TotalRooms)
	assert.False(t, m.IsConnected("client-1"))
}

func TestConnectDuplicateReplacesAndClosesOld(t *testing.T) {
	m := newTestManager()
	old := &fakeTransport{}
	replacement := &fakeTransport{}

	m.Connect(old, "client-1")
	m.Connect(replacement, "client-1")

	assert.Equal(t, 1, m.Stats().TotalConnections)

	// Old transport is closed in the background
	require.Eventually(t, old.isClosed, time.Second, 10*time.Millisecond)

	// Delivery lands on the replacement only
	prev := old.frameCount()
	require.NoError(t, m.SendSystem("client-1", "ping", "info"))
	assert.Equal(t, prev, old.frameCount())
	assert.Greater(t, replacement.frameCount(), 1)
}

func TestDisconnectUnknownClientIsNoop(t *testing.T) {
	m := newTestManager()
	m.Disconnect("ghost")
	assert.Equal(t, 0, m.Stats().TotalConnections)
}

func TestSendPersonalFailureDisconnects(t *testing.T) {
	m := newTestManager()
	tr := &fakeTransport{}
	m.Connect(tr, "client-1")

	tr.mu.Lock()
	tr.failWrites = true
	tr.mu.Unlock()

	err := m.SendPersonal("client-1", newSystemFrame("hello", "info"))
	require.Error(t, err)
	assert.False(t, m.IsConnected("client-1"))
	assert.True(t, tr.isClosed())
}

func TestSendPersonalUnknownClient(t *testing.T) {
	m := newTestManager()
	err := m.SendPersonal("ghost", newSystemFrame("hello", "info"))
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestBroadcastSkipsExcludedAndSurvivesFailures(t *testing.T) {
	m := newTestManager()
	good := &fakeTransport{}
	bad := &fakeTransport{}
	excluded := &fakeTransport{}

	m.Connect(good, "good")
	m.Connect(bad, "bad")
	m.Connect(excluded, "excluded")

	bad.mu.Lock()
	bad.failWrites = true
	bad.mu.Unlock()

	goodBefore := good.frameCount()
	excludedBefore := excluded.frameCount()

	m.Broadcast(newSystemFrame("announcement", "info"), "excluded")

	// Delivery to the healthy client is unaffected by the broken one
	assert.Equal(t, goodBefore+1, good.frameCount())
	assert.Equal(t, excludedBefore, excluded.frameCount())

	// The broken client is deregistered after the sweep
	assert.False(t, m.IsConnected("bad"))
	assert.True(t, m.IsConnected("good"))
	assert.True(t, m.IsConnected("excluded"))
}

func TestSendToRoomDeliversToMembersOnly(t *testing.T) {
	m := newTestManager()
	a := &fakeTransport{}
	b := &fakeTransport{}
	outsider := &fakeTransport{}

	m.Connect(a, "a")
	m.Connect(b, "b")
	m.Connect(outsider, "outsider")
	m.JoinRoom("a", "room-1")
	m.JoinRoom("b", "room-1")

	aBefore, bBefore, oBefore := a.frameCount(), b.frameCount(), outsider.frameCount()
	m.SendToRoom("room-1", newSystemFrame("room message", "info"), "")

	assert.Equal(t, aBefore+1, a.frameCount())
	assert.Equal(t, bBefore+1, b.frameCount())
	assert.Equal(t, oBefore, outsider.frameCount())
}

func TestSendToRoomHonorsExclude(t *testing.T) {
	m := newTestManager()
	a := &fakeTransport{}
	b := &fakeTransport{}

	m.Connect(a, "a")
	m.Connect(b, "b")
	m.JoinRoom("a", "room-1")
	m.JoinRoom("b", "room-1")

	aBefore, bBefore := a.frameCount(), b.frameCount()
	m.SendToRoom("room-1", newSystemFrame("room message", "info"), "a")

	assert.Equal(t, aBefore, a.frameCount())
	assert.Equal(t, bBefore+1, b.frameCount())
}

func TestSendToUnknownRoomIsNoop(t *testing.T) {
	m := newTestManager()
	tr := &fakeTransport{}
	m.Connect(tr, "a")

	before := tr.frameCount()
	m.SendToRoom("no-such-room", newSystemFrame("hello", "info"), "")
	assert.Equal(t, before, tr.frameCount())
}

func TestLeaveRoomDeletesEmptyRoom(t *testing.T) {
	m := newTestManager()
	m.Connect(&fakeTransport{}, "a")
	m.Connect(&fakeTransport{}, "b")
	m.JoinRoom("a", "room-1")
	m.JoinRoom("b", "room-1")

	m.LeaveRoom("a", "room-1")
	assert.Equal(t, 1, m.Stats().TotalRooms)

	m.LeaveRoom("b", "room-1")
	assert.Equal(t, 0, m.Stats().TotalRooms)
}

func TestJoinRoomIsIdempotent(t *testing.T) {
	m := newTestManager()
	m.Connect(&fakeTransport{}, "a")

	m.JoinRoom("a", "room-1")
	m.JoinRoom("a", "room-1")

	assert.Len(t, m.RoomMembers("room-1"), 1)
}

func TestCleanupInactiveDisconnectsStaleOnly(t *testing.T) {
	m := newTestManager()
	stale := &fakeTransport{}
	fresh := &fakeTransport{}

	m.Connect(stale, "stale")
	m.Connect(fresh, "fresh")

	m.mu.Lock()
	m.meta["stale"].lastActivity = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	n := m.CleanupInactive(30 * time.Minute)

	assert.Equal(t, 1, n)
	assert.False(t, m.IsConnected("stale"))
	assert.True(t, m.IsConnected("fresh"))

	// The stale client got a warning before being dropped
	frame, ok := stale.lastFrame().(SystemFrame)
	require.True(t, ok)
	assert.Equal(t, "warning", frame.MessageType)
	assert.True(t, stale.isClosed())
}

func TestStatsSnapshot(t *testing.T) {
	m := newTestManager()
	m.Connect(&fakeTransport{}, "a")
	m.Connect(&fakeTransport{}, "b")
	m.JoinRoom("a", "room-1")
	m.JoinRoom("b", "room-1")
	m.JoinRoom("b", "room-2")

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalConnections)
	assert.Equal(t, 2, stats.TotalRooms)
	assert.Equal(t, 2, stats.ConnectionsPerRoom["room-1"])
	assert.Equal(t, 1, stats.ConnectionsPerRoom["room-2"])
	assert.ElementsMatch(t, []string{"a", "b"}, stats.ConnectedClients)
}

func TestConcurrentConnectDisconnect(t *testing.T) {
	m := newTestManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			m.Connect(&fakeTransport{}, id)
			m.JoinRoom(id, "shared")
			m.Broadcast(newSystemFrame("hi", "info"), "")
			m.Disconnect(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, m.Stats().TotalConnections)
	assert.Equal(t, 0, m.Stats().TotalRooms)
}
