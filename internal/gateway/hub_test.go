package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaserver/internal/chatrouter"
	"arenaserver/internal/config"
	"arenaserver/internal/identity"
	"arenaserver/internal/registry"
	"arenaserver/internal/statssink"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	cfg := config.Load()
	registries := make(map[config.Mode]*registry.Registry)
	hub := NewHub(cfg, registries, nil, identity.GuestResolver{})
	chat := chatrouter.New(cfg.Chat, hub)
	hub.SetChat(chat)
	for _, mode := range []config.Mode{config.ModeBoss, config.ModePVP, config.ModeKOZ, config.ModeSlither} {
		registries[mode] = registry.New(mode, cfg, hub, statssink.NoopSink{})
	}
	return hub
}

// drain reads whatever is queued on a conn's send channel without blocking,
// since conn.sendEvent only enqueues (no writePump runs in these tests).
func drain(c *conn) [][]byte {
	var out [][]byte
	for {
		select {
		case frame := <-c.send:
			out = append(out, frame)
		default:
			return out
		}
	}
}

func TestHubRegisterUnregisterTracksConnectionCount(t *testing.T) {
	h := testHub(t)
	c := newConn("conn-1", "127.0.0.1", nil, 8)
	h.Register(c)
	assert.Equal(t, 1, h.ConnectionCount())

	h.Unregister(c.id)
	assert.Equal(t, 0, h.ConnectionCount())

	got, ok := h.Get(c.id)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestHubToRoomReachesOnlyRoomMembers(t *testing.T) {
	h := testHub(t)
	a := newConn("conn-a", "1.1.1.1", nil, 8)
	b := newConn("conn-b", "1.1.1.2", nil, 8)
	outsider := newConn("conn-c", "1.1.1.3", nil, 8)
	h.Register(a)
	h.Register(b)
	h.Register(outsider)

	h.JoinRoomMembership(config.ModePVP, "room-1", a.id)
	h.JoinRoomMembership(config.ModePVP, "room-1", b.id)

	h.ToRoom("room-1", "ping", map[string]int{"n": 1})

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(outsider))
}

func TestHubToRoomExceptExcludesSender(t *testing.T) {
	h := testHub(t)
	a := newConn("conn-a", "1.1.1.1", nil, 8)
	b := newConn("conn-b", "1.1.1.2", nil, 8)
	h.Register(a)
	h.Register(b)
	h.JoinRoomMembership(config.ModeKOZ, "room-1", a.id)
	h.JoinRoomMembership(config.ModeKOZ, "room-1", b.id)

	h.ToRoomExcept("room-1", a.id, "ping", nil)

	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
}

func TestHubJoinRoomMembershipMovesConnBetweenRooms(t *testing.T) {
	h := testHub(t)
	a := newConn("conn-a", "1.1.1.1", nil, 8)
	h.Register(a)

	h.JoinRoomMembership(config.ModeBoss, "room-1", a.id)
	h.JoinRoomMembership(config.ModeBoss, "room-2", a.id)

	h.ToRoom("room-1", "ping", nil)
	assert.Empty(t, drain(a))

	h.ToRoom("room-2", "ping", nil)
	assert.Len(t, drain(a), 1)
}

func TestHubUnregisterClearsRoomMembership(t *testing.T) {
	h := testHub(t)
	a := newConn("conn-a", "1.1.1.1", nil, 8)
	h.Register(a)
	h.JoinRoomMembership(config.ModeSlither, "room-1", a.id)

	h.Unregister(a.id)

	h.mu.RLock()
	_, ok := h.roomMembers["room-1"]
	h.mu.RUnlock()
	assert.False(t, ok)
}

func TestHubAllowEventEnforcesCooldownPerKind(t *testing.T) {
	h := testHub(t)
	assert.True(t, h.AllowEvent("conn-1", "move"))
	assert.False(t, h.AllowEvent("conn-1", "move"), "an immediate second move is inside the cooldown window")
	assert.True(t, h.AllowEvent("conn-1", "shoot"), "a different event kind has its own independent cooldown")
}

func TestHubAllowConnectionEnforcesPerIPConcurrencyCap(t *testing.T) {
	h := testHub(t)
	for i := 0; i < 10; i++ {
		require.True(t, h.AllowConnection("2.2.2.2"))
	}
	assert.False(t, h.AllowConnection("2.2.2.2"))

	h.ReleaseConnection("2.2.2.2")
	assert.True(t, h.AllowConnection("2.2.2.2"))
}

func TestHubChatAccessorReturnsWiredRouter(t *testing.T) {
	h := testHub(t)
	require.NotNil(t, h.Chat())

	// chat messages land through the hub's ToConn implementation
	h.Chat().JoinLobby(config.ModePVP, "conn-1", "Alice")
	c := newConn("conn-1", "1.1.1.1", nil, 8)
	h.Register(c)
	h.Chat().JoinLobby(config.ModePVP, c.id, "Alice")

	h.Chat().JoinLobby(config.ModePVP, "conn-2", "Bob")
	ok, reason := h.Chat().SendLobby(config.ModePVP, "conn-2", "Bob", "hi", time.Now())
	assert.True(t, ok, reason)
}
