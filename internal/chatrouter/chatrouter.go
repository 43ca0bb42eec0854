// Package chatrouter implements the two logical chat channels (§4.8):
// the lobby, scoped per mode before a match is found, and the room, scoped
// per in-match room. Every message is rate-limited, content-length capped,
// and routed only to the sender's current channel with the sender excluded
// from the broadcast. Join/leave system notices are synthesized here and
// never accepted from a client.
package chatrouter

import (
	"strings"
	"sync"
	"time"

	"arenaserver/internal/config"
	"arenaserver/internal/ratelimit"
	"arenaserver/internal/wire"
)

// Broadcaster is the narrow outbound seam chatrouter needs. The gateway's
// connection registry satisfies it.
type Broadcaster interface {
	ToConn(connID, eventType string, payload interface{})
}

// Message is the `chat_message` outbound payload.
type Message struct {
	DisplayName string    `json:"displayName"`
	Content     string    `json:"content"`
	System      bool      `json:"system"`
	SentAt      time.Time `json:"sentAt"`
}

type member struct {
	connID      string
	displayName string
}

type channel struct {
	members map[string]member // connID -> member
}

func newChannel() *channel { return &channel{members: make(map[string]member)} }

// Router owns every lobby and room chat channel. One Router serves the
// whole server, not one per mode: lobby channels are keyed by mode, room
// channels by room id, so there is no cross-talk between them.
type Router struct {
	mu      sync.Mutex
	lobbies map[config.Mode]*channel
	rooms   map[string]*channel

	limiter *ratelimit.EventLimiter
	cfg     config.ChatConfig
	out     Broadcaster
}

// New creates a chat router bound to one outbound broadcaster.
func New(cfg config.ChatConfig, out Broadcaster) *Router {
	return &Router{
		lobbies: make(map[config.Mode]*channel),
		rooms:   make(map[string]*channel),
		limiter: ratelimit.NewEventLimiter(ratelimit.EventConfig{
			MaxPerWindow:     cfg.BurstLimit,
			WindowDuration:   cfg.BurstWindow,
			CooldownDuration: cfg.MinInterval,
		}),
		cfg: cfg,
		out: out,
	}
}

// JoinLobby adds a connection to a mode's pre-match chat channel and
// announces it to the members already there.
func (r *Router) JoinLobby(mode config.Mode, connID, displayName string) {
	r.mu.Lock()
	ch, ok := r.lobbies[mode]
	if !ok {
		ch = newChannel()
		r.lobbies[mode] = ch
	}
	ch.members[connID] = member{connID: connID, displayName: displayName}
	r.mu.Unlock()

	r.announce(ch, connID, displayName+" joined the lobby")
}

// LeaveLobby removes a connection from a mode's lobby channel. Idempotent.
func (r *Router) LeaveLobby(mode config.Mode, connID string) {
	r.mu.Lock()
	ch, ok := r.lobbies[mode]
	if !ok {
		r.mu.Unlock()
		return
	}
	m, present := ch.members[connID]
	delete(ch.members, connID)
	r.mu.Unlock()

	if present {
		r.announce(ch, connID, m.displayName+" left the lobby")
	}
}

// JoinRoom adds a connection to an in-match room's chat channel.
func (r *Router) JoinRoom(roomID, connID, displayName string) {
	r.mu.Lock()
	ch, ok := r.rooms[roomID]
	if !ok {
		ch = newChannel()
		r.rooms[roomID] = ch
	}
	ch.members[connID] = member{connID: connID, displayName: displayName}
	r.mu.Unlock()

	r.announce(ch, connID, displayName+" joined the room")
}

// LeaveRoom removes a connection from a room's chat channel. Idempotent; a
// room with no remaining members is dropped so the map doesn't grow
// unbounded across the server's lifetime.
func (r *Router) LeaveRoom(roomID, connID string) {
	r.mu.Lock()
	ch, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return
	}
	m, present := ch.members[connID]
	delete(ch.members, connID)
	empty := len(ch.members) == 0
	if empty {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()

	if present {
		r.announce(ch, connID, m.displayName+" left the room")
	}
}

// SendLobby validates and routes a lobby chat message. Returns false with a
// reason ("empty", "rate_limited", "too_long", "not_in_channel") when
// rejected.
func (r *Router) SendLobby(mode config.Mode, senderConnID, displayName, content string, now time.Time) (bool, string) {
	r.mu.Lock()
	ch, ok := r.lobbies[mode]
	r.mu.Unlock()
	if !ok {
		return false, "not_in_channel"
	}
	return r.send(ch, senderConnID, displayName, content)
}

// SendRoom validates and routes an in-match chat message.
func (r *Router) SendRoom(roomID, senderConnID, displayName, content string, now time.Time) (bool, string) {
	r.mu.Lock()
	ch, ok := r.rooms[roomID]
	r.mu.Unlock()
	if !ok {
		return false, "not_in_channel"
	}
	return r.send(ch, senderConnID, displayName, content)
}

func (r *Router) send(ch *channel, senderConnID, displayName, content string) (bool, string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return false, "empty"
	}
	if len(content) > r.cfg.MaxContentLen {
		return false, "too_long"
	}
	if !r.limiter.Allow(senderConnID, "chat") {
		return false, "rate_limited"
	}

	r.mu.Lock()
	if _, present := ch.members[senderConnID]; !present {
		r.mu.Unlock()
		return false, "not_in_channel"
	}
	recipients := recipientsExcept(ch, senderConnID)
	r.mu.Unlock()

	msg := Message{DisplayName: displayName, Content: content, SentAt: time.Now()}
	for _, connID := range recipients {
		r.out.ToConn(connID, wire.OutChatMessage, msg)
	}
	return true, ""
}

// announce broadcasts a synthesized system message to every member of a
// channel except the connection the notice is about (the client that just
// joined/left renders its own transition locally).
func (r *Router) announce(ch *channel, exceptConnID, text string) {
	r.mu.Lock()
	recipients := recipientsExcept(ch, exceptConnID)
	r.mu.Unlock()

	msg := Message{Content: text, System: true, SentAt: time.Now()}
	for _, connID := range recipients {
		r.out.ToConn(connID, wire.OutChatMessage, msg)
	}
}

func recipientsExcept(ch *channel, exceptConnID string) []string {
	out := make([]string, 0, len(ch.members))
	for connID := range ch.members {
		if connID == exceptConnID {
			continue
		}
		out = append(out, connID)
	}
	return out
}

// Forget drops a connection from the rate limiter, called by the disconnect
// reaper alongside LeaveLobby/LeaveRoom.
func (r *Router) Forget(connID string) {
	r.limiter.Forget(connID)
}
