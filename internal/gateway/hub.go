package gateway

import (
	"sync"

	"arenaserver/internal/chatrouter"
	"arenaserver/internal/config"
	"arenaserver/internal/identity"
	"arenaserver/internal/obs"
	"arenaserver/internal/ratelimit"
	"arenaserver/internal/registry"
)

// Hub is the connection registry every other gateway file hangs off of. It
// generalizes a single global client map + one broadcast channel into one
// registry per game mode plus a per-room membership index, since a single
// room's broadcast must never fan out to connections sitting in a different
// room or mode.
type Hub struct {
	cfg        config.AppConfig
	registries map[config.Mode]*registry.Registry
	chat       *chatrouter.Router
	resolver   identity.Resolver

	ipLimiter   *ratelimit.IPLimiter
	connLimiter *ratelimit.ConnLimiter
	events      *ratelimit.EventLimiter
	dispatch    *Dispatch

	mu          sync.RWMutex
	conns       map[string]*conn
	roomMembers map[string]map[string]struct{} // roomID -> connIDs
}

// NewHub wires a connection registry to the per-mode room registries, the
// chat router, and an identity resolver. The caller (cmd/server) owns
// constructing those collaborators.
func NewHub(cfg config.AppConfig, registries map[config.Mode]*registry.Registry, chat *chatrouter.Router, resolver identity.Resolver) *Hub {
	return &Hub{
		cfg:         cfg,
		registries:  registries,
		chat:        chat,
		resolver:    resolver,
		ipLimiter:   ratelimit.NewIPLimiter(ratelimit.DefaultIPConfig),
		connLimiter: ratelimit.NewConnLimiter(10),
		events:      ratelimit.NewEventLimiter(ratelimit.DefaultEventConfig),
		dispatch:    NewDispatch(),
		conns:       make(map[string]*conn),
		roomMembers: make(map[string]map[string]struct{}),
	}
}

// Registry returns the room registry serving one mode.
func (h *Hub) Registry(mode config.Mode) *registry.Registry { return h.registries[mode] }

// Chat returns the chat router shared across every mode.
func (h *Hub) Chat() *chatrouter.Router { return h.chat }

// SetChat attaches the chat router once it exists. The chat router needs
// the hub as its Broadcaster and the hub needs the chat router, so
// cmd/server builds the hub with no chat router, builds the router against
// the hub, then wires it back in before serving any connection.
func (h *Hub) SetChat(chat *chatrouter.Router) { h.chat = chat }

// Resolver returns the identity resolver used at join time.
func (h *Hub) Resolver() identity.Resolver { return h.resolver }

// AllowConnection reserves an IP connection slot, applying both the IP rate
// limiter (new-connection burst) and the per-IP concurrent connection cap.
// The caller must call ReleaseConnection(ip) once the socket closes.
func (h *Hub) AllowConnection(ip string) bool {
	if !h.ipLimiter.Allow(ip) {
		obs.RecordConnectionRejected("rate_limit")
		return false
	}
	if !h.connLimiter.Allow(ip) {
		obs.RecordConnectionRejected("capacity")
		return false
	}
	return true
}

// ReleaseConnection frees the per-IP connection slot reserved by
// AllowConnection.
func (h *Hub) ReleaseConnection(ip string) {
	h.connLimiter.Release(ip)
}

// AllowEvent rate-limits one inbound wire event kind for a connection (move,
// shoot, ...) independent of the per-mode weapon cooldown arena itself
// enforces.
func (h *Hub) AllowEvent(connID, kind string) bool {
	return h.events.Allow(connID, kind)
}

// Register adds a freshly upgraded connection to the hub.
func (h *Hub) Register(c *conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	count := len(h.conns)
	h.mu.Unlock()
	obs.SetWSConnections(count)
}

// Unregister removes a connection from the hub and from whatever room
// membership index it was part of. Idempotent.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, connID)
	_, roomID := c.room()
	h.removeMemberLocked(roomID, connID)
	count := len(h.conns)
	h.mu.Unlock()

	obs.SetWSConnections(count)
	h.events.Forget(connID)
	h.chat.Forget(connID)
}

// Get returns a registered connection by id.
func (h *Hub) Get(connID string) (*conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	return c, ok
}

// JoinRoomMembership records that connID now belongs to roomID, so
// ToRoom/ToRoomExcept reach it. A connection belongs to at most one room at
// a time; joining a new room implicitly leaves the previous one.
func (h *Hub) JoinRoomMembership(mode config.Mode, roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.conns[connID]; ok {
		if _, oldRoom := c.room(); oldRoom != "" && oldRoom != roomID {
			h.removeMemberLocked(oldRoom, connID)
		}
		c.setRoom(mode, roomID)
	}

	members, ok := h.roomMembers[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.roomMembers[roomID] = members
	}
	members[connID] = struct{}{}
}

// LeaveRoomMembership removes connID from roomID's broadcast set.
func (h *Hub) LeaveRoomMembership(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeMemberLocked(roomID, connID)
	if c, ok := h.conns[connID]; ok {
		c.setRoom("", "")
	}
}

func (h *Hub) removeMemberLocked(roomID, connID string) {
	if roomID == "" {
		return
	}
	members, ok := h.roomMembers[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.roomMembers, roomID)
	}
}

// ToConn implements arena.Outbound and chatrouter.Broadcaster: unicast one
// event to one connection.
func (h *Hub) ToConn(connID, eventType string, payload interface{}) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if ok {
		c.sendEvent(eventType, payload)
	}
}

// ToRoom implements arena.Outbound: broadcast to every connection currently
// joined to roomID.
func (h *Hub) ToRoom(roomID, eventType string, payload interface{}) {
	h.broadcastRoom(roomID, "", eventType, payload)
}

// ToRoomExcept implements arena.Outbound: broadcast to roomID except the
// connection that caused the event.
func (h *Hub) ToRoomExcept(roomID, exceptConnID, eventType string, payload interface{}) {
	h.broadcastRoom(roomID, exceptConnID, eventType, payload)
}

func (h *Hub) broadcastRoom(roomID, exceptConnID, eventType string, payload interface{}) {
	h.mu.RLock()
	members := h.roomMembers[roomID]
	recipients := make([]*conn, 0, len(members))
	for connID := range members {
		if connID == exceptConnID {
			continue
		}
		if c, ok := h.conns[connID]; ok {
			recipients = append(recipients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		c.sendEvent(eventType, payload)
	}
}

// ConnectionCount reports the number of currently registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
