package gateway

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"arenaserver/internal/obs"
	"arenaserver/internal/ratelimit"
	"arenaserver/internal/wire"
)

// AllowedOrigins are accepted outright; anything on localhost is also
// allowed for local development, without the Kick-bot-specific entries a
// streaming-platform deployment would add.
var AllowedOrigins = []string{
	"http://localhost",
	"http://localhost:3000",
	"http://localhost:5173",
}

func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if strings.HasPrefix(origin, "http://localhost") {
		return true
	}
	for _, allowed := range AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if isAllowedOrigin(origin) {
			return true
		}
		obs.L().Raw().Warn("websocket connection rejected: origin", zap.String("origin", origin))
		obs.RecordConnectionRejected("origin")
		return false
	},
}

const sendQueueSize = 64

// ServeWS upgrades an HTTP request to a WebSocket connection, resolves the
// connecting user's identity, and hands the connection off to its own
// read/write pumps, attaching a resolved identity before any dispatch
// rather than treating every connection anonymously.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)

	if !h.AllowConnection(ip) {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	if h.ConnectionCount() >= h.cfg.Server.MaxConnections {
		obs.RecordConnectionRejected("capacity")
		h.ReleaseConnection(ip)
		http.Error(w, "server at capacity", http.StatusServiceUnavailable)
		return
	}

	credential := bearerCredential(r)
	profile, err := h.resolver.Resolve(r.Context(), credential)
	if err != nil {
		obs.RecordConnectionRejected("invalid")
		h.ReleaseConnection(ip)
		http.Error(w, "identity rejected", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.ReleaseConnection(ip)
		return
	}

	connID := uuid.NewString()
	userID := profile.UserID
	if userID == "" {
		// Guest: §6's "if user_id is null, treat as a guest" contract.
		// A synthesized per-connection id keeps the room registry's
		// identity requirement satisfied without granting guests a
		// persistent account.
		userID = "guest-" + connID
	}
	displayName := profile.DisplayName
	if displayName == "" {
		displayName = "Guest"
	}

	c := newConn(connID, ip, ws, sendQueueSize)
	c.setIdentity(userID, displayName, profile.AvatarRef)
	h.Register(c)

	go c.writePump()
	h.readPump(c)
}

func bearerCredential(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// readPump owns the connection's lifetime: it blocks reading frames until
// the socket closes, then tears down every index the connection touched.
func (h *Hub) readPump(c *conn) {
	defer h.teardown(c)

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		env, err := wire.Decode(frame)
		if err != nil {
			continue
		}
		h.dispatch.Dispatch(h, c, env)
	}
}

func (h *Hub) teardown(c *conn) {
	mode, roomID := c.room()
	if roomID != "" {
		h.Registry(mode).Leave(roomID, c.id, "disconnect")
		h.LeaveRoomMembership(roomID, c.id)
		h.Chat().LeaveRoom(roomID, c.id)
		h.ToRoom(roomID, wire.OutPlayerLeft, map[string]string{"connId": c.id})
	}
	h.Chat().LeaveLobby(mode, c.id)

	h.Unregister(c.id)
	h.ReleaseConnection(c.ip)
	close(c.send)
	c.ws.Close()
}
