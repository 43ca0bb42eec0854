package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"arenaserver/internal/config"
	"arenaserver/internal/obs"
	"arenaserver/internal/wire"
)

// conn wraps one websocket connection with its outbound send queue,
// generalized from one global broadcast channel to a per-connection queue
// so a slow subscriber only ever coalesces its own backlog instead of
// stalling every other connection.
type conn struct {
	id   string
	ip   string
	ws   *websocket.Conn
	send chan []byte

	mu          sync.Mutex
	mode        config.Mode
	roomID      string
	inLobby     bool
	userID      string
	displayName string
	avatarRef   string
	failStreak  int
}

func newConn(id, ip string, ws *websocket.Conn, queueSize int) *conn {
	return &conn{id: id, ip: ip, ws: ws, send: make(chan []byte, queueSize)}
}

// enqueue attempts a non-blocking send; when the queue is full the oldest
// frame is dropped to make room (§6's send-queue high-water coalescing)
// rather than blocking the room tick that produced this frame.
func (c *conn) enqueue(frame []byte) {
	select {
	case c.send <- frame:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- frame:
	default:
	}
}

// writePump drains the send queue to the socket. One per connection.
func (c *conn) writePump() {
	for frame := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
			c.mu.Lock()
			c.failStreak++
			streak := c.failStreak
			c.mu.Unlock()
			obs.L().Raw().Debug("write failed", zap.Error(err))
			if streak > 5 {
				c.ws.Close()
				return
			}
			continue
		}
		c.mu.Lock()
		c.failStreak = 0
		c.mu.Unlock()
	}
}

// setIdentity stamps the resolved identity onto a freshly upgraded
// connection, called once from the websocket handshake before any dispatch.
func (c *conn) setIdentity(userID, displayName, avatarRef string) {
	c.mu.Lock()
	c.userID, c.displayName, c.avatarRef = userID, displayName, avatarRef
	c.mu.Unlock()
}

func (c *conn) setRoom(mode config.Mode, roomID string) {
	c.mu.Lock()
	c.mode, c.roomID = mode, roomID
	c.mu.Unlock()
}

func (c *conn) room() (config.Mode, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.roomID
}

func (c *conn) sendEvent(eventType string, payload interface{}) {
	frame, err := wire.Encode(eventType, payload)
	if err != nil {
		return
	}
	c.enqueue(frame)
}
