package gateway

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"arenaserver/internal/arena"
	"arenaserver/internal/chatrouter"
	"arenaserver/internal/config"
	"arenaserver/internal/obs"
	"arenaserver/internal/registry"
	"arenaserver/internal/wire"
)

// bareHandler processes one event already stripped of its mode prefix. mode
// is supplied by the router since the prefix alone carried it.
type bareHandler func(h *Hub, c *conn, mode config.Mode, raw json.RawMessage)

// Dispatch is the explicit event-name -> handler table, one entry per
// mode-prefixed wire event (§9: an enumerated map so adding an event is a
// literal, not a new branch in a growing type-switch).
type Dispatch struct {
	routes map[string]func(h *Hub, c *conn, raw json.RawMessage)
}

// NewDispatch builds the full routing table for all four modes.
func NewDispatch() *Dispatch {
	bare := map[string]bareHandler{
		wire.InJoinRoom:    handleJoinRoom,
		wire.InLeaveRoom:   handleLeaveRoom,
		wire.InPlayerMove:  handlePlayerMove,
		wire.InPlayerShoot: handlePlayerShoot,
		wire.InChatSend:    handleChatSend,
		wire.InJoinLobby:   handleJoinLobby,
		wire.InLeaveLobby:  handleLeaveLobby,
		wire.InPlayerAway:  handlePlayerAway,
		wire.InReturned:    handleReturned,
		wire.InReportStats: handleReportStats,
		wire.InReady:       handleReady,
		wire.InGetStatus:   handleGetStatus,
	}

	d := &Dispatch{routes: make(map[string]func(h *Hub, c *conn, raw json.RawMessage))}
	for _, mode := range []config.Mode{config.ModeBoss, config.ModePVP, config.ModeKOZ, config.ModeSlither} {
		mode := mode
		for event, fn := range bare {
			fn := fn
			d.routes[string(mode)+"_"+event] = func(h *Hub, c *conn, raw json.RawMessage) {
				fn(h, c, mode, raw)
			}
		}
	}
	return d
}

// Dispatch routes one decoded envelope to its handler. Unknown event names
// are dropped (§7 Validation: malformed/unrecognized frames are the
// server's problem to ignore, never a crash).
func (d *Dispatch) Dispatch(h *Hub, c *conn, env wire.Envelope) {
	fn, ok := d.routes[env.Type]
	if !ok {
		return
	}
	fn(h, c, env.Payload)
}

func handleJoinRoom(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	var payload wire.JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	profile := arena.PlayerProfile{
		DisplayName: c.displayName,
		AvatarRef:   c.avatarRef,
		HeroClass:   payload.Profile.HeroClass,
		WeaponType:  payload.Profile.WeaponType,
		Bullets:     payload.Profile.Bullets,
		Lives:       payload.Profile.Lives,
	}

	res, err := h.Registry(mode).Join(c.userID, payload.RoomID, profile, c.id)
	if err != nil {
		reason := "room_full"
		switch err {
		case registry.ErrServerFull:
			reason = "server_full"
		case registry.ErrUnauthorized:
			reason = "unauthorized"
		}
		c.sendEvent(wire.OutRoomFull, map[string]string{"reason": reason})
		return
	}

	h.JoinRoomMembership(mode, res.RoomID, c.id)
	h.Chat().JoinRoom(res.RoomID, c.id, c.displayName)

	res.Room.Lock()
	snap := res.Room.Snapshot()
	res.Room.Unlock()

	c.sendEvent(wire.OutRoomState, snap)
	h.ToRoomExcept(res.RoomID, c.id, wire.OutPlayerJoined, arena.PlayerSnapshot{
		ConnID:      c.id,
		DisplayName: c.displayName,
		Spectator:   res.Spectator,
	})

	obs.L().Raw().Debug("player joined room", zap.String("mode", string(mode)), zap.String("room_id", res.RoomID), zap.String("conn_id", c.id))
}

func handleLeaveRoom(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	leaveRoom(h, c, mode, "leave_room")
}

func leaveRoom(h *Hub, c *conn, mode config.Mode, reason string) {
	_, roomID := c.room()
	if roomID == "" {
		return
	}

	h.Registry(mode).Leave(roomID, c.id, reason)
	h.LeaveRoomMembership(roomID, c.id)
	h.Chat().LeaveRoom(roomID, c.id)
	h.ToRoom(roomID, wire.OutPlayerLeft, map[string]string{"connId": c.id})
}

func handlePlayerMove(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	if !h.AllowEvent(c.id, "move") {
		return
	}
	var payload wire.PlayerMovePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	_, roomID := c.room()
	if roomID == "" {
		return
	}
	room, ok := h.Registry(mode).Get(roomID)
	if !ok {
		return
	}

	room.Lock()
	room.HandleInput(c.id, arena.Input{
		AxisX:     payload.X,
		AxisY:     payload.Y,
		BossX:     payload.BossX,
		BossY:     payload.BossY,
		HasBossXY: mode == config.ModeBoss,
	})
	room.Unlock()
}

func handlePlayerShoot(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	if !h.AllowEvent(c.id, "shoot") {
		return
	}
	var payload wire.PlayerShootPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	_, roomID := c.room()
	if roomID == "" {
		return
	}
	room, ok := h.Registry(mode).Get(roomID)
	if !ok {
		return
	}

	room.Lock()
	_, reason, shot := room.HandleShoot(c.id, payload.AimX, payload.AimY)
	room.Unlock()

	if !shot {
		obs.RecordShotRejected(string(reason))
		c.sendEvent(wire.OutShotRejected, wire.ShotRejectedPayload{Reason: reason})
	}
}

func handleChatSend(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	var payload wire.ChatSendPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	var ok bool
	var reason string
	if c.inLobby {
		ok, reason = h.Chat().SendLobby(mode, c.id, c.displayName, payload.Content, time.Now())
	} else {
		ok, reason = h.Chat().SendRoom(payload.RoomID, c.id, c.displayName, payload.Content, time.Now())
	}
	if !ok {
		c.sendEvent(wire.OutChatMessage, chatrouter.Message{System: true, Content: "message rejected: " + reason, SentAt: time.Now()})
	}
}

func handleJoinLobby(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	c.mu.Lock()
	c.inLobby = true
	c.mu.Unlock()
	h.Chat().JoinLobby(mode, c.id, c.displayName)
}

func handleLeaveLobby(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	c.mu.Lock()
	c.inLobby = false
	c.mu.Unlock()
	h.Chat().LeaveLobby(mode, c.id)
}

func handlePlayerAway(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	setAway(h, c, mode, true)
}

func handleReturned(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	setAway(h, c, mode, false)
}

func setAway(h *Hub, c *conn, mode config.Mode, away bool) {
	_, roomID := c.room()
	if roomID == "" {
		return
	}
	room, ok := h.Registry(mode).Get(roomID)
	if !ok {
		return
	}
	awaySetter, ok := room.(interface{ SetAway(connID string, away bool) })
	if !ok {
		return
	}
	room.Lock()
	awaySetter.SetAway(c.id, away)
	room.Unlock()
}

// handleReportStats is advisory telemetry only (§9: server counters
// always win on conflict); acknowledged by doing nothing but accepting the
// frame, so a stray client keeps its connection instead of being dropped as
// a protocol violation.
func handleReportStats(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {}

// handleGetStatus answers a lobby-screen aggregate query (DESIGN.md
// supplemented feature) with the room/player counts for one mode, with no
// per-room detail so it never becomes a second feed alongside room_state.
func handleGetStatus(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	c.sendEvent(wire.OutStatus, h.Registry(mode).ModeStatus())
}

// handleReady implements the PVP ready-up handshake (DESIGN.md supplemented
// feature); a no-op on every other mode.
func handleReady(h *Hub, c *conn, mode config.Mode, raw json.RawMessage) {
	_, roomID := c.room()
	if roomID == "" {
		return
	}
	room, ok := h.Registry(mode).Get(roomID)
	if !ok {
		return
	}
	readySetter, ok := room.(interface{ SetReady(connID string) })
	if !ok {
		return
	}
	room.Lock()
	readySetter.SetReady(c.id)
	room.Unlock()
}
