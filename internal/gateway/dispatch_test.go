package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaserver/internal/config"
	"arenaserver/internal/wire"
)

func marshalPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func decodeFrame(t *testing.T, frame []byte) wire.Envelope {
	t.Helper()
	env, err := wire.Decode(frame)
	require.NoError(t, err)
	return env
}

func joinedConn(t *testing.T, h *Hub, id, ip, userID, displayName string) *conn {
	t.Helper()
	c := newConn(id, ip, nil, 8)
	c.setIdentity(userID, displayName, "")
	h.Register(c)
	return c
}

func TestDispatchTableCoversEveryModeAndEvent(t *testing.T) {
	d := NewDispatch()
	for _, mode := range []config.Mode{config.ModeBoss, config.ModePVP, config.ModeKOZ, config.ModeSlither} {
		for _, event := range []string{
			wire.InJoinRoom, wire.InLeaveRoom, wire.InPlayerMove, wire.InPlayerShoot,
			wire.InChatSend, wire.InJoinLobby, wire.InLeaveLobby, wire.InPlayerAway,
			wire.InReturned, wire.InReportStats, wire.InReady, wire.InGetStatus,
		} {
			_, ok := d.routes[string(mode)+"_"+event]
			assert.True(t, ok, "missing route for %s_%s", mode, event)
		}
	}
}

func TestDispatchUnknownEventIsDropped(t *testing.T) {
	h := testHub(t)
	c := joinedConn(t, h, "conn-1", "1.1.1.1", "user-1", "Alice")

	assert.NotPanics(t, func() {
		h.dispatch.Dispatch(h, c, wire.Envelope{Type: "pvp_not_a_real_event", Payload: []byte(`{}`)})
	})
	assert.Empty(t, drain(c))
}

func TestHandleJoinRoomSendsRoomStateToJoiner(t *testing.T) {
	h := testHub(t)
	c := joinedConn(t, h, "conn-1", "1.1.1.1", "user-1", "Alice")

	raw := marshalPayload(t, wire.JoinRoomPayload{Profile: wire.JoinProfile{HeroClass: "warrior"}})
	handleJoinRoom(h, c, config.ModeBoss, raw)

	frames := drain(c)
	require.Len(t, frames, 1)
	env := decodeFrame(t, frames[0])
	assert.Equal(t, wire.OutRoomState, env.Type)

	mode, roomID := c.room()
	assert.Equal(t, config.ModeBoss, mode)
	assert.NotEmpty(t, roomID)
}

func TestHandleJoinRoomNotifiesExistingMembers(t *testing.T) {
	h := testHub(t)
	a := joinedConn(t, h, "conn-a", "1.1.1.1", "user-a", "Alice")
	handleJoinRoom(h, a, config.ModeBoss, marshalPayload(t, wire.JoinRoomPayload{}))
	drain(a) // discard a's own room_state

	_, roomID := a.room()
	b := joinedConn(t, h, "conn-b", "1.1.1.2", "user-b", "Bob")
	handleJoinRoom(h, b, config.ModeBoss, marshalPayload(t, wire.JoinRoomPayload{RoomID: roomID}))

	aFrames := drain(a)
	require.Len(t, aFrames, 2, "chat join notice, then player_joined")
	assert.Equal(t, wire.OutChatMessage, decodeFrame(t, aFrames[0]).Type)
	env := decodeFrame(t, aFrames[1])
	assert.Equal(t, wire.OutPlayerJoined, env.Type)

	bMode, bRoomID := b.room()
	assert.Equal(t, config.ModeBoss, bMode)
	assert.Equal(t, roomID, bRoomID)
}

func TestHandleJoinRoomRejectsWhenRoomFull(t *testing.T) {
	h := testHub(t)
	a := joinedConn(t, h, "conn-a", "1.1.1.1", "user-a", "Alice")
	handleJoinRoom(h, a, config.ModePVP, marshalPayload(t, wire.JoinRoomPayload{}))
	_, roomID := a.room()
	drain(a)

	b := joinedConn(t, h, "conn-b", "1.1.1.2", "user-b", "Bob")
	handleJoinRoom(h, b, config.ModePVP, marshalPayload(t, wire.JoinRoomPayload{RoomID: roomID}))
	drain(b)

	c := joinedConn(t, h, "conn-c", "1.1.1.3", "user-c", "Carl")
	handleJoinRoom(h, c, config.ModePVP, marshalPayload(t, wire.JoinRoomPayload{RoomID: roomID}))

	frames := drain(c)
	require.Len(t, frames, 1)
	env := decodeFrame(t, frames[0])
	assert.Equal(t, wire.OutRoomFull, env.Type)
}

func TestHandleLeaveRoomNotifiesRemainingMembers(t *testing.T) {
	h := testHub(t)
	a := joinedConn(t, h, "conn-a", "1.1.1.1", "user-a", "Alice")
	handleJoinRoom(h, a, config.ModeBoss, marshalPayload(t, wire.JoinRoomPayload{}))
	_, roomID := a.room()
	drain(a)

	b := joinedConn(t, h, "conn-b", "1.1.1.2", "user-b", "Bob")
	handleJoinRoom(h, b, config.ModeBoss, marshalPayload(t, wire.JoinRoomPayload{RoomID: roomID}))
	drain(a)
	drain(b)

	handleLeaveRoom(h, b, config.ModeBoss, nil)

	frames := drain(a)
	require.Len(t, frames, 2, "chat leave notice, then player_left")
	assert.Equal(t, wire.OutChatMessage, decodeFrame(t, frames[0]).Type)
	env := decodeFrame(t, frames[1])
	assert.Equal(t, wire.OutPlayerLeft, env.Type)

	room, ok := h.Registry(config.ModeBoss).Get(roomID)
	require.True(t, ok)
	assert.Equal(t, 1, room.PlayerCount())
}

func TestHandlePlayerMoveNoopWithoutRoom(t *testing.T) {
	h := testHub(t)
	c := joinedConn(t, h, "conn-1", "1.1.1.1", "user-1", "Alice")

	raw := marshalPayload(t, wire.PlayerMovePayload{X: 1, Y: 0})
	assert.NotPanics(t, func() { handlePlayerMove(h, c, config.ModePVP, raw) })
}

func TestHandleChatSendInLobbyRoutesThroughChatRouter(t *testing.T) {
	h := testHub(t)
	a := joinedConn(t, h, "conn-a", "1.1.1.1", "user-a", "Alice")
	b := joinedConn(t, h, "conn-b", "1.1.1.2", "user-b", "Bob")

	handleJoinLobby(h, a, config.ModePVP, nil)
	handleJoinLobby(h, b, config.ModePVP, nil)
	drain(a)
	drain(b)

	handleChatSend(h, a, config.ModePVP, marshalPayload(t, wire.ChatSendPayload{Content: "hello"}))

	bFrames := drain(b)
	require.Len(t, bFrames, 1)
	env := decodeFrame(t, bFrames[0])
	assert.Equal(t, wire.OutChatMessage, env.Type)
	assert.Empty(t, drain(a), "sender never receives its own message")
}

func TestHandlePlayerAwayAndReturnedDoNotPanicOutsideARoom(t *testing.T) {
	h := testHub(t)
	a := joinedConn(t, h, "conn-a", "1.1.1.1", "user-a", "Alice")

	assert.NotPanics(t, func() { handlePlayerAway(h, a, config.ModeKOZ, nil) })
	assert.NotPanics(t, func() { handleReturned(h, a, config.ModeKOZ, nil) })
}

func TestHandleGetStatusReportsRoomAndPlayerCounts(t *testing.T) {
	h := testHub(t)
	a := joinedConn(t, h, "conn-a", "1.1.1.1", "user-a", "Alice")
	handleJoinRoom(h, a, config.ModePVP, marshalPayload(t, wire.JoinRoomPayload{}))
	drain(a)

	handleGetStatus(h, a, config.ModePVP, nil)

	frames := drain(a)
	require.Len(t, frames, 1)
	env := decodeFrame(t, frames[0])
	assert.Equal(t, wire.OutStatus, env.Type)

	var status wire.ModeStatusPayload
	require.NoError(t, json.Unmarshal(env.Payload, &status))
	assert.Equal(t, string(config.ModePVP), status.Mode)
	assert.Equal(t, 1, status.RoomCount)
	assert.Equal(t, 1, status.PlayerCount)
}

func TestHandlePlayerAwayAndReturnedInsideARoom(t *testing.T) {
	h := testHub(t)
	a := joinedConn(t, h, "conn-a", "1.1.1.1", "user-a", "Alice")
	handleJoinRoom(h, a, config.ModeKOZ, marshalPayload(t, wire.JoinRoomPayload{}))
	drain(a)

	_, roomID := a.room()
	room, ok := h.Registry(config.ModeKOZ).Get(roomID)
	require.True(t, ok)
	_, ok = room.(interface{ SetAway(connID string, away bool) })
	require.True(t, ok, "every concrete room embeds arena.Base, which implements SetAway")

	assert.NotPanics(t, func() { handlePlayerAway(h, a, config.ModeKOZ, nil) })
	assert.NotPanics(t, func() { handleReturned(h, a, config.ModeKOZ, nil) })
}
