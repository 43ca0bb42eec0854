package chatrouter

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaserver/internal/config"
)

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent map[string][]interface{} // connID -> payloads
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{sent: make(map[string][]interface{})}
}

func (b *recordingBroadcaster) ToConn(connID, eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent[connID] = append(b.sent[connID], payload)
}

func testChatCfg() config.ChatConfig {
	return config.ChatConfig{MaxContentLen: 280, MinInterval: 0, BurstWindow: time.Second, BurstLimit: 100}
}

func TestSendRoomExcludesSender(t *testing.T) {
	out := newRecordingBroadcaster()
	r := New(testChatCfg(), out)

	r.JoinRoom("room-1", "conn-a", "Alice")
	r.JoinRoom("room-1", "conn-b", "Bob")

	ok, reason := r.SendRoom("room-1", "conn-a", "Alice", "hello", time.Now())
	require.True(t, ok, reason)

	assert.Empty(t, out.sent["conn-a"], "sender should not receive its own message echoed back")
	require.Len(t, out.sent["conn-b"], 1)
	msg := out.sent["conn-b"][0].(Message)
	assert.Equal(t, "hello", msg.Content)
}

func TestSendRejectsOverlongContent(t *testing.T) {
	out := newRecordingBroadcaster()
	r := New(testChatCfg(), out)
	r.JoinRoom("room-1", "conn-a", "Alice")

	ok, reason := r.SendRoom("room-1", "conn-a", "Alice", strings.Repeat("x", 281), time.Now())
	assert.False(t, ok)
	assert.Equal(t, "too_long", reason)
}

func TestSendRejectsWhenNotInChannel(t *testing.T) {
	out := newRecordingBroadcaster()
	r := New(testChatCfg(), out)

	ok, reason := r.SendRoom("unknown-room", "conn-a", "Alice", "hi", time.Now())
	assert.False(t, ok)
	assert.Equal(t, "not_in_channel", reason)
}

func TestSendRateLimited(t *testing.T) {
	out := newRecordingBroadcaster()
	cfg := testChatCfg()
	cfg.MinInterval = time.Hour
	r := New(cfg, out)
	r.JoinRoom("room-1", "conn-a", "Alice")
	r.JoinRoom("room-1", "conn-b", "Bob")

	ok, _ := r.SendRoom("room-1", "conn-a", "Alice", "first", time.Now())
	require.True(t, ok)

	ok, reason := r.SendRoom("room-1", "conn-a", "Alice", "second", time.Now())
	assert.False(t, ok)
	assert.Equal(t, "rate_limited", reason)
}

func TestLeaveRoomIsIdempotentAndDropsEmptyChannel(t *testing.T) {
	out := newRecordingBroadcaster()
	r := New(testChatCfg(), out)
	r.JoinRoom("room-1", "conn-a", "Alice")

	r.LeaveRoom("room-1", "conn-a")
	assert.NotPanics(t, func() { r.LeaveRoom("room-1", "conn-a") })

	ok, reason := r.SendRoom("room-1", "conn-a", "Alice", "hi", time.Now())
	assert.False(t, ok)
	assert.Equal(t, "not_in_channel", reason)
}

func TestJoinLobbyAnnouncesToExistingMembersOnly(t *testing.T) {
	out := newRecordingBroadcaster()
	r := New(testChatCfg(), out)

	r.JoinLobby(config.ModePVP, "conn-a", "Alice")
	r.JoinLobby(config.ModePVP, "conn-b", "Bob")

	require.Len(t, out.sent["conn-a"], 1)
	msg := out.sent["conn-a"][0].(Message)
	assert.True(t, msg.System)
	assert.Contains(t, msg.Content, "Bob joined")
	assert.Empty(t, out.sent["conn-b"], "the joiner itself should not receive its own join notice")
}
