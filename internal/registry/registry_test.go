package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaserver/internal/arena"
	"arenaserver/internal/config"
	"arenaserver/internal/statssink"
)

func testCfg() config.AppConfig {
	return config.Load()
}

type noopOutbound struct{}

func (noopOutbound) ToRoom(string, string, interface{})               {}
func (noopOutbound) ToRoomExcept(string, string, string, interface{}) {}
func (noopOutbound) ToConn(string, string, interface{})               {}

func TestJoinCreatesRoomWhenNoneExist(t *testing.T) {
	r := New(config.ModePVP, testCfg(), noopOutbound{}, statssink.NoopSink{})

	res, err := r.Join("user-1", "", arena.PlayerProfile{DisplayName: "A"}, "conn-1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.RoomID)
	assert.Equal(t, 1, res.Room.PlayerCount())
}

func TestJoinReusesNonFullRoom(t *testing.T) {
	r := New(config.ModeBoss, testCfg(), noopOutbound{}, statssink.NoopSink{})

	first, err := r.Join("user-1", "", arena.PlayerProfile{DisplayName: "A"}, "conn-1")
	require.NoError(t, err)

	second, err := r.Join("user-2", "", arena.PlayerProfile{DisplayName: "B"}, "conn-2")
	require.NoError(t, err)

	assert.Equal(t, first.RoomID, second.RoomID)
	assert.Equal(t, 2, first.Room.PlayerCount())
}

func TestJoinRejectsMissingIdentity(t *testing.T) {
	r := New(config.ModePVP, testCfg(), noopOutbound{}, statssink.NoopSink{})

	_, err := r.Join("", "", arena.PlayerProfile{}, "conn-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPVPRoomFull(t *testing.T) {
	r := New(config.ModePVP, testCfg(), noopOutbound{}, statssink.NoopSink{})

	_, err := r.Join("user-1", "", arena.PlayerProfile{}, "conn-1")
	require.NoError(t, err)
	first, err := r.Join("user-2", "", arena.PlayerProfile{}, "conn-2")
	require.NoError(t, err)

	// Room is now at capacity 2; a third joiner must land in a new room.
	third, err := r.Join("user-3", "", arena.PlayerProfile{}, "conn-3")
	require.NoError(t, err)
	assert.NotEqual(t, first.RoomID, third.RoomID)
}

func TestLeaveReapsEmptyRoom(t *testing.T) {
	r := New(config.ModeSlither, testCfg(), noopOutbound{}, statssink.NoopSink{})

	joined, err := r.Join("user-1", "", arena.PlayerProfile{}, "conn-1")
	require.NoError(t, err)

	r.Leave(joined.RoomID, "conn-1", "disconnect")

	_, ok := r.Get(joined.RoomID)
	assert.False(t, ok, "empty room should be reaped after leave")
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := New(config.ModeSlither, testCfg(), noopOutbound{}, statssink.NoopSink{})

	joined, err := r.Join("user-1", "", arena.PlayerProfile{}, "conn-1")
	require.NoError(t, err)

	r.Leave(joined.RoomID, "conn-1", "disconnect")
	assert.NotPanics(t, func() { r.Leave(joined.RoomID, "conn-1", "disconnect") })
}

func TestKOZBeyondMaxActivePlayersJoinsAsSpectator(t *testing.T) {
	cfg := testCfg()
	mc := cfg.Modes[config.ModeKOZ]
	mc.MaxActivePlayers = 1
	cfg.Modes[config.ModeKOZ] = mc

	r := New(config.ModeKOZ, cfg, noopOutbound{}, statssink.NoopSink{})

	first, err := r.Join("user-1", "", arena.PlayerProfile{}, "conn-1")
	require.NoError(t, err)
	assert.False(t, first.Spectator)

	second, err := r.Join("user-2", "", arena.PlayerProfile{}, "conn-2")
	require.NoError(t, err)
	assert.True(t, second.Spectator)
}

func TestReapEmptyRoomsSweepsStaleRooms(t *testing.T) {
	r := New(config.ModeBoss, testCfg(), noopOutbound{}, statssink.NoopSink{})

	joined, err := r.Join("user-1", "", arena.PlayerProfile{}, "conn-1")
	require.NoError(t, err)
	joined.Room.Lock()
	joined.Room.OnPlayerLeave("conn-1", "disconnect")
	joined.Room.Unlock()

	removed := r.ReapEmptyRooms()
	assert.Equal(t, 1, removed)
}
