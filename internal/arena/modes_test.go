package arena

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaserver/internal/config"
	"arenaserver/internal/statssink"
)

func TestBossRoomAllowsMidMatchJoin(t *testing.T) {
	cfg := testAppConfig()
	r := NewBossRoom("room-1", cfg, noopOutbound{}, statssink.NoopSink{})
	r.AddPlayer(PlayerProfile{DisplayName: "A"}, "conn-a")

	now := time.Now()
	r.Tick(now)
	r.Tick(now.Add(r.mc.CountdownDuration + time.Second))
	require.Equal(t, StateActive, r.State())

	r.AddPlayer(PlayerProfile{DisplayName: "B"}, "conn-b")
	assert.NoError(t, r.OnPlayerJoin(NewPlayer("conn-c", PlayerProfile{}, r.mc, 0, 0)))
}

func TestBossRoomRejectsBeyondCapacity(t *testing.T) {
	cfg := testAppConfig()
	mc := cfg.Modes[config.ModeBoss]
	mc.Capacity = 1
	cfg.Modes[config.ModeBoss] = mc

	r := NewBossRoom("room-1", cfg, noopOutbound{}, statssink.NoopSink{})
	r.AddPlayer(PlayerProfile{DisplayName: "A"}, "conn-a")

	err := r.OnPlayerJoin(NewPlayer("conn-b", PlayerProfile{}, r.mc, 0, 0))
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestBossRoomDefeatEndsMatch(t *testing.T) {
	cfg := testAppConfig()
	r := NewBossRoom("room-1", cfg, noopOutbound{}, statssink.NoopSink{})
	r.AddPlayer(PlayerProfile{DisplayName: "A"}, "conn-a")

	now := time.Now()
	r.Tick(now)
	r.Tick(now.Add(r.mc.CountdownDuration + time.Second))
	require.Equal(t, StateActive, r.State())
	r.DrainEvents()

	r.BossHP = 0
	r.Tick(now.Add(r.mc.CountdownDuration + 2*time.Second))
	assert.Equal(t, StateResults, r.State())

	events := r.DrainEvents()
	require.Len(t, events, 3, "defeated fires once alongside match_end and results")
	assert.Equal(t, "defeated", events[0].Type)
	assert.Equal(t, "match_end", events[1].Type)
	assert.Equal(t, "results", events[2].Type)
}

func TestKOZRoomDeclaresLeaderAsWinnerAtTargetScore(t *testing.T) {
	cfg := testAppConfig()
	r := NewKOZRoom("room-1", cfg, noopOutbound{}, statssink.NoopSink{})
	a := r.AddPlayer(PlayerProfile{UserID: "user-a", DisplayName: "A"}, "conn-a")
	r.AddPlayer(PlayerProfile{UserID: "user-b", DisplayName: "B"}, "conn-b")

	now := time.Now()
	r.Tick(now)
	r.Tick(now.Add(r.mc.CountdownDuration + time.Second))
	require.Equal(t, StateActive, r.State())

	a.Score = r.targetScore
	r.Tick(now.Add(r.mc.CountdownDuration + 2*time.Second))

	assert.Equal(t, StateResults, r.State())
	assert.Equal(t, a.UserID, r.winnerUserID())
}

func TestSlitherRoomRewardsLongestSurvivalOnResults(t *testing.T) {
	cfg := testAppConfig()
	r := NewSlitherRoom("room-1", cfg, noopOutbound{}, statssink.NoopSink{})
	a := r.AddPlayer(PlayerProfile{UserID: "user-a", DisplayName: "A"}, "conn-a")
	b := r.AddPlayer(PlayerProfile{UserID: "user-b", DisplayName: "B"}, "conn-b")

	a.Score = 10
	b.Score = 3

	assert.Equal(t, a.UserID, r.winnerUserID())
}
