package arena

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaserver/internal/config"
)

func testAppConfig() config.AppConfig {
	return config.Load()
}

func TestTryShootSpawnsProjectileAndDeductsAmmo(t *testing.T) {
	cfg := testAppConfig()
	b := newBase("room-1", config.ModePVP, cfg, noopOutbound{}, nil)
	p := b.AddPlayer(PlayerProfile{DisplayName: "A", Bullets: 5}, "conn-1")

	spawned, reason, ok := b.TryShoot("conn-1", 1, 0, time.Now())
	require.True(t, ok)
	assert.Empty(t, reason)
	assert.NotEmpty(t, spawned)
	assert.Equal(t, 4, p.Ammo)
	assert.Equal(t, 1, p.BulletsFired)
}

func TestTryShootRejectsWhenOnCooldown(t *testing.T) {
	cfg := testAppConfig()
	b := newBase("room-1", config.ModePVP, cfg, noopOutbound{}, nil)
	b.AddPlayer(PlayerProfile{DisplayName: "A", Bullets: 5}, "conn-1")

	now := time.Now()
	_, _, ok := b.TryShoot("conn-1", 1, 0, now)
	require.True(t, ok)

	_, reason, ok := b.TryShoot("conn-1", 1, 0, now.Add(time.Millisecond))
	assert.False(t, ok)
	assert.Equal(t, RejectCooldown, reason)
}

func TestTryShootRejectsWhenOutOfAmmo(t *testing.T) {
	cfg := testAppConfig()
	b := newBase("room-1", config.ModePVP, cfg, noopOutbound{}, nil)
	b.AddPlayer(PlayerProfile{DisplayName: "A", Bullets: 1}, "conn-1")

	now := time.Now()
	_, _, ok := b.TryShoot("conn-1", 1, 0, now)
	require.True(t, ok)

	_, reason, ok := b.TryShoot("conn-1", 1, 0, now.Add(time.Second))
	assert.False(t, ok)
	assert.Equal(t, RejectAmmo, reason)
}

func TestTryShootRejectsDeadOrSpectatingPlayer(t *testing.T) {
	cfg := testAppConfig()
	b := newBase("room-1", config.ModePVP, cfg, noopOutbound{}, nil)
	p := b.AddPlayer(PlayerProfile{DisplayName: "A", Bullets: 5}, "conn-1")
	p.Alive = false

	_, reason, ok := b.TryShoot("conn-1", 1, 0, time.Now())
	assert.False(t, ok)
	assert.Equal(t, RejectInactive, reason)

	s := b.AddPlayer(PlayerProfile{DisplayName: "S", Bullets: 5}, "conn-2")
	s.Spectator = true

	_, reason, ok = b.TryShoot("conn-2", 1, 0, time.Now())
	assert.False(t, ok)
	assert.Equal(t, RejectInactive, reason)
}

func TestTryShootRejectsUnknownConnection(t *testing.T) {
	cfg := testAppConfig()
	b := newBase("room-1", config.ModePVP, cfg, noopOutbound{}, nil)

	_, reason, ok := b.TryShoot("ghost", 1, 0, time.Now())
	assert.False(t, ok)
	assert.Equal(t, RejectInactive, reason)
}

func TestStepProjectilesAppliesDamageOnHit(t *testing.T) {
	cfg := testAppConfig()
	b := newBase("room-1", config.ModePVP, cfg, noopOutbound{}, nil)
	attacker := b.AddPlayer(PlayerProfile{DisplayName: "A", Bullets: 5}, "conn-a")
	victim := b.AddPlayer(PlayerProfile{DisplayName: "B", Bullets: 5}, "conn-b")

	victim.X, victim.Y = attacker.X+10, attacker.Y
	startHP := victim.HP

	now := time.Now()
	_, _, ok := b.TryShoot("conn-a", 1, 0, now)
	require.True(t, ok)

	var hits []ProjectileHit
	for i := 0; i < 200 && len(hits) == 0; i++ {
		now = now.Add(16 * time.Millisecond)
		hits = b.StepProjectiles(16*time.Millisecond, 2*time.Second, now)
	}

	require.NotEmpty(t, hits, "projectile should eventually reach the stationary victim")
	assert.Less(t, victim.HP, startHP)
}
