package arena

import (
	"time"

	"arenaserver/internal/config"
	"arenaserver/internal/statssink"
	"arenaserver/internal/wire"
)

// BossRoom is the cooperative Boss Battle mode: up to mc.Capacity players
// fight a single shared boss entity. Mid-match join is allowed.
type BossRoom struct {
	Base

	BossX, BossY float64
	BossHP       int
	MaxBossHP    int
	victoryFired bool
}

// NewBossRoom creates an empty Boss room seeded with a full-health boss at
// arena center.
func NewBossRoom(roomID string, cfg config.AppConfig, out Outbound, sink statssink.Sink) *BossRoom {
	r := &BossRoom{Base: newBase(roomID, config.ModeBoss, cfg, out, sink), MaxBossHP: 1000}
	mc := cfg.Modes[config.ModeBoss]
	r.BossX, r.BossY = mc.ArenaWidth/2, (mc.ArenaTopMargin+mc.ArenaHeight)/2
	r.BossHP = r.MaxBossHP
	return r
}

func (r *BossRoom) OnPlayerJoin(p *Player) error {
	if len(r.players) >= r.mc.Capacity {
		return ErrRoomFull
	}
	return nil
}

func (r *BossRoom) OnPlayerLeave(connID string, reason string) {
	r.RemovePlayer(connID)
}

func (r *BossRoom) HandleInput(connID string, in Input) {
	if p, ok := r.players[connID]; ok {
		p.Input = in
		if in.HasBossXY {
			// Boss-pull input is advisory telemetry only; the boss position
			// itself is server-driven, not client-set.
			_ = in.BossX
			_ = in.BossY
		}
	}
}

func (r *BossRoom) HandleShoot(connID string, aimX, aimY float64) ([]*Projectile, RejectReason, bool) {
	return r.TryShoot(connID, aimX, aimY, time.Now())
}

// Tick advances the Boss room one step: movement, boss-targeted
// projectiles, power-ups, lifecycle.
func (r *BossRoom) Tick(now time.Time) {
	if r.lastTickAt.IsZero() {
		r.lastTickAt = now
	}
	dt := clampDt(now.Sub(r.lastTickAt))
	r.lastTickAt = now

	r.StepMovement(dt)
	r.stepBossProjectiles(dt, now)
	r.StepPowerups(now)
	r.CheckRespawns(now)

	// defeated fires once, the tick the boss first drops to 0 HP while the
	// match is live; OnActivate below clears victoryFired for the next match.
	if r.state == StateActive && r.BossHP <= 0 && !r.victoryFired {
		r.victoryFired = true
		r.Emit(wire.OutDefeated, map[string]interface{}{"bossHp": 0})
	}

	events := r.AdvanceLifecycle(now, LifecycleHooks{
		WinConditionMet: func() bool { return r.BossHP <= 0 },
		OnActivate: func(now time.Time) {
			r.BossHP = r.MaxBossHP
			r.victoryFired = false
			for _, p := range r.players {
				r.RespawnAt(p, now)
			}
		},
		Summaries: func() []statssink.PlayerSummary { return r.summaries() },
		Winner:    func() string { return "" }, // cooperative mode, no single winner
	})
	for _, ev := range events {
		r.Emit(ev, r.Snapshot())
	}
}

// stepBossProjectiles is Boss's variant of the shared projectile step: every
// projectile targets the boss hurtbox rather than another player.
func (r *BossRoom) stepBossProjectiles(dt time.Duration, now time.Time) {
	bounds := r.Bounds()
	const bossRadius = 70.0

	n := 0
	for _, pr := range r.projectiles {
		if !pr.Integrate(dt, bounds) {
			continue
		}
		dx, dy := r.BossX-pr.X, r.BossY-pr.Y
		if dx*dx+dy*dy <= (bossRadius+pr.Radius)*(bossRadius+pr.Radius) && r.BossHP > 0 {
			attacker := r.players[pr.OwnerConnID]
			dmg := int(float64(pr.Damage) * damageMultFor(attacker, now))
			r.BossHP -= dmg
			if attacker != nil {
				attacker.BulletsHit++
				attacker.DamageDealt += dmg
				attacker.Score += dmg / 10
			}
			if r.BossHP <= 0 {
				r.BossHP = 0
			}
			continue // destroyed on boss hit, no pierce against a boss
		}
		r.projectiles[n] = pr
		n++
	}
	r.projectiles = r.projectiles[:n]
}

func (r *BossRoom) summaries() []statssink.PlayerSummary {
	out := make([]statssink.PlayerSummary, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, statssink.PlayerSummary{
			UserID: p.UserID, DisplayName: p.DisplayName, Kills: p.Kills, Deaths: p.Deaths,
			Score: p.Score, DamageDealt: p.DamageDealt, BulletsFired: p.BulletsFired,
			BulletsHit: p.BulletsHit, PowerupsTaken: p.PowerupsTaken,
		})
	}
	return out
}

func (r *BossRoom) Snapshot() RoomSnapshot {
	return r.buildSnapshot(nil)
}

// clampDt enforces the per-tick delta-time ceiling shared by every mode.
func clampDt(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	const ceiling = 120 * time.Millisecond
	if d > ceiling {
		return ceiling
	}
	return d
}
