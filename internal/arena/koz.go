package arena

import (
	"time"

	"arenaserver/internal/config"
	"arenaserver/internal/statssink"
	"arenaserver/internal/wire"
)

// KOZRoom is King-of-the-Zone: a shrinking zone with a transferable core,
// storm damage outside the zone, and regen inside it.
type KOZRoom struct {
	Base
	zone         *Zone
	core         *Core
	targetScore  int
}

// NewKOZRoom creates an empty KOZ room with the zone/core seeded at arena
// center.
func NewKOZRoom(roomID string, cfg config.AppConfig, out Outbound, sink statssink.Sink) *KOZRoom {
	r := &KOZRoom{Base: newBase(roomID, config.ModeKOZ, cfg, out, sink), targetScore: 50}
	mc := cfg.Modes[config.ModeKOZ]
	cx, cy := mc.ArenaWidth/2, (mc.ArenaTopMargin+mc.ArenaHeight)/2
	r.zone = NewZone(cx, cy, cfg.KOZ, time.Now())
	r.core = NewCore(cx, cy)
	return r
}

// OnPlayerJoin only rejects; it never mutates p (a throwaway placeholder at
// this point in the join sequence — see AddPlayer below for the spectator
// decision applied to the real player).
func (r *KOZRoom) OnPlayerJoin(p *Player) error {
	if len(r.players) >= r.mc.Capacity {
		return ErrRoomFull
	}
	forcedSpectator := len(r.players) >= r.mc.MaxActivePlayers || r.state == StateActive || r.state == StateResults
	if forcedSpectator {
		return nil
	}
	return nil
}

// AddPlayer shadows Base.AddPlayer to additionally force spectator status
// once the room is mid-match or beyond MaxActivePlayers, per §4.1's KOZ
// matchmaking rule (Base's own heuristic only looks at player count, not
// match state).
func (r *KOZRoom) AddPlayer(profile PlayerProfile, connID string) *Player {
	forceSpectator := len(r.players) >= r.mc.MaxActivePlayers || r.state == StateActive || r.state == StateResults
	p := r.Base.AddPlayer(profile, connID)
	if forceSpectator {
		p.Spectator = true
	}
	return p
}

func (r *KOZRoom) OnPlayerLeave(connID string, reason string) {
	if p, ok := r.RemovePlayer(connID); ok {
		if r.core.HolderConnID == connID {
			r.core.Drop(p.X, p.Y, time.Now())
			r.Emit(wire.OutControlChanged, wire.ControlChangedPayload{HolderConnID: ""})
		}
	}
}

func (r *KOZRoom) HandleInput(connID string, in Input) {
	if p, ok := r.players[connID]; ok {
		p.Input = in
	}
}

func (r *KOZRoom) HandleShoot(connID string, aimX, aimY float64) ([]*Projectile, RejectReason, bool) {
	return r.TryShoot(connID, aimX, aimY, time.Now())
}

func (r *KOZRoom) Tick(now time.Time) {
	if r.lastTickAt.IsZero() {
		r.lastTickAt = now
	}
	dt := clampDt(now.Sub(r.lastTickAt))
	r.lastTickAt = now

	r.StepMovement(dt)
	respawnDelay := 3 * time.Second
	r.StepProjectiles(dt, respawnDelay, now)
	r.StepPowerups(now)
	r.CheckRespawns(now)

	if r.state == StateActive {
		if r.zone.StepShrink(now, r.cfg.KOZ) {
			r.Emit(wire.OutZoneEvent, wire.ZoneEventPayload{
				Type: "shrink_end", CenterX: r.zone.CenterX, CenterY: r.zone.CenterY, Radius: r.zone.CurrentRadius,
			})
		}
		r.stepStorm(now, respawnDelay)
		r.stepCorePickup(now)
		if r.core.Tick(dt, r.cfg.KOZ) {
			if p, ok := r.players[r.core.HolderConnID]; ok {
				p.DamageMultUntil = now.Add(r.cfg.KOZ.OverclockDuration)
				p.SpeedUntil = now.Add(r.cfg.KOZ.OverclockDuration)
			}
		}
		r.stepScoring(now)
	}

	events := r.AdvanceLifecycle(now, LifecycleHooks{
		WinConditionMet: func() bool { return r.leaderScore() >= r.targetScore },
		OnActivate: func(now time.Time) {
			cx, cy := r.mc.ArenaWidth/2, (r.mc.ArenaTopMargin+r.mc.ArenaHeight)/2
			r.zone = NewZone(cx, cy, r.cfg.KOZ, now)
			r.core = NewCore(cx, cy)
			for _, p := range r.players {
				p.Score = 0
				r.RespawnAt(p, now)
			}
		},
		Summaries: func() []statssink.PlayerSummary { return r.summaries() },
		Winner:    func() string { return r.winnerUserID() },
	})
	for _, ev := range events {
		r.Emit(ev, r.Snapshot())
	}
}

func (r *KOZRoom) stepStorm(now time.Time, respawnDelay time.Duration) {
	if !r.zone.DueStormTick(now, r.cfg.KOZ.StormTickInterval) {
		return
	}
	for _, p := range r.players {
		if !p.Alive || p.Spectator {
			continue
		}
		if r.zone.Inside(p.X, p.Y) {
			p.HP += r.cfg.KOZ.RegenInside
			if p.HP > p.MaxHP {
				p.HP = p.MaxHP
			}
			continue
		}
		res := ApplyDamage(p, nil, r.cfg.KOZ.StormDamage, SourceStorm, respawnDelay, now)
		if res.Lethal {
			r.killfeed.Push(KillfeedEntry{KillerName: "storm", VictimName: p.DisplayName})
			if r.core.HolderConnID == p.ConnID {
				r.core.Drop(p.X, p.Y, now)
				r.Emit(wire.OutControlChanged, wire.ControlChangedPayload{HolderConnID: ""})
			}
		}
	}
}

func (r *KOZRoom) stepCorePickup(now time.Time) {
	if r.core.HolderConnID != "" {
		if holder, ok := r.players[r.core.HolderConnID]; ok {
			r.core.X, r.core.Y = holder.X, holder.Y
		}
		return
	}
	if !r.core.PickupCooldownElapsed(now, 2*time.Second) {
		return
	}
	ids := r.orderedConnIDs()
	r.rebuildGrid(ids)
	for _, id := range r.nearbyConnIDs(ids, r.core.X, r.core.Y, r.cfg.KOZ.CoreRadius+r.mc.PlayerRadius) {
		p := r.players[id]
		if !p.Alive || p.Spectator {
			continue
		}
		if CheckPickup(p, &Powerup{X: r.core.X, Y: r.core.Y, Radius: r.cfg.KOZ.CoreRadius}, r.mc.PlayerRadius) {
			r.core.HolderConnID = p.ConnID
			r.Emit(wire.OutControlChanged, wire.ControlChangedPayload{HolderConnID: p.ConnID})
			return
		}
	}
}

func (r *KOZRoom) stepScoring(now time.Time) {
	if now.Before(r.lastScoreTickAt.Add(r.cfg.KOZ.ScoreTickInterval)) {
		return
	}
	r.lastScoreTickAt = now
	for _, p := range r.players {
		if !p.Alive || p.Spectator {
			continue
		}
		if r.zone.Inside(p.X, p.Y) {
			p.Score += r.cfg.KOZ.ControllerScore
		}
		if p.ConnID == r.core.HolderConnID {
			p.Score += r.cfg.KOZ.CoreBonusScore
		}
	}
}

func (r *KOZRoom) leaderScore() int {
	best := 0
	for _, p := range r.players {
		if p.Score > best {
			best = p.Score
		}
	}
	return best
}

func (r *KOZRoom) winnerUserID() string {
	var best *Player
	for _, p := range r.players {
		if best == nil || p.Score > best.Score {
			best = p
		}
	}
	if best == nil {
		return ""
	}
	return best.UserID
}

func (r *KOZRoom) summaries() []statssink.PlayerSummary {
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

func (r *KOZRoom) Snapshot() RoomSnapshot {
	zs := &ZoneSnapshot{
		CenterX: r.zone.CenterX, CenterY: r.zone.CenterY, Radius: r.zone.CurrentRadius,
		CoreHolderConnID: r.core.HolderConnID, CoreMeter: r.core.MeterSeconds,
	}
	return r.buildSnapshot(zs)
}
