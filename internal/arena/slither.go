package arena

import (
	"time"

	"arenaserver/internal/config"
	"arenaserver/internal/statssink"
)

const slitherTrailLen = 24
const slitherTrailSpacing = 18.0

// slitherTrail is a player's body: a fixed-length history of past positions
// sampled at a minimum spacing, used for self/other body-collision checks.
type slitherTrail struct {
	points [slitherTrailLen]pointXY
	count  int
	head   int
}

type pointXY struct{ X, Y float64 }

func (t *slitherTrail) push(x, y float64) {
	if t.count > 0 {
		last := t.points[(t.head-1+slitherTrailLen)%slitherTrailLen]
		dx, dy := x-last.X, y-last.Y
		if dx*dx+dy*dy < slitherTrailSpacing*slitherTrailSpacing {
			return
		}
	}
	t.points[t.head] = pointXY{x, y}
	t.head = (t.head + 1) % slitherTrailLen
	if t.count < slitherTrailLen {
		t.count++
	}
}

// SlitherRoom is the endless arena mode: no weapons, no win condition other
// than survival; a player dies when their head overlaps another player's
// trail. Score accrues continuously for staying alive.
type SlitherRoom struct {
	Base
	trails map[string]*slitherTrail
}

// NewSlitherRoom creates an empty Slither room.
func NewSlitherRoom(roomID string, cfg config.AppConfig, out Outbound, sink statssink.Sink) *SlitherRoom {
	return &SlitherRoom{Base: newBase(roomID, config.ModeSlither, cfg, out, sink), trails: make(map[string]*slitherTrail)}
}

func (r *SlitherRoom) OnPlayerJoin(p *Player) error {
	if len(r.players) >= r.mc.Capacity {
		return ErrRoomFull
	}
	r.trails[p.ConnID] = &slitherTrail{}
	return nil
}

func (r *SlitherRoom) OnPlayerLeave(connID string, reason string) {
	r.RemovePlayer(connID)
	delete(r.trails, connID)
}

func (r *SlitherRoom) HandleInput(connID string, in Input) {
	if p, ok := r.players[connID]; ok {
		p.Input = in
	}
}

// HandleShoot is a no-op in Slither: the mode has no weapons.
func (r *SlitherRoom) HandleShoot(connID string, aimX, aimY float64) ([]*Projectile, RejectReason, bool) {
	return nil, RejectAim, false
}

func (r *SlitherRoom) Tick(now time.Time) {
	if r.lastTickAt.IsZero() {
		r.lastTickAt = now
	}
	dt := clampDt(now.Sub(r.lastTickAt))
	r.lastTickAt = now

	r.StepMovement(dt)
	r.StepPowerups(now)
	r.CheckRespawns(now)

	if r.state == StateActive {
		r.stepBodyCollisions(now)
		r.stepSurvivalScore(now)
	}

	events := r.AdvanceLifecycle(now, LifecycleHooks{
		// Slither is endless: the only way ACTIVE ends is everyone leaving
		// (handled generically) or, optionally, a configured match duration.
		WinConditionMet: func() bool { return false },
		OnActivate: func(now time.Time) {
			for id := range r.trails {
				r.trails[id] = &slitherTrail{}
			}
			for _, p := range r.players {
				r.RespawnAt(p, now)
			}
		},
		Summaries: func() []statssink.PlayerSummary { return r.summaries() },
		Winner:    func() string { return r.winnerUserID() },
	})
	for _, ev := range events {
		r.Emit(ev, r.Snapshot())
	}

	for id, p := range r.players {
		if p.Alive {
			tr := r.trails[id]
			if tr == nil {
				tr = &slitherTrail{}
				r.trails[id] = tr
			}
			tr.push(p.X, p.Y)
		}
	}
}

func (r *SlitherRoom) stepBodyCollisions(now time.Time) {
	const headRadius = 10.0
	const skipOwnRecent = 3

	for _, id := range r.orderedConnIDs() {
		p := r.players[id]
		if !p.Alive || p.Spectator {
			continue
		}
		for otherID, tr := range r.trails {
			for i := 0; i < tr.count; i++ {
				if otherID == id && i >= tr.count-skipOwnRecent {
					continue
				}
				pt := tr.points[i]
				dx, dy := p.X-pt.X, p.Y-pt.Y
				if dx*dx+dy*dy < headRadius*headRadius {
					owner := r.players[otherID]
					if owner == p {
						owner = nil
					}
					res := ApplyDamage(p, owner, p.HP, SourcePlayer, 2*time.Second, now)
					if res.Lethal && owner != nil && owner.ConnID != p.ConnID {
						r.killfeed.Push(KillfeedEntry{KillerName: owner.DisplayName, VictimName: p.DisplayName})
					}
					return
				}
			}
		}
	}
}

func (r *SlitherRoom) stepSurvivalScore(now time.Time) {
	if now.Before(r.lastScoreTickAt.Add(time.Second)) {
		return
	}
	r.lastScoreTickAt = now
	for _, p := range r.players {
		if p.Alive && !p.Spectator {
			p.Score++
		}
	}
}

func (r *SlitherRoom) winnerUserID() string {
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

func (r *SlitherRoom) summaries() []statssink.PlayerSummary {
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

func (r *SlitherRoom) Snapshot() RoomSnapshot {
	return r.buildSnapshot(nil)
}
