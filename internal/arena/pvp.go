package arena

import (
	"time"

	"arenaserver/internal/config"
	"arenaserver/internal/statssink"
)

// PVPRoom is the 1-vs-1 duel mode: capacity 2, no mid-match join, both
// sides must ready up before the countdown starts.
type PVPRoom struct {
	Base
	lastWinnerUserID string
}

// NewPVPRoom creates an empty PVP room.
func NewPVPRoom(roomID string, cfg config.AppConfig, out Outbound, sink statssink.Sink) *PVPRoom {
	return &PVPRoom{Base: newBase(roomID, config.ModePVP, cfg, out, sink)}
}

func (r *PVPRoom) OnPlayerJoin(p *Player) error {
	if len(r.players) >= r.mc.Capacity {
		return ErrRoomFull
	}
	if r.state != StateLobby && !r.mc.AllowMidMatchJoin {
		return ErrWrongState
	}
	return nil
}

func (r *PVPRoom) OnPlayerLeave(connID string, reason string) {
	if _, ok := r.RemovePlayer(connID); ok && r.state == StateActive {
		// Sole remaining player wins by forfeit.
		for _, p := range r.players {
			r.lastWinnerUserID = p.UserID
		}
	}
}

func (r *PVPRoom) HandleInput(connID string, in Input) {
	if p, ok := r.players[connID]; ok {
		p.Input = in
	}
}

// SetReady marks a player ready; bothReady is wired into AdvanceLifecycle as
// the LOBBY -> COUNTDOWN precondition (LifecycleHooks.ReadyToStart), so the
// countdown only ever starts once both this flag and the capacity check
// agree, and losing readiness mid-countdown reverts to LOBBY the same tick.
func (r *PVPRoom) SetReady(connID string) {
	if p, ok := r.players[connID]; ok {
		p.ReadyUp = true
	}
}

func (r *PVPRoom) bothReady() bool {
	if len(r.players) < r.mc.MinPlayersToStart {
		return false
	}
	for _, p := range r.players {
		if !p.ReadyUp {
			return false
		}
	}
	return true
}

func (r *PVPRoom) HandleShoot(connID string, aimX, aimY float64) ([]*Projectile, RejectReason, bool) {
	return r.TryShoot(connID, aimX, aimY, time.Now())
}

func (r *PVPRoom) Tick(now time.Time) {
	if r.lastTickAt.IsZero() {
		r.lastTickAt = now
	}
	dt := clampDt(now.Sub(r.lastTickAt))
	r.lastTickAt = now

	r.StepMovement(dt)
	respawnDelay := 2 * time.Second
	r.StepProjectiles(dt, respawnDelay, now)
	r.StepPowerups(now)
	r.CheckRespawns(now)

	events := r.AdvanceLifecycle(now, LifecycleHooks{
		WinConditionMet: func() bool { return r.oneSideEliminated() },
		ReadyToStart:    r.bothReady,
		OnActivate: func(now time.Time) {
			for _, p := range r.players {
				p.ReadyUp = false
				r.RespawnAt(p, now)
			}
		},
		Summaries: func() []statssink.PlayerSummary { return r.summaries() },
		Winner:    func() string { return r.winner() },
	})
	for _, ev := range events {
		r.Emit(ev, r.Snapshot())
	}
}

func (r *PVPRoom) oneSideEliminated() bool {
	aliveCount := 0
	for _, p := range r.players {
		if p.Alive {
			aliveCount++
		}
	}
	return len(r.players) >= 1 && aliveCount <= 1
}

func (r *PVPRoom) winner() string {
	for _, p := range r.players {
		if p.Alive {
			return p.UserID
		}
	}
	return r.lastWinnerUserID
}

func (r *PVPRoom) summaries() []statssink.PlayerSummary {
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

func (r *PVPRoom) Snapshot() RoomSnapshot {
	return r.buildSnapshot(nil)
}
