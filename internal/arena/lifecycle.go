package arena

import (
	"time"

	"arenaserver/internal/statssink"
)

// LifecycleHooks lets a mode-specific room plug its own win condition and
// per-state reseed logic into the shared FSM.
type LifecycleHooks struct {
	// WinConditionMet is checked every tick while ACTIVE.
	WinConditionMet func() bool
	// ReadyToStart is an extra precondition on top of player count for the
	// LOBBY -> COUNTDOWN transition, rechecked every COUNTDOWN tick; losing
	// it reverts to LOBBY with countdown_cancelled, same as dropping below
	// min_players_to_start. Nil means always ready (every mode but PVP).
	ReadyToStart func() bool
	// OnActivate runs after AdvanceLifecycle has cleared projectiles,
	// powerups and the killfeed; it reseeds mode state (zone, boss hp, ...)
	// and respawns every active player.
	OnActivate func(now time.Time)
	// Summaries builds the per-player MatchSummary rows for RESULTS.
	Summaries func() []statssink.PlayerSummary
	// Winner returns the winning user id, or "" for a draw.
	Winner func() string
	// OnReset re-seeds map state for the next LOBBY, before spectators are
	// promoted.
	OnReset func()
}

// AdvanceLifecycle runs one FSM step. Call it once per tick, after
// mode-specific hazard and scoring steps, and before taking the snapshot.
// It returns the outbound events the caller must broadcast (names only; the
// caller supplies concrete payloads because those are mode-specific).
func (b *Base) AdvanceLifecycle(now time.Time, h LifecycleHooks) []string {
	var events []string

	switch b.state {
	case StateLobby:
		ready := h.ReadyToStart == nil || h.ReadyToStart()
		if b.ActivePlayerCount() >= b.mc.MinPlayersToStart && ready {
			b.state = StateCountdown
			b.countdownEndAt = now.Add(b.mc.CountdownDuration)
			events = append(events, "countdown_start")
		}

	case StateCountdown:
		ready := h.ReadyToStart == nil || h.ReadyToStart()
		if b.ActivePlayerCount() < b.mc.MinPlayersToStart || !ready {
			b.state = StateLobby
			events = append(events, "countdown_cancelled")
			break
		}
		if !now.Before(b.countdownEndAt) {
			b.state = StateActive
			b.projectiles = b.projectiles[:0]
			b.powerups = b.powerups[:0]
			b.killfeed = Killfeed{}
			if b.mc.MatchDuration > 0 {
				b.matchEndAt = now.Add(b.mc.MatchDuration)
			}
			if h.OnActivate != nil {
				h.OnActivate(now)
			}
			events = append(events, "match_start")
		}

	case StateActive:
		timeUp := b.mc.MatchDuration > 0 && !now.Before(b.matchEndAt)
		if timeUp || (h.WinConditionMet != nil && h.WinConditionMet()) {
			b.state = StateResults
			b.resultsEndAt = now.Add(b.mc.ResultsDuration)
			if b.sink != nil && h.Summaries != nil {
				winner := ""
				if h.Winner != nil {
					winner = h.Winner()
				}
				summary := statssink.MatchSummary{
					RoomID:    b.roomID,
					Mode:      string(b.mode),
					StartedAt: b.createdAt,
					EndedAt:   now,
					Players:   h.Summaries(),
					Winner:    winner,
				}
				b.sink.RecordMatchEnd(roomRecordCtx(), summary)
			}
			events = append(events, "match_end", "results")
		}
		if b.ActivePlayerCount() == 0 {
			// Force reset: everyone left mid-match.
			b.state = StateLobby
			events = append(events, "match_state")
		}

	case StateResults:
		if !now.Before(b.resultsEndAt) {
			b.state = StateLobby
			if h.OnReset != nil {
				h.OnReset()
			}
			for _, p := range b.players {
				p.Spectator = false
			}
			events = append(events, "match_state")
		}
	}

	return events
}
