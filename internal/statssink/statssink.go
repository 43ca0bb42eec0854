// Package statssink defines the thin external Stats Sink contract (§6:
// "record_match_end(match_summary): called at most once per match per room;
// must be non-blocking (queued) from the server's perspective") and a
// queued adapter that satisfies the non-blocking requirement without the
// core ever touching persistence.
package statssink

import (
	"context"
	"time"
)

// PlayerSummary is one player's contribution to a completed match.
type PlayerSummary struct {
	UserID        string
	DisplayName   string
	Kills         int
	Deaths        int
	Score         int
	DamageDealt   int
	BulletsFired  int
	BulletsHit    int
	PowerupsTaken int
}

// MatchSummary is the append-only record handed to the sink at match end
// (§4.7 RESULTS transition).
type MatchSummary struct {
	RoomID    string
	Mode      string
	StartedAt time.Time
	EndedAt   time.Time
	Players   []PlayerSummary
	Winner    string // user id, or "" for a draw/no winner
}

// Sink is the consumed interface. Implementations must not block the
// caller — RecordMatchEnd is called from the room's match-end code path
// inside Tick, while the room's lock is still held, so a slow external
// write would stall that room's tick.
type Sink interface {
	RecordMatchEnd(ctx context.Context, summary MatchSummary)
}

// NoopSink discards every summary. Useful for local development and tests
// that don't care about persistence.
type NoopSink struct{}

// RecordMatchEnd does nothing.
func (NoopSink) RecordMatchEnd(ctx context.Context, summary MatchSummary) {}
