package arena

import (
	"sync/atomic"
	"time"

	"arenaserver/internal/spatial"
)

// PlayerSnapshot is an immutable copy of one player's broadcastable state.
type PlayerSnapshot struct {
	ConnID      string
	DisplayName string
	X, Y        float64
	Facing      float64
	HP, MaxHP   int
	Shield      int
	Alive       bool
	Score       int
	Kills       int
	Deaths      int
	Spectator   bool
	WeaponType  string
}

// ProjectileSnapshot is an immutable copy of one projectile's render state.
type ProjectileSnapshot struct {
	ID         string
	X, Y       float64
	WeaponType string
}

// PowerupSnapshot is an immutable copy of one power-up's render state.
type PowerupSnapshot struct {
	ID   string
	Type string
	X, Y float64
}

// LeaderboardEntry is one ranked row of the room's scoreboard.
type LeaderboardEntry struct {
	Rank        int
	ConnID      string
	DisplayName string
	Score       int
}

// ZoneSnapshot mirrors the KOZ zone/core state; zero value for non-KOZ modes.
type ZoneSnapshot struct {
	CenterX, CenterY float64
	Radius           float64
	CoreHolderConnID string
	CoreMeter        float64
}

// RoomSnapshot is the periodic, coarse delta of room state broadcast at
// snapshot cadence: player positions + hp, zone radius, scoreboard, and the
// killfeed tail.
type RoomSnapshot struct {
	Sequence    uint64
	Timestamp   time.Time
	RoomID      string
	Mode        string
	State       string
	Players     []PlayerSnapshot
	Projectiles []ProjectileSnapshot
	Powerups    []PowerupSnapshot
	Zone        *ZoneSnapshot
	Killfeed    []KillfeedEntry
	Leaderboard []LeaderboardEntry
}

// ProjectileSnapshotOf copies one projectile's render state, for the
// immediate projectile_spawned event (distinct from the periodic
// RoomSnapshot.Projectiles list).
func ProjectileSnapshotOf(pr *Projectile) ProjectileSnapshot {
	return ProjectileSnapshot{ID: pr.ID, X: pr.X, Y: pr.Y, WeaponType: pr.WeaponType}
}

// snapshotSeq is a global monotonic counter so snapshots across all rooms
// carry a strictly increasing sequence, useful for client-side staleness
// checks.
var snapshotSeq uint64

func nextSnapshotSeq() uint64 {
	return atomic.AddUint64(&snapshotSeq, 1)
}

// buildSnapshot copies Base state into a RoomSnapshot. Callers hold the
// room lock; the returned value is a plain copy and safe to hand to the
// broadcaster after unlocking.
func (b *Base) buildSnapshot(zone *ZoneSnapshot) RoomSnapshot {
	players := make([]PlayerSnapshot, 0, len(b.players))
	for _, p := range b.players {
		players = append(players, PlayerSnapshot{
			ConnID:      p.ConnID,
			DisplayName: p.DisplayName,
			X:           p.X,
			Y:           p.Y,
			Facing:      p.Facing,
			HP:          p.HP,
			MaxHP:       p.MaxHP,
			Shield:      p.ArmorShield,
			Alive:       p.Alive,
			Score:       p.Score,
			Kills:       p.Kills,
			Deaths:      p.Deaths,
			Spectator:   p.Spectator,
			WeaponType:  p.WeaponType,
		})
	}

	projectiles := make([]ProjectileSnapshot, 0, len(b.projectiles))
	for _, pr := range b.projectiles {
		projectiles = append(projectiles, ProjectileSnapshot{ID: pr.ID, X: pr.X, Y: pr.Y, WeaponType: pr.WeaponType})
	}

	powerups := make([]PowerupSnapshot, 0, len(b.powerups))
	for _, pu := range b.powerups {
		powerups = append(powerups, PowerupSnapshot{ID: pu.ID, Type: string(pu.Type), X: pu.X, Y: pu.Y})
	}

	return RoomSnapshot{
		Sequence:    nextSnapshotSeq(),
		Timestamp:   time.Now(),
		RoomID:      b.roomID,
		Mode:        string(b.mode),
		State:       b.state.String(),
		Players:     players,
		Projectiles: projectiles,
		Powerups:    powerups,
		Zone:        zone,
		Killfeed:    b.killfeed.Tail(),
		Leaderboard: b.leaderboard(),
	}
}

// leaderboard ranks current players by score using a skip list (O(log n)
// inserts, rank order for free via ForEach), rebuilt fresh each snapshot
// since a room's player count is always small enough that this costs less
// than maintaining an incremental structure across scoring events.
func (b *Base) leaderboard() []LeaderboardEntry {
	if len(b.players) == 0 {
		return nil
	}

	sl := spatial.NewSkipList()
	for id, p := range b.players {
		sl.Insert(id, float64(p.Score))
	}

	out := make([]LeaderboardEntry, 0, len(b.players))
	sl.ForEach(func(rank int, entry spatial.SkipListEntry) bool {
		p := b.players[entry.Key]
		out = append(out, LeaderboardEntry{Rank: rank, ConnID: entry.Key, DisplayName: p.DisplayName, Score: int(entry.Score)})
		return true
	})
	return out
}
