// Package arena implements the authoritative per-room simulation: players,
// projectiles, power-ups, zone dynamics, and the match lifecycle that drives
// them. Rooms are ticked by the gateway's shared scheduler; all room state
// is touched only under the room's lock.
package arena

import (
	"time"

	"arenaserver/internal/config"
)

// Input captures the most recent movement/aim request a connection has sent.
// The room only ever reads the latest input per tick; earlier ones are
// overwritten, never queued.
type Input struct {
	Seq       uint64
	AxisX     float64 // normalized movement axis, [-1, 1]
	AxisY     float64
	AimX      float64
	AimY      float64
	HasAim    bool
	BossX     float64 // Boss mode: separately reported boss pull target
	BossY     float64
	HasBossXY bool
}

// Player is a connection's state while attached to a room. Exclusive owner:
// the room holding it; only touched under that room's lock.
type Player struct {
	ConnID      string
	UserID      string
	DisplayName string
	AvatarRef   string
	HeroClass   string
	WeaponType  string

	X, Y            float64
	VX, VY          float64
	Facing          float64
	SpeedMultiplier float64

	HP              int
	MaxHP           int
	ArmorShield     int
	DamageMultUntil time.Time
	SpeedUntil      time.Time
	RapidFireUntil  time.Time
	VisionUntil     time.Time

	Ammo          int
	BulletsFired  int
	BulletsHit    int
	DamageDealt   int
	PowerupsTaken int

	Alive      bool
	Score      int
	Kills      int
	Deaths     int
	RespawnAt  time.Time
	JoinedAt   time.Time
	Spectator  bool
	ReadyUp    bool // PVP ready-up handshake
	AwayTab    bool

	LastShotAt  time.Time
	NextAmmoAt  time.Time
	StormTickAt time.Time

	Input Input
}

// NewPlayer creates a player occupying spawn point (x, y) in the given mode.
func NewPlayer(connID string, profile PlayerProfile, mc config.ModeConfig, x, y float64) *Player {
	return &Player{
		ConnID:          connID,
		UserID:          profile.UserID,
		DisplayName:     profile.DisplayName,
		AvatarRef:       profile.AvatarRef,
		HeroClass:       profile.HeroClass,
		WeaponType:      firstNonEmpty(profile.WeaponType, "bulwark-disc"),
		X:               x,
		Y:               y,
		SpeedMultiplier: 1.0,
		HP:              100,
		MaxHP:           100,
		Ammo:            firstNonZero(profile.Bullets, 30),
		Alive:           true,
		JoinedAt:        time.Now(),
	}
}

// PlayerProfile is the join-time profile carried on `<mode>_join_room`.
type PlayerProfile struct {
	UserID      string
	DisplayName string
	AvatarRef   string
	HeroClass   string
	WeaponType  string
	Bullets     int
	Lives       int
}

// DamageMultiplier returns the player's current outgoing damage multiplier,
// including any active damage power-up.
func (p *Player) DamageMultiplier(now time.Time) float64 {
	if now.Before(p.DamageMultUntil) {
		return 1.3
	}
	return 1.0
}

// EffectiveSpeed returns base speed scaled by the player's active speed
// power-up, if any.
func (p *Player) EffectiveSpeed(base float64, now time.Time) float64 {
	mult := p.SpeedMultiplier
	if now.Before(p.SpeedUntil) {
		mult *= 1.35
	}
	return base * mult
}

// CooldownScale returns the cooldown multiplier applied to weapon fire rate
// (rapid-fire power-up shortens cooldowns).
func (p *Player) CooldownScale(now time.Time) float64 {
	if now.Before(p.RapidFireUntil) {
		return 0.68
	}
	return 1.0
}

// HasVision reports whether the player's vision-ping power-up is active.
func (p *Player) HasVision(now time.Time) bool {
	return now.Before(p.VisionUntil)
}

func firstNonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func firstNonZero(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
