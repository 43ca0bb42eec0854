package arena

import (
	"time"

	"arenaserver/internal/config"
	"arenaserver/internal/geom"
)

// Powerup is a room-owned pickup.
type Powerup struct {
	ID        string
	Type      config.PowerupType
	X, Y      float64
	Radius    float64
	SpawnedAt time.Time
}

// PowerupSpawner tracks spawn cadence independent of the room's tick rate.
type PowerupSpawner struct {
	cfg        config.PowerupConfig
	nextSpawn  time.Time
}

// NewPowerupSpawner creates a spawner seeded to fire its first spawn after
// one interval.
func NewPowerupSpawner(cfg config.PowerupConfig, now time.Time) *PowerupSpawner {
	return &PowerupSpawner{cfg: cfg, nextSpawn: now.Add(cfg.SpawnInterval)}
}

// ShouldSpawn reports whether cadence and population ceiling allow a new
// power-up right now.
func (s *PowerupSpawner) ShouldSpawn(now time.Time, active int) bool {
	return !now.Before(s.nextSpawn) && active < s.cfg.MaxActive
}

// Advance schedules the next spawn attempt.
func (s *PowerupSpawner) Advance(now time.Time) {
	s.nextSpawn = now.Add(s.cfg.SpawnInterval)
}

// ApplyPowerupEffect mutates the collecting player per the effect table.
// Instant effects (heal, shield, ammo) change state once; timed effects set
// an expiry the player's accessors consult each tick.
func ApplyPowerupEffect(p *Player, eff config.PowerupEffect, now time.Time) {
	switch eff.Type {
	case config.PowerupHeal:
		p.HP += int(eff.Multiplier)
		if p.HP > p.MaxHP {
			p.HP = p.MaxHP
		}
	case config.PowerupSpeed:
		p.SpeedUntil = now.Add(eff.Duration)
	case config.PowerupShield:
		p.ArmorShield += int(eff.Multiplier)
	case config.PowerupRapidFire:
		p.RapidFireUntil = now.Add(eff.Duration)
	case config.PowerupDamage:
		p.DamageMultUntil = now.Add(eff.Duration)
	case config.PowerupAmmo:
		p.Ammo += int(eff.Multiplier)
	case config.PowerupVisionPing:
		p.VisionUntil = now.Add(eff.Duration)
	}
	p.PowerupsTaken++
}

// CheckPickup reports whether a live player's center lies within pickup
// range of the power-up.
func CheckPickup(p *Player, pu *Powerup, playerRadius float64) bool {
	if !p.Alive || p.Spectator {
		return false
	}
	return geom.Distance(p.X, p.Y, pu.X, pu.Y) <= playerRadius+pu.Radius
}
