package arena

import (
	"time"

	"arenaserver/internal/config"
	"arenaserver/internal/geom"
)

// Zone is the King-of-the-Zone shrinking disk. Center is constrained so the
// zone always stays within the arena's padded interior.
type Zone struct {
	CenterX, CenterY float64
	CurrentRadius    float64
	TargetRadius     float64
	ShrinkActive     bool
	ShrinkStart      time.Time
	ShrinkEnd        time.Time
	NextShrinkAt     time.Time
	nextStormAt      time.Time
}

// NewZone seeds a fresh zone at arena center.
func NewZone(cx, cy float64, cfg config.KOZConfig, now time.Time) *Zone {
	return &Zone{
		CenterX:       cx,
		CenterY:       cy,
		CurrentRadius: cfg.InitialRadius,
		TargetRadius:  cfg.InitialRadius,
		NextShrinkAt:  now.Add(cfg.ShrinkInterval),
		nextStormAt:   now.Add(cfg.StormTickInterval),
	}
}

// Inside reports whether point (x, y) lies within the zone's current radius.
func (z *Zone) Inside(x, y float64) bool {
	return geom.Distance(x, y, z.CenterX, z.CenterY) <= z.CurrentRadius
}

// StepShrink advances the shrink state machine. It returns true exactly on
// the tick a shrink completes; the caller then broadcasts
// zone_event{type: shrink_end}.
func (z *Zone) StepShrink(now time.Time, cfg config.KOZConfig) bool {
	if !z.ShrinkActive {
		if !now.Before(z.NextShrinkAt) && z.CurrentRadius > cfg.MinRadius {
			z.ShrinkActive = true
			z.ShrinkStart = now
			z.ShrinkEnd = now.Add(cfg.ShrinkDuration)
			z.TargetRadius = maxF(cfg.MinRadius, z.CurrentRadius-cfg.ShrinkStep)
		}
		return false
	}

	if now.Before(z.ShrinkEnd) {
		elapsed := now.Sub(z.ShrinkStart).Seconds()
		total := z.ShrinkEnd.Sub(z.ShrinkStart).Seconds()
		frac := 1.0
		if total > 0 {
			frac = elapsed / total
		}
		from := z.CurrentRadius
		z.CurrentRadius = from + (z.TargetRadius-from)*frac
		return false
	}

	z.CurrentRadius = z.TargetRadius
	z.ShrinkActive = false
	z.NextShrinkAt = now.Add(cfg.ShrinkInterval)
	return true
}

// DueStormTick reports whether a storm damage/regen tick is due, advancing
// the internal schedule when it fires.
func (z *Zone) DueStormTick(now time.Time, interval time.Duration) bool {
	if now.Before(z.nextStormAt) {
		return false
	}
	z.nextStormAt = now.Add(interval)
	return true
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Core is the KOZ transferable asset: its current holder accrues the meter;
// filling it grants the Overclock buff.
type Core struct {
	HolderConnID    string
	MeterSeconds    float64
	OverclockUntil  time.Time
	DroppedAt       time.Time
	droppedAtPos    bool
	X, Y            float64
}

// NewCore creates an unheld core at the zone center.
func NewCore(cx, cy float64) *Core {
	return &Core{X: cx, Y: cy}
}

// Tick advances the core meter for its current holder, if any (no holder, no
// progress), returning true the instant the meter fills and Overclock is
// granted.
func (c *Core) Tick(dt time.Duration, cfg config.KOZConfig) bool {
	if c.HolderConnID == "" {
		return false
	}
	c.MeterSeconds += dt.Seconds()
	if c.MeterSeconds >= cfg.CoreMeterSeconds {
		c.MeterSeconds = 0
		return true
	}
	return false
}

// Drop releases the core at (x, y) with a short pickup cooldown, per the
// leave() contract for a player holding a transferable asset.
func (c *Core) Drop(x, y float64, now time.Time) {
	c.HolderConnID = ""
	c.X, c.Y = x, y
	c.DroppedAt = now
	c.droppedAtPos = true
}

// PickupCooldownElapsed reports whether the short post-drop cooldown has
// passed, allowing the core to be picked up again.
func (c *Core) PickupCooldownElapsed(now time.Time, cooldown time.Duration) bool {
	if !c.droppedAtPos {
		return true
	}
	return now.Sub(c.DroppedAt) >= cooldown
}
