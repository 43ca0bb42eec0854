package arena

import (
	"math"
	"time"

	"arenaserver/internal/config"
	"arenaserver/internal/geom"
)

// Projectile is a room-owned moving attack entity. OwnerConnID refers to the
// player present at spawn time; damage is still attributed to that user id
// even if the owner has since left the room.
type Projectile struct {
	ID             string
	OwnerConnID    string
	OwnerUserID    string
	WeaponType     string
	X, Y           float64
	VX, VY         float64
	Radius         float64
	Damage         int
	Age            time.Duration
	Lifetime       time.Duration
	PierceRemain   int
	BouncesRemain  int
	SplashRadius   float64
	alreadyHit     map[string]bool // conn ids already damaged this flight, for pierce
}

// SpawnProjectiles builds one projectile per spread offset in the weapon
// table, aimed from (x, y) toward (aimX, aimY).
func SpawnProjectiles(idGen func() string, owner *Player, w config.Weapon, aimX, aimY float64) []*Projectile {
	dx, dy := aimX-owner.X, aimY-owner.Y
	base := math.Atan2(dy, dx)

	out := make([]*Projectile, 0, len(w.Spread))
	for _, off := range w.Spread {
		angle := base + off
		p := &Projectile{
			ID:            idGen(),
			OwnerConnID:   owner.ConnID,
			OwnerUserID:   owner.UserID,
			WeaponType:    owner.WeaponType,
			X:             owner.X,
			Y:             owner.Y,
			VX:            math.Cos(angle) * w.Speed,
			VY:            math.Sin(angle) * w.Speed,
			Radius:        w.Radius,
			Damage:        w.Damage,
			Lifetime:      w.Lifetime,
			PierceRemain:  w.Pierce,
			BouncesRemain: w.Bounces,
			SplashRadius:  w.Splash,
			alreadyHit:    make(map[string]bool, 1),
		}
		out = append(out, p)
	}
	return out
}

// Integrate advances the projectile one tick and resolves wall bounce. It
// returns false when the projectile's lifetime has expired, or when it left
// the bounds with no bounces remaining, and it should be destroyed before
// collision checks.
func (pr *Projectile) Integrate(dt time.Duration, bounds geom.Bounds) bool {
	pr.Age += dt
	if pr.Age > pr.Lifetime {
		return false
	}

	secs := dt.Seconds()
	pr.X += pr.VX * secs
	pr.Y += pr.VY * secs

	if pr.X < 0 || pr.X > bounds.Width || pr.Y < bounds.TopMargin || pr.Y > bounds.Height {
		if pr.BouncesRemain > 0 {
			if pr.X < 0 || pr.X > bounds.Width {
				pr.VX = -pr.VX
			}
			if pr.Y < bounds.TopMargin || pr.Y > bounds.Height {
				pr.VY = -pr.VY
			}
			pr.X = geom.Clamp(pr.X, 0, bounds.Width)
			pr.Y = geom.Clamp(pr.Y, bounds.TopMargin, bounds.Height)
			pr.BouncesRemain--
			return true
		}
		return false
	}
	return true
}

// HitsPlayer reports whether the projectile's center overlaps the given
// live, non-owner player.
func (pr *Projectile) HitsPlayer(p *Player, playerRadius float64) bool {
	if p.ConnID == pr.OwnerConnID || !p.Alive || p.Spectator {
		return false
	}
	if pr.alreadyHit[p.ConnID] {
		return false
	}
	dist := geom.Distance(pr.X, pr.Y, p.X, p.Y)
	return dist < pr.Radius+playerRadius
}

// WithinSplash reports whether p lies inside the projectile's splash
// footprint, excluding the primary target and the owner.
func (pr *Projectile) WithinSplash(p *Player, primary *Player) bool {
	if pr.SplashRadius <= 0 || p.ConnID == pr.OwnerConnID || p == primary {
		return false
	}
	if !p.Alive || p.Spectator {
		return false
	}
	return geom.Distance(pr.X, pr.Y, p.X, p.Y) <= pr.SplashRadius
}
