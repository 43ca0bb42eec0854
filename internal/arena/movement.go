package arena

import (
	"math"
	"sort"
	"time"

	"arenaserver/internal/geom"
)

// Bounds returns the arena's play area derived from this room's mode config.
func (b *Base) Bounds() geom.Bounds {
	return geom.Bounds{Width: b.mc.ArenaWidth, Height: b.mc.ArenaHeight, TopMargin: b.mc.ArenaTopMargin}
}

// StepMovement performs input integration, bounds clamp, obstacle
// resolution, and deterministic player-player push-apart. This is steps 1-4
// of the per-tick order shared by every mode.
func (b *Base) StepMovement(dt time.Duration) {
	bounds := b.Bounds()
	secs := dt.Seconds()
	radius := b.mc.PlayerRadius
	now := time.Now()

	ids := b.orderedConnIDs()

	for _, id := range ids {
		p := b.players[id]
		if !p.Alive || p.Spectator {
			continue
		}

		ax, ay := geom.Normalize(p.Input.AxisX, p.Input.AxisY)
		speed := p.EffectiveSpeed(b.mc.BaseSpeed, now)
		p.VX = ax * speed
		p.VY = ay * speed
		p.X += p.VX * secs
		p.Y += p.VY * secs

		if ax != 0 || ay != 0 {
			p.Facing = math.Atan2(ay, ax)
		}

		p.X, p.Y = bounds.ClampPoint(p.X, p.Y, radius)

		for _, obs := range b.obstacles {
			if obs.Rect == nil {
				continue
			}
			push, overlap := geom.CircleRectOverlap(p.X, p.Y, radius, geom.Rect{
				X: obs.Rect.X, Y: obs.Rect.Y, Width: obs.Rect.Width, Height: obs.Rect.Height,
			})
			if overlap {
				p.X += push.X
				p.Y += push.Y
				if push.X != 0 {
					p.VX = 0
				}
				if push.Y != 0 {
					p.VY = 0
				}
			}
		}
	}

	// Pairwise resolution: a sweep-and-prune broad phase narrows the full
	// O(n^2) candidate set to x-overlapping pairs, each still confirmed with
	// an exact circle check before resolving. Candidate pairs are sorted
	// into ascending-index order before resolving, the same order the plain
	// nested loop they replace would have visited them in, so determinism
	// is unaffected by the broad phase's internal sweep order.
	positions := make([][2]float32, len(ids))
	eligible := make([]bool, len(ids))
	for i, id := range ids {
		p := b.players[id]
		positions[i] = [2]float32{float32(p.X), float32(p.Y)}
		eligible[i] = p.Alive && !p.Spectator
	}

	pairs := b.sap.UpdateFromSlice(positions, float32(radius))
	sort.Slice(pairs, func(x, y int) bool {
		ax, bx := orderedPair(pairs[x].A, pairs[x].B)
		ay, by := orderedPair(pairs[y].A, pairs[y].B)
		if ax != ay {
			return ax < ay
		}
		return bx < by
	})

	for _, pair := range pairs {
		i, j := orderedPair(pair.A, pair.B)
		if !eligible[i] || !eligible[j] {
			continue
		}
		pi := b.players[ids[i]]
		pj := b.players[ids[j]]
		nx, ny, overlap, ok := geom.CirclesOverlap(pi.X, pi.Y, radius, pj.X, pj.Y, radius)
		if !ok {
			continue
		}
		half := overlap / 2
		pi.X -= nx * half
		pi.Y -= ny * half
		pj.X += nx * half
		pj.Y += ny * half
		pi.X, pi.Y = bounds.ClampPoint(pi.X, pi.Y, radius)
		pj.X, pj.Y = bounds.ClampPoint(pj.X, pj.Y, radius)
	}
}

// orderedPair returns a sweep-and-prune pair's entity indices as ascending ints.
func orderedPair(a, b uint32) (int, int) {
	if a < b {
		return int(a), int(b)
	}
	return int(b), int(a)
}

// orderedConnIDs returns connection ids sorted ascending, the determinism
// requirement for pairwise collision resolution.
func (b *Base) orderedConnIDs() []string {
	ids := make([]string, 0, len(b.players))
	for id := range b.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
