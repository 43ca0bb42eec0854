package arena

import (
	"math/rand"

	"arenaserver/internal/geom"
)

// spawnSamples is the number of random candidates tried before falling back
// to a grid walk (step 2 of the spawn allocation algorithm).
const spawnSamples = 80

// clearanceCheck reports whether candidate (x, y) is far enough from every
// point in occupied (at least minDist apart) and outside any hazard circle.
type clearanceCheck func(x, y float64) bool

// AllocateSpawn places a new or respawning player at a position that does
// not overlap other players, obstacles, or mode-specific hazards. It never
// rejects: sampling and grid search are best-effort, and the last resort is
// the arena center clamped into bounds.
func AllocateSpawn(rng *rand.Rand, bounds geom.Bounds, radius float64, clear clearanceCheck) (float64, float64) {
	margin := radius + 4

	for i := 0; i < spawnSamples; i++ {
		x := margin + rng.Float64()*(bounds.Width-2*margin)
		y := bounds.TopMargin + margin + rng.Float64()*(bounds.Height-bounds.TopMargin-2*margin)
		if clear(x, y) {
			return x, y
		}
	}

	step := 2*radius + 40
	if step < 40 {
		step = 40
	}
	for y := bounds.TopMargin + margin; y < bounds.Height-margin; y += step {
		for x := margin; x < bounds.Width-margin; x += step {
			if clear(x, y) {
				return x, y
			}
		}
	}

	// Last resort: clamp the arena center into bounds. Never rejects a join.
	cx, cy := bounds.Width/2, (bounds.TopMargin+bounds.Height)/2
	return bounds.ClampPoint(cx, cy, radius)
}

// ClearOfPlayers builds a clearanceCheck rejecting points within
// 2*radius+padding of any live player's center.
func ClearOfPlayers(players []*Player, radius, padding float64) clearanceCheck {
	minDist := 2*radius + padding
	return func(x, y float64) bool {
		for _, p := range players {
			if !p.Alive {
				continue
			}
			if geom.Distance(x, y, p.X, p.Y) < minDist {
				return false
			}
		}
		return true
	}
}

// CombineClear accepts only points every check in checks accepts.
func CombineClear(checks ...clearanceCheck) clearanceCheck {
	return func(x, y float64) bool {
		for _, c := range checks {
			if !c(x, y) {
				return false
			}
		}
		return true
	}
}
