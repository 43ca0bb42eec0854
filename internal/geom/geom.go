// Package geom provides the small set of numeric primitives every room
// simulation needs: clamping, distance, and circle/rect overlap resolution.
// It has no knowledge of players, rooms, or modes.
package geom

import "math"

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X, Y float64
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Distance returns the Euclidean distance between two points.
func Distance(ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSq returns the squared Euclidean distance (avoids the sqrt when
// only comparing distances, e.g. nearest-neighbor scans).
func DistanceSq(ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay
	return dx*dx + dy*dy
}

// Rect is an axis-aligned rectangle in world space.
type Rect struct {
	X, Y          float64 // top-left corner
	Width, Height float64
}

// Bounds is a rectangular play area with an optional top margin (used by
// modes that reserve a UI strip, e.g. Boss health bar).
type Bounds struct {
	Width, Height float64
	TopMargin     float64
}

// ClampPoint clamps (x, y) to lie within the bounds, inset by margin on all
// sides (and additionally by TopMargin at the top).
func (b Bounds) ClampPoint(x, y, margin float64) (float64, float64) {
	x = Clamp(x, margin, b.Width-margin)
	y = Clamp(y, b.TopMargin+margin, b.Height-margin)
	return x, y
}

// Contains reports whether (x, y) lies within the bounds' interior.
func (b Bounds) Contains(x, y float64) bool {
	return x >= 0 && x <= b.Width && y >= b.TopMargin && y <= b.Height
}

// CircleRectOverlap reports whether a circle at (cx, cy) with radius r
// overlaps rect, and if so returns the penetration vector needed to push the
// circle out along the shallower axis (the smaller of the two overlaps).
func CircleRectOverlap(cx, cy, r float64, rect Rect) (push Vec2, overlapping bool) {
	nearestX := Clamp(cx, rect.X, rect.X+rect.Width)
	nearestY := Clamp(cy, rect.Y, rect.Y+rect.Height)

	dx := cx - nearestX
	dy := cy - nearestY
	distSq := dx*dx + dy*dy

	if distSq >= r*r {
		return Vec2{}, false
	}

	// Circle center is outside the rect but within r of the nearest edge
	// point, or the center itself is inside the rect. Resolve along the
	// shallower of the two axis penetrations so the shove feels natural.
	if dx == 0 && dy == 0 {
		// Center is inside the rect: push out along the nearer edge.
		left := cx - rect.X
		right := rect.X + rect.Width - cx
		top := cy - rect.Y
		bottom := rect.Y + rect.Height - cy

		min := left
		axis := Vec2{X: -1}
		if right < min {
			min = right
			axis = Vec2{X: 1}
		}
		if top < min {
			min = top
			axis = Vec2{Y: -1}
		}
		if bottom < min {
			min = bottom
			axis = Vec2{Y: 1}
		}
		return Vec2{X: axis.X * (min + r), Y: axis.Y * (min + r)}, true
	}

	dist := math.Sqrt(distSq)
	penetration := r - dist
	return Vec2{X: (dx / dist) * penetration, Y: (dy / dist) * penetration}, true
}

// CirclesOverlap reports whether two circles overlap and, if so, the amount
// of overlap (penetration depth) and the unit separation vector pointing
// from a toward b.
func CirclesOverlap(ax, ay, ar, bx, by, br float64) (nx, ny, overlap float64, ok bool) {
	dx := bx - ax
	dy := by - ay
	dist := math.Sqrt(dx*dx + dy*dy)
	minDist := ar + br

	if dist >= minDist || dist == 0 {
		if dist == 0 && minDist > 0 {
			// Exactly coincident centers: pick an arbitrary separation axis.
			return 1, 0, minDist, true
		}
		return 0, 0, 0, false
	}

	return dx / dist, dy / dist, minDist - dist, true
}

// Normalize returns the unit vector of (x, y), or (0, 0) if the input is the
// zero vector.
func Normalize(x, y float64) (float64, float64) {
	length := math.Sqrt(x*x + y*y)
	if length == 0 {
		return 0, 0
	}
	return x / length, y / length
}
