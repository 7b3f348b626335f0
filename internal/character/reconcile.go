package character

import (
	"math"

	"spritesync/internal/snapshot"
)

// DefaultSnapFactor multiplies an entity's speed to get the distance beyond
// which the rendered position jumps straight to the target.
const DefaultSnapFactor = 15

// RenderState is what the client draws for one entity. It is owned by the
// character and only changes on the render path.
type RenderState struct {
	RenderX, RenderY float64
	Z                int
	Direction        snapshot.Direction
	CurrentGraphic   string // graphic on screen, the override's while one runs
	Fixed            bool
	LastSnapshot     *snapshot.Snapshot
	Depth            float64 // draw order key, larger draws on top
}

// target returns the on-screen position a snapshot asks for. Z lifts the
// sprite up the screen.
func target(snap snapshot.Snapshot) (x, y float64, z int) {
	zf := math.Floor(snap.Position.Z)
	return math.Floor(snap.Position.X), math.Floor(snap.Position.Y) - zf, int(zf)
}

// Reconcile moves local one tick toward snap and reports whether either
// axis changed. Fixed entities are returned unchanged.
func Reconcile(local RenderState, snap snapshot.Snapshot, snapFactor float64) (RenderState, bool) {
	if local.Fixed {
		return local, false
	}

	tx, ty, z := target(snap)
	local.Z = z

	var mx, my bool
	local.RenderX, mx = stepAxis(local.RenderX, tx, snap.Speed, snapFactor)
	local.RenderY, my = stepAxis(local.RenderY, ty, snap.Speed, snapFactor)
	local.Depth = local.RenderY
	return local, mx || my
}

func stepAxis(current, target, speed, snapFactor float64) (float64, bool) {
	delta := target - current
	dist := math.Abs(delta)
	switch {
	case dist == 0:
		return current, false
	case dist > speed*snapFactor, dist <= speed:
		// Land exactly on the target rather than accumulating float error.
		return target, true
	default:
		return current + math.Copysign(speed, delta), true
	}
}
