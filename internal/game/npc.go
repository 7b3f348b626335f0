package game

import (
	"math/rand/v2"

	"spritesync/internal/maps"
	"spritesync/internal/snapshot"
)

// NPC is a map event that wanders around its home tile.
type NPC struct {
	ID      string
	Graphic string
	MapName string
	HomeX   int
	HomeY   int
	Radius  int
	X, Y    int
	Dir     snapshot.Direction

	cooldown int
}

// spawnNPCs creates one NPC per event declared on the map.
func spawnNPCs(m *maps.Map) []*NPC {
	npcs := make([]*NPC, 0, len(m.Events))
	for _, ev := range m.Events {
		npcs = append(npcs, &NPC{
			ID:      ev.ID,
			Graphic: ev.Graphic,
			MapName: m.Name,
			HomeX:   ev.X,
			HomeY:   ev.Y,
			Radius:  ev.Radius,
			X:       ev.X,
			Y:       ev.Y,
		})
	}
	return npcs
}

// InRange reports whether x,y is within the NPC's wandering radius.
func (n *NPC) InRange(x, y int) bool {
	return abs(x-n.HomeX) <= n.Radius && abs(y-n.HomeY) <= n.Radius
}

// wander picks a random direction and steps if the tile is free. A zero
// radius NPC only turns.
func (n *NPC) wander(rng *rand.Rand, w *World, every int) {
	if n.cooldown > 0 {
		n.cooldown--
		return
	}
	n.cooldown = every

	actions := [...]Action{ActionUp, ActionDown, ActionLeft, ActionRight}
	dx, dy, dir, _ := moveDelta(actions[rng.IntN(len(actions))])
	n.Dir = dir
	nx, ny := n.X+dx, n.Y+dy
	if n.InRange(nx, ny) && w.CanMoveTo(n.MapName, nx, ny) {
		n.X, n.Y = nx, ny
	}
}

// Snapshot returns the authoritative state of the NPC.
func (n *NPC) Snapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		Version:   snapshot.Version,
		ID:        n.ID,
		Position:  snapshot.Position{X: float64(n.X * maps.TileSize), Y: float64(n.Y * maps.TileSize)},
		Direction: n.Dir,
		Graphic:   n.Graphic,
		Speed:     NPCSpeed,
		Type:      snapshot.TypeEvent,
		Fixed:     n.Radius == 0,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
