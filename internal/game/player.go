package game

import (
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"

	"spritesync/internal/maps"
	"spritesync/internal/snapshot"
)

// Action represents a player input action.
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionQuit

	// Handled by the session on the client side, never sent to the loop.
	ActionEmote
	ActionWave
)

// InputEvent carries a player action into the game loop.
type InputEvent struct {
	PlayerID string
	Action   Action
}

// PlayerGraphic is the spritesheet every player is drawn with.
const PlayerGraphic = "hero"

// playerHitbox is the footprint players collide with, in pixels.
var playerHitbox = snapshot.Hitbox{W: 16, H: 16}

// Player holds the game state for a connected player.
type Player struct {
	ID      string
	Name    string
	MapName string
	X, Y    int // tile coordinates
	Dir     snapshot.Direction
	Color   int // index into the render color palette

	MoveCooldown int // ticks until next move allowed
}

// Snapshot returns the authoritative state of the player for this tick.
// Name and color travel as extension fields.
func (p *Player) Snapshot() snapshot.Snapshot {
	hb := playerHitbox
	return snapshot.Snapshot{
		Version:   snapshot.Version,
		ID:        p.ID,
		Position:  snapshot.Position{X: float64(p.X * maps.TileSize), Y: float64(p.Y * maps.TileSize)},
		Direction: p.Dir,
		Graphic:   PlayerGraphic,
		Speed:     PlayerSpeed,
		Type:      snapshot.TypePlayer,
		OwnerID:   p.ID,
		Hitbox:    &hb,
		Extensions: map[string]json.RawMessage{
			"name":  json.RawMessage(gjson.AppendJSONString(nil, p.Name)),
			"color": json.RawMessage(strconv.Itoa(p.Color)),
		},
	}
}

const numPlayerColors = 6

// moveDelta returns the tile step and facing for a movement action.
func moveDelta(a Action) (dx, dy int, dir snapshot.Direction, ok bool) {
	switch a {
	case ActionUp:
		return 0, -1, snapshot.DirUp, true
	case ActionDown:
		return 0, 1, snapshot.DirDown, true
	case ActionLeft:
		return -1, 0, snapshot.DirLeft, true
	case ActionRight:
		return 1, 0, snapshot.DirRight, true
	}
	return 0, 0, 0, false
}
