// Package snapshot defines the authoritative per-entity state the server
// broadcasts every tick, and its JSON wire format.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
)

// Version is the wire format version written by Encode.
const Version = 1

var (
	// ErrInvalidSnapshot is returned when a snapshot is missing required
	// fields or carries values the client cannot render.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrUnsupportedVersion is returned for snapshots from a newer protocol.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// Direction an entity is facing. The numbering matches the wire format.
type Direction int

const (
	DirDown Direction = iota // facing the camera
	DirLeft
	DirRight
	DirUp
)

var directionNames = [...]string{"Down", "Left", "Right", "Up"}

// String returns the animation-facing name of the direction.
func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Valid reports whether d is one of the four known directions.
func (d Direction) Valid() bool {
	return d >= DirDown && d <= DirUp
}

// EntityType distinguishes connected players from map events (NPCs).
type EntityType string

const (
	TypePlayer EntityType = "player"
	TypeEvent  EntityType = "event"
)

// Position is a world position in pixels. Z lifts the entity off the ground.
type Position struct {
	X float64 `json:"x" jsonschema:"required"`
	Y float64 `json:"y" jsonschema:"required"`
	Z float64 `json:"z,omitempty"`
}

// Hitbox is the interaction rectangle of an entity in pixels.
type Hitbox struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Snapshot is the server-declared ground truth for one entity at one tick.
// Fields the client does not know about are kept in Extensions and written
// back unchanged by Encode.
type Snapshot struct {
	Version   int        `json:"v"`
	ID        string     `json:"id" jsonschema:"required"`
	Position  Position   `json:"position" jsonschema:"required"`
	Direction Direction  `json:"direction" jsonschema:"minimum=0,maximum=3"`
	Graphic   string     `json:"graphic"`
	Speed     float64    `json:"speed" jsonschema:"minimum=0"`
	Type      EntityType `json:"type" jsonschema:"enum=player,enum=event"`
	OwnerID   string     `json:"ownerId,omitempty"`
	Fixed     bool       `json:"fixed,omitempty"`
	Hitbox    *Hitbox    `json:"hitbox,omitempty"`

	Extensions map[string]json.RawMessage `json:"-"`
}

// IsPlayer reports whether the snapshot describes a connected player.
func (s Snapshot) IsPlayer() bool { return s.Type == TypePlayer }

// IsEvent reports whether the snapshot describes a map event.
func (s Snapshot) IsEvent() bool { return s.Type == TypeEvent }

// Validate checks the fields the client core depends on.
func (s Snapshot) Validate() error {
	if s.Version > Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if !finite(s.Position.X) {
		return fmt.Errorf("%w: position.x is not finite", ErrInvalidSnapshot)
	}
	if !finite(s.Position.Y) {
		return fmt.Errorf("%w: position.y is not finite", ErrInvalidSnapshot)
	}
	if !finite(s.Position.Z) {
		return fmt.Errorf("%w: position.z is not finite", ErrInvalidSnapshot)
	}
	if !s.Direction.Valid() {
		return fmt.Errorf("%w: direction %d out of range", ErrInvalidSnapshot, int(s.Direction))
	}
	if !finite(s.Speed) || s.Speed < 0 {
		return fmt.Errorf("%w: speed %v", ErrInvalidSnapshot, s.Speed)
	}
	if s.Hitbox != nil && (!finite(s.Hitbox.W) || !finite(s.Hitbox.H) || s.Hitbox.W < 0 || s.Hitbox.H < 0) {
		return fmt.Errorf("%w: hitbox %vx%v", ErrInvalidSnapshot, s.Hitbox.W, s.Hitbox.H)
	}
	return nil
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.Hitbox != nil {
		hb := *s.Hitbox
		c.Hitbox = &hb
	}
	if s.Extensions != nil {
		c.Extensions = make(map[string]json.RawMessage, len(s.Extensions))
		for k, v := range s.Extensions {
			c.Extensions[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// Equal reports whether a and b carry the same state.
func Equal(a, b Snapshot) bool {
	if a.Version != b.Version || a.ID != b.ID || a.Position != b.Position ||
		a.Direction != b.Direction || a.Graphic != b.Graphic || a.Speed != b.Speed ||
		a.Type != b.Type || a.OwnerID != b.OwnerID || a.Fixed != b.Fixed {
		return false
	}
	switch {
	case a.Hitbox == nil && b.Hitbox != nil, a.Hitbox != nil && b.Hitbox == nil:
		return false
	case a.Hitbox != nil && *a.Hitbox != *b.Hitbox:
		return false
	}
	return maps.EqualFunc(a.Extensions, b.Extensions, func(x, y json.RawMessage) bool {
		return bytes.Equal(x, y)
	})
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
