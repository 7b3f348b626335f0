// Package sheet resolves graphic identifiers to spritesheet descriptors:
// sprite dimensions, directional animation clips and the optional hooks
// asset authors use to take over playback of a named animation.
package sheet

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"spritesync/internal/snapshot"
)

// ErrInvalidDescriptor is returned when a descriptor file cannot be used.
var ErrInvalidDescriptor = errors.New("invalid spritesheet descriptor")

// Frame is one cell of a spritesheet.
type Frame struct {
	Col, Row int
	Glyph    rune        // terminal stand-in for the cell's pixels
	Anchor   *mgl64.Vec2 // nil unless the asset declares one
}

// Clip is a named animation with a frame sequence per direction.
type Clip struct {
	Name       string
	Loop       bool
	FrameTicks int // render ticks each frame stays on screen
	Frames     map[snapshot.Direction][]Frame
}

// FramesFor returns the frames for dir, falling back to the down-facing
// sequence when the clip is not directional.
func (c *Clip) FramesFor(dir snapshot.Direction) []Frame {
	if f, ok := c.Frames[dir]; ok {
		return f
	}
	return c.Frames[snapshot.DirDown]
}

// Target is the character a hook animates.
type Target interface {
	Direction() snapshot.Direction
	Graphic() string
	// PlayClip plays a clip of the displayed graphic and reports whether
	// the clip exists.
	PlayClip(name string, dir snapshot.Direction) bool
}

// Hook replaces the default playback of one animation.
type Hook func(t Target) error

// Descriptor is everything the client knows about one graphic.
type Descriptor struct {
	Name         string
	SpriteWidth  float64
	SpriteHeight float64
	Anchor       *mgl64.Vec2 // sheet-wide anchor, overridden per frame
	Clips        map[string]*Clip
	Hooks        map[string]Hook // keyed by animation name
}

// Clip returns the clip with the given name.
func (d *Descriptor) Clip(name string) (*Clip, bool) {
	c, ok := d.Clips[name]
	return c, ok
}

// Hook returns the hook registered for an animation name.
func (d *Descriptor) Hook(name string) (Hook, bool) {
	h, ok := d.Hooks[name]
	return h, ok && h != nil
}

// FrameAnchor returns the anchor declared by the asset for the frame shown
// at rest (first down-facing frame of "stand"), or the sheet-wide anchor.
func (d *Descriptor) FrameAnchor() (mgl64.Vec2, bool) {
	if c, ok := d.Clips["stand"]; ok {
		if frames := c.FramesFor(snapshot.DirDown); len(frames) > 0 && frames[0].Anchor != nil {
			return *frames[0].Anchor, true
		}
	}
	if d.Anchor != nil {
		return *d.Anchor, true
	}
	return mgl64.Vec2{}, false
}
