// Package anim plays spritesheet clips frame by frame on the render tick.
package anim

import (
	"spritesync/internal/sheet"
	"spritesync/internal/snapshot"
)

// Player plays the clips of one graphic. A Player built without a
// descriptor is valid and never plays anything.
type Player struct {
	graphic string
	sheet   *sheet.Descriptor

	clip     *sheet.Clip
	dir      snapshot.Direction
	frames   []sheet.Frame
	frame    int
	ticks    int
	finished bool

	// OnFinish is called once when a non-looping clip shows its last frame
	// for its full duration.
	OnFinish func()
}

// New creates a player for graphic. d may be nil when the graphic is not
// loaded.
func New(graphic string, d *sheet.Descriptor) *Player {
	return &Player{graphic: graphic, sheet: d}
}

// Graphic returns the graphic this player draws.
func (p *Player) Graphic() string {
	return p.graphic
}

// Has reports whether the graphic defines a clip with the given name.
func (p *Player) Has(name string) bool {
	if p.sheet == nil {
		return false
	}
	_, ok := p.sheet.Clip(name)
	return ok
}

// Play starts a clip facing dir. Replaying the clip that is already running
// in the same direction keeps its current frame. Returns false when the
// clip does not exist.
func (p *Player) Play(name string, dir snapshot.Direction) bool {
	if p.sheet == nil {
		return false
	}
	c, ok := p.sheet.Clip(name)
	if !ok {
		return false
	}
	if p.clip == c && p.dir == dir && !p.finished {
		return true
	}
	p.clip = c
	p.dir = dir
	p.frames = c.FramesFor(dir)
	p.frame = 0
	p.ticks = 0
	p.finished = false
	return true
}

// Playing returns the name of the current clip, or "" when idle.
func (p *Player) Playing() string {
	if p.clip == nil {
		return ""
	}
	return p.clip.Name
}

// Finished reports whether a non-looping clip has run to its end.
func (p *Player) Finished() bool {
	return p.finished
}

// Update advances playback by one render tick.
func (p *Player) Update() {
	if p.clip == nil || p.finished {
		return
	}
	p.ticks++
	if p.ticks < p.clip.FrameTicks {
		return
	}
	p.ticks = 0

	if p.frame+1 < len(p.frames) {
		p.frame++
		return
	}
	if p.clip.Loop {
		p.frame = 0
		return
	}
	p.finished = true
	if p.OnFinish != nil {
		p.OnFinish()
	}
}

// Current returns the frame on screen.
func (p *Player) Current() (sheet.Frame, bool) {
	if len(p.frames) == 0 {
		return sheet.Frame{}, false
	}
	return p.frames[p.frame], true
}
