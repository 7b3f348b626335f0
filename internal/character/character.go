// Package character keeps a rendered entity consistent with the snapshots
// the server sends for it. Each tick it steps the drawn position toward the
// authoritative one, picks the locomotion animation, and layers one-shot
// override animations and short-lived effects on top.
//
// A Character is driven by a single goroutine, the render loop. Work that
// finishes elsewhere (effect runs, override completions) is queued and
// applied at the start of the next Update or Flush.
package character

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"spritesync/internal/anim"
	"spritesync/internal/sheet"
	"spritesync/internal/snapshot"
)

// ErrEntityMismatch is returned by Update for a snapshot of another entity.
var ErrEntityMismatch = errors.New("snapshot is for another entity")

// Options configure a Character. The zero value is usable.
type Options struct {
	Resolver   Resolver
	Hooks      Hooks
	Effects    VisualFactory
	Scheduler  Scheduler
	SnapFactor float64 // DefaultSnapFactor when zero
	Logger     *slog.Logger
}

// Summary is the result of one tick.
type Summary struct {
	Moving   bool
	Instance *Character
}

// Align selects the reference point returned by PositionsOfGraphic.
type Align int

const (
	AlignTopLeft Align = iota
	AlignMiddle
)

// Character is the client-side state of one entity.
type Character struct {
	id         string
	resolver   Resolver
	hooks      Hooks
	newVisual  VisualFactory
	schedule   Scheduler
	snapFactor float64
	log        *slog.Logger

	state      RenderState
	animation  AnimationState
	entityType snapshot.EntityType
	ownerID    string
	hitbox     *snapshot.Hitbox
	moving     bool

	baseGraphic string
	baseSheet   *sheet.Descriptor
	base        *anim.Player // locomotion player for baseGraphic
	visual      *anim.Player // player on screen, base or the override's
	shown       *sheet.Descriptor
	anchor      mgl64.Vec2
	shape       OverlayShape

	generation uint64
	replay     bool

	effects   map[uuid.UUID]*Effect
	effectSeq uint64
	inbox     inbox
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a character from its first snapshot. The character is drawn
// at the snapshot position right away.
func New(snap snapshot.Snapshot, opts Options) (*Character, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("new character %q: %w", snap.ID, err)
	}

	c := &Character{
		id:         snap.ID,
		resolver:   opts.Resolver,
		hooks:      opts.Hooks,
		newVisual:  opts.Effects,
		schedule:   opts.Scheduler,
		snapFactor: opts.SnapFactor,
		log:        opts.Logger,
		effects:    make(map[uuid.UUID]*Effect),
	}
	if c.resolver == nil {
		c.resolver = noResolver{}
	}
	if c.hooks == nil {
		c.hooks = NopHooks{}
	}
	if c.newVisual == nil {
		c.newVisual = instantVisuals
	}
	if c.schedule == nil {
		c.schedule = goScheduler
	}
	if c.snapFactor <= 0 {
		c.snapFactor = DefaultSnapFactor
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.entityType = snap.Type
	c.ownerID = snap.OwnerID
	c.hitbox = snap.Hitbox
	c.setBaseGraphic(snap.Graphic)

	x, y, z := target(snap)
	c.state.RenderX, c.state.RenderY, c.state.Z = x, y, z
	c.state.Depth = y
	c.state.Direction = snap.Direction
	c.state.Fixed = snap.Fixed
	last := snap.Clone()
	c.state.LastSnapshot = &last

	c.selectAnimation(false)
	c.guard("OnInit", func() { c.hooks.OnInit(c) })
	return c, nil
}

// Update applies the latest snapshot for this entity. An invalid snapshot
// is rejected and leaves the character untouched.
func (c *Character) Update(snap snapshot.Snapshot) (Summary, error) {
	c.drain()
	// The fresh snapshot supersedes a replay queued by an override finishing.
	c.replay = false

	if err := snap.Validate(); err != nil {
		return Summary{Moving: c.moving, Instance: c}, fmt.Errorf("update %q: %w", c.id, err)
	}
	if snap.ID != c.id {
		return Summary{Moving: c.moving, Instance: c}, fmt.Errorf("%w: %q is not %q", ErrEntityMismatch, snap.ID, c.id)
	}
	return Summary{Moving: c.apply(snap), Instance: c}, nil
}

// Flush applies queued completions without a new snapshot. When an override
// finished, the last snapshot is replayed so position and animation pick up
// where the override left them.
func (c *Character) Flush() {
	c.drain()
	if c.replay {
		c.replay = false
		if c.state.LastSnapshot != nil {
			c.apply(c.state.LastSnapshot.Clone())
		}
	}
}

func (c *Character) apply(snap snapshot.Snapshot) bool {
	if prev := c.state.LastSnapshot; prev != nil && !snapshot.Equal(*prev, snap) {
		old := *prev
		c.guard("OnChanges", func() { c.hooks.OnChanges(c, snap, old) })
	}

	c.entityType = snap.Type
	c.ownerID = snap.OwnerID
	c.hitbox = snap.Hitbox
	if snap.Graphic != c.baseGraphic {
		c.setBaseGraphic(snap.Graphic)
	}
	c.state.Fixed = snap.Fixed
	c.state.Direction = snap.Direction

	var moving bool
	c.state, moving = Reconcile(c.state, snap, c.snapFactor)
	c.selectAnimation(moving)
	c.visual.Update()
	c.moving = moving

	last := snap.Clone()
	c.state.LastSnapshot = &last
	c.guard("OnUpdate", func() { c.hooks.OnUpdate(c, last) })
	return moving
}

// setBaseGraphic switches the graphic driven by snapshots. An override in
// progress is cancelled so the new graphic shows immediately.
func (c *Character) setBaseGraphic(graphic string) {
	d, ok := c.resolver.Get(graphic)
	if !ok {
		c.log.Debug("graphic not loaded", "entity", c.id, "graphic", graphic)
		d = nil
	}
	c.baseGraphic = graphic
	c.baseSheet = d
	c.base = anim.New(graphic, d)

	if c.animation.Mode == CustomOverride {
		c.cancelOverride(ErrOverrideCancelled)
		return
	}
	c.visual = c.base
	c.display(graphic, d)
}

// display records the graphic on screen and recomputes its geometry.
func (c *Character) display(graphic string, d *sheet.Descriptor) {
	c.state.CurrentGraphic = graphic
	c.shown = d
	c.anchor, c.shape = ResolveGeometry(d, c.hitbox)
}

func (c *Character) drain() {
	for _, f := range c.inbox.take() {
		c.guard("completion", f)
	}
}

// guard runs f and logs a panic instead of propagating it.
func (c *Character) guard(what string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("character callback panicked", "entity", c.id, "callback", what, "panic", r)
		}
	}()
	f()
}

// Close stops every effect and cancels a running override. Queued
// completions are discarded.
func (c *Character) Close() {
	c.cancel()
	c.inbox.take()
	c.closeEffects()
	c.cancelOverride(ErrOverrideCancelled)
}

// PositionsOfGraphic returns the world position of the drawn graphic's
// top-left corner, or of its center with AlignMiddle.
func (c *Character) PositionsOfGraphic(align Align) mgl64.Vec2 {
	var w, h float64
	if c.shown != nil {
		w, h = c.shown.SpriteWidth, c.shown.SpriteHeight
	}
	p := mgl64.Vec2{
		c.state.RenderX - w*c.anchor.X(),
		c.state.RenderY - h*c.anchor.Y(),
	}
	if align == AlignMiddle {
		p = p.Add(mgl64.Vec2{w / 2, h / 2})
	}
	return p
}

func (c *Character) ID() string                { return c.id }
func (c *Character) State() RenderState        { return c.state }
func (c *Character) Animation() AnimationState { return c.animation }
func (c *Character) Mode() Mode                { return c.animation.Mode }
func (c *Character) Anchor() mgl64.Vec2        { return c.anchor }
func (c *Character) Depth() float64            { return c.state.Depth }
func (c *Character) Moving() bool              { return c.moving }
func (c *Character) OwnerID() string           { return c.ownerID }

// Shape returns the overlay shape for collision code to align the hitbox
// with the sprite. Callers must not modify it.
func (c *Character) Shape() OverlayShape { return c.shape }

// IsPlayer reports whether the entity is a connected player.
func (c *Character) IsPlayer() bool { return c.entityType == snapshot.TypePlayer }

// IsEvent reports whether the entity is a map event.
func (c *Character) IsEvent() bool { return c.entityType == snapshot.TypeEvent }

// Frame returns the spritesheet frame on screen.
func (c *Character) Frame() (sheet.Frame, bool) {
	return c.visual.Current()
}
