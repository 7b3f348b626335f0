package character

import (
	"errors"
	"sync"

	"spritesync/internal/anim"
	"spritesync/internal/sheet"
	"spritesync/internal/snapshot"
)

var (
	// ErrOverrideReplaced resolves an override handle superseded by a newer
	// ShowAnimation call.
	ErrOverrideReplaced = errors.New("override replaced")

	// ErrOverrideCancelled resolves an override handle dropped because the
	// base graphic changed or the character was closed.
	ErrOverrideCancelled = errors.New("override cancelled")
)

// Mode is the animation state of a character.
type Mode int

const (
	Standing Mode = iota
	Walking
	CustomOverride
)

func (m Mode) String() string {
	switch m {
	case Standing:
		return "Standing"
	case Walking:
		return "Walking"
	case CustomOverride:
		return "CustomOverride"
	}
	return "Mode(?)"
}

// AnimationState is the controller state. Override is non-nil exactly when
// Mode is CustomOverride.
type AnimationState struct {
	Mode     Mode
	Override *OverrideHandle
}

// OverrideHandle tracks a one-shot animation started by ShowAnimation.
type OverrideHandle struct {
	Graphic         string
	Animation       string
	PreviousGraphic string

	generation uint64
	done       chan struct{}
	once       sync.Once
	err        error
}

func newOverrideHandle(graphic, animation, previous string, gen uint64) *OverrideHandle {
	return &OverrideHandle{
		Graphic:         graphic,
		Animation:       animation,
		PreviousGraphic: previous,
		generation:      gen,
		done:            make(chan struct{}),
	}
}

// Done is closed once the override has finished, been replaced or been
// cancelled.
func (h *OverrideHandle) Done() <-chan struct{} { return h.done }

// Err reports how the override ended: nil when the animation played to
// completion. It must only be called after Done is closed.
func (h *OverrideHandle) Err() error { return h.err }

func (h *OverrideHandle) resolve(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}

// selectAnimation picks the locomotion animation for this tick.
func (c *Character) selectAnimation(moving bool) {
	if c.animation.Mode == CustomOverride {
		return
	}
	wasWalking := c.animation.Mode == Walking
	if moving {
		c.animation.Mode = Walking
		c.playAnimation(c.baseSheet, "walk")
	} else {
		c.animation.Mode = Standing
		c.playAnimation(c.baseSheet, "stand")
	}
	if moving && !wasWalking {
		c.guard("OnMove", func() { c.hooks.OnMove(c) })
	}
}

// playAnimation dispatches a named animation for the current direction: a
// hook registered by the sheet takes precedence over a clip of that name.
// A missing sheet, hook or clip plays nothing.
func (c *Character) playAnimation(d *sheet.Descriptor, name string) {
	if d != nil {
		if hook, ok := d.Hook(name); ok {
			c.guard("hook "+name, func() {
				if err := hook(c); err != nil {
					c.log.Warn("animation hook failed", "entity", c.id, "animation", name, "err", err)
				}
			})
			return
		}
	}
	c.visual.Play(name, c.state.Direction)
}

// ShowAnimation plays a one-shot animation from graphic in place of the
// locomotion animations. The graphic on screen before the call is restored
// once it finishes. A running override is replaced and keeps its original
// PreviousGraphic.
func (c *Character) ShowAnimation(graphic, name string) *OverrideHandle {
	previous := c.state.CurrentGraphic
	if old := c.animation.Override; old != nil {
		previous = old.PreviousGraphic
		old.resolve(ErrOverrideReplaced)
	}

	c.generation++
	gen := c.generation
	h := newOverrideHandle(graphic, name, previous, gen)

	d, _ := c.resolver.Get(graphic)
	p := anim.New(graphic, d)
	p.OnFinish = func() {
		c.inbox.post(func() { c.completeOverride(gen) })
	}

	c.animation = AnimationState{Mode: CustomOverride, Override: h}
	c.visual = p
	c.display(graphic, d)
	c.playAnimation(d, name)

	if p.Playing() == "" {
		// Nothing to show; finish on the next drain like a played clip would.
		c.inbox.post(func() { c.completeOverride(gen) })
	}
	return h
}

// completeOverride ends the override started with generation gen. Stale
// completions from replaced overrides are ignored.
func (c *Character) completeOverride(gen uint64) {
	h := c.animation.Override
	if c.animation.Mode != CustomOverride || h == nil || h.generation != gen {
		return
	}
	c.restoreBase()
	c.replay = true
	h.resolve(nil)
}

func (c *Character) cancelOverride(err error) {
	h := c.animation.Override
	if h == nil {
		return
	}
	c.generation++
	c.restoreBase()
	h.resolve(err)
}

func (c *Character) restoreBase() {
	c.animation = AnimationState{Mode: Standing}
	c.visual = c.base
	c.display(c.baseGraphic, c.baseSheet)
}

// Direction implements sheet.Target.
func (c *Character) Direction() snapshot.Direction {
	return c.state.Direction
}

// Graphic returns the graphic on screen. It implements sheet.Target.
func (c *Character) Graphic() string {
	return c.state.CurrentGraphic
}

// PlayClip plays a clip of the graphic on screen. It implements sheet.Target.
func (c *Character) PlayClip(name string, dir snapshot.Direction) bool {
	return c.visual.Play(name, dir)
}
