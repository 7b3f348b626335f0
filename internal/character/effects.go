package character

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// ErrEffectPanic wraps a panic recovered from an effect's Run.
var ErrEffectPanic = errors.New("effect panicked")

// Visual is the drawable part of an effect. Run plays it to completion and
// may be called from any goroutine; Detach removes it from the screen and is
// called exactly once, on the render path.
type Visual interface {
	Run(ctx context.Context) error
	Detach()
}

// VisualFactory builds the visual for an effect's content.
type VisualFactory func(content string) Visual

// Scheduler starts a task asynchronously.
type Scheduler func(task func())

func goScheduler(task func()) { go task() }

type instantVisual struct{}

func (instantVisual) Run(context.Context) error { return nil }
func (instantVisual) Detach()                   {}

func instantVisuals(string) Visual { return instantVisual{} }

// Effect is an active ephemeral visual attached to a character.
type Effect struct {
	ID      uuid.UUID
	Content string
	Visual  Visual

	seq    uint64
	cancel context.CancelFunc
}

// AddEffect attaches a new effect and starts it. The effect is removed and
// detached on the first Update or Flush after its Run returns.
func (c *Character) AddEffect(content string) uuid.UUID {
	id := uuid.New()
	for c.effects[id] != nil {
		id = uuid.New()
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.effectSeq++
	e := &Effect{
		ID:      id,
		Content: content,
		Visual:  c.newVisual(content),
		seq:     c.effectSeq,
		cancel:  cancel,
	}
	c.effects[id] = e

	v := e.Visual
	c.schedule(func() {
		err := runVisual(ctx, v)
		c.inbox.post(func() { c.finishEffect(id, err) })
	})
	return id
}

func runVisual(ctx context.Context, v Visual) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrEffectPanic, r)
		}
	}()
	return v.Run(ctx)
}

func (c *Character) finishEffect(id uuid.UUID, err error) {
	e, ok := c.effects[id]
	if !ok {
		return
	}
	delete(c.effects, id)
	e.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		c.log.Warn("effect failed", "entity", c.id, "effect", id, "err", err)
	}
	c.guard("detach effect", e.Visual.Detach)
}

// Effect returns the active effect with the given id.
func (c *Character) Effect(id uuid.UUID) (*Effect, bool) {
	e, ok := c.effects[id]
	return e, ok
}

// Effects returns the active effects, oldest first.
func (c *Character) Effects() []*Effect {
	out := make([]*Effect, 0, len(c.effects))
	for _, e := range c.effects {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Effect) int { return cmp.Compare(a.seq, b.seq) })
	return out
}

func (c *Character) closeEffects() {
	for _, e := range c.Effects() {
		delete(c.effects, e.ID)
		e.cancel()
		c.guard("detach effect", e.Visual.Detach)
	}
}
