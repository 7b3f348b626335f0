package render

import (
	"context"
	"sync/atomic"
	"time"

	"spritesync/internal/character"
)

// FloatingText is a line of text that drifts upward above a character and
// disappears once it has risen Rows rows.
type FloatingText struct {
	Text string
	Rows int
	Step time.Duration

	rise     atomic.Int32
	detached atomic.Bool
}

// Run raises the text one row per Step.
func (f *FloatingText) Run(ctx context.Context) error {
	t := time.NewTicker(f.Step)
	defer t.Stop()
	for int(f.rise.Load()) < f.Rows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			f.rise.Add(1)
		}
	}
	return nil
}

// Detach hides the text.
func (f *FloatingText) Detach() { f.detached.Store(true) }

// Rise returns how many rows the text has risen.
func (f *FloatingText) Rise() int { return int(f.rise.Load()) }

// Visible reports whether the text is still drawn.
func (f *FloatingText) Visible() bool { return !f.detached.Load() }

// FloatingTextFactory returns a factory making every effect a FloatingText
// that rises rows rows, one per step.
func FloatingTextFactory(step time.Duration, rows int) character.VisualFactory {
	if step <= 0 {
		step = 150 * time.Millisecond
	}
	return func(content string) character.Visual {
		return &FloatingText{Text: content, Rows: rows, Step: step}
	}
}
