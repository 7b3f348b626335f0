package character

import "sync"

// inbox queues work finished off the render path. Completions never touch
// character state directly; they post here and run on the next drain.
type inbox struct {
	mu      sync.Mutex
	pending []func()
}

func (b *inbox) post(f func()) {
	b.mu.Lock()
	b.pending = append(b.pending, f)
	b.mu.Unlock()
}

func (b *inbox) take() []func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.pending
	b.pending = nil
	return p
}
