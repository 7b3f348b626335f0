package sheet

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Registry holds loaded descriptors. It is passed explicitly to the
// characters that resolve graphics through it and is safe for concurrent
// use by every session.
type Registry struct {
	mu      sync.RWMutex
	sheets  map[string]*Descriptor
	scripts map[string]*script
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sheets:  make(map[string]*Descriptor),
		scripts: make(map[string]*script),
	}
}

// LoadRegistry creates a registry from every descriptor in dir.
func LoadRegistry(dir string) (*Registry, error) {
	reg := NewRegistry()
	if err := reg.Load(dir); err != nil {
		return nil, err
	}
	return reg, nil
}

// Load scans dir for descriptors. Naming conventions:
//   - hero.json: descriptor for the graphic "hero"
//   - hero.lua:  optional hook script for the same graphic
//
// Files that fail to parse are skipped with a warning; a later Load of the
// same name replaces the earlier descriptor.
func (r *Registry) Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read sheets dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		d, err := LoadDescriptor(path)
		if err != nil {
			slog.Warn("skipping spritesheet", "path", path, "err", err)
			continue
		}

		var s *script
		luaPath := strings.TrimSuffix(path, ".json") + ".lua"
		if _, err := os.Stat(luaPath); err == nil {
			s, err = loadScript(d, luaPath)
			if err != nil {
				slog.Warn("skipping hook script", "path", luaPath, "err", err)
				s = nil
			}
		}
		r.register(d, s)
	}
	return nil
}

// Register adds or replaces a descriptor built in code.
func (r *Registry) Register(d *Descriptor) {
	r.register(d, nil)
}

func (r *Registry) register(d *Descriptor, s *script) {
	r.mu.Lock()
	old := r.scripts[d.Name]
	r.sheets[d.Name] = d
	if s != nil {
		r.scripts[d.Name] = s
	} else {
		delete(r.scripts, d.Name)
	}
	r.mu.Unlock()

	if old != nil {
		old.close()
	}
}

// Get resolves a graphic. The boolean is false for unknown graphics.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.sheets[name]
	return d, ok
}

// Unload forgets a graphic and releases its hook script. Characters that
// already hold the descriptor keep using it until their graphic changes.
func (r *Registry) Unload(name string) bool {
	r.mu.Lock()
	_, ok := r.sheets[name]
	s := r.scripts[name]
	delete(r.sheets, name)
	delete(r.scripts, name)
	r.mu.Unlock()

	if s != nil {
		s.close()
	}
	return ok
}

// Names returns the loaded graphic names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sheets))
	for n := range r.sheets {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Close unloads everything.
func (r *Registry) Close() {
	for _, n := range r.Names() {
		r.Unload(n)
	}
}
