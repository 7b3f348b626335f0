// Package scene is the client view of one map: the characters the viewer
// can see, kept in step with the frames the server broadcasts.
package scene

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"spritesync/internal/character"
	"spritesync/internal/snapshot"
)

// HooksFunc builds the entity-specific hooks for a new character.
type HooksFunc func(snap snapshot.Snapshot) character.Hooks

// Options configure a Scene. Character is the template for every character
// the scene creates; its Hooks field is replaced when Hooks is set.
type Options struct {
	Character character.Options
	Hooks     HooksFunc
	Logger    *slog.Logger
}

// Scene owns the characters of the current map. It is not safe for
// concurrent use; the render loop drives it.
type Scene struct {
	viewer     string
	opts       Options
	log        *slog.Logger
	mapName    string
	tick       uint64
	characters map[string]*character.Character
}

// New creates an empty scene for the viewer with the given id.
func New(viewerID string, opts Options) *Scene {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Character.Logger == nil {
		opts.Character.Logger = log
	}
	return &Scene{
		viewer:     viewerID,
		opts:       opts,
		log:        log,
		characters: make(map[string]*character.Character),
	}
}

// Apply brings the scene up to date with a frame. Entities missing from the
// frame are removed. A frame for another map clears the scene first. One
// entity failing, even by panicking, never stops the others from updating.
func (s *Scene) Apply(f snapshot.Frame) {
	if f.Map != s.mapName {
		s.clear()
		s.mapName = f.Map
	}
	s.tick = f.Tick

	seen := make(map[string]bool, len(f.Entities))
	for _, snap := range f.Entities {
		seen[snap.ID] = true
		if err := s.apply(snap); err != nil {
			s.log.Warn("dropping entity update", "entity", snap.ID, "tick", f.Tick, "err", err)
		}
	}

	for id, c := range s.characters {
		if !seen[id] {
			s.guardClose(c)
			delete(s.characters, id)
		}
	}
}

func (s *Scene) apply(snap snapshot.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("entity panicked: %v", r)
			if c, ok := s.characters[snap.ID]; ok {
				s.guardClose(c)
				delete(s.characters, snap.ID)
			}
		}
	}()

	if c, ok := s.characters[snap.ID]; ok {
		_, err = c.Update(snap)
		return err
	}

	opts := s.opts.Character
	if s.opts.Hooks != nil {
		opts.Hooks = s.opts.Hooks(snap)
	}
	c, err := character.New(snap, opts)
	if err != nil {
		return err
	}
	s.characters[snap.ID] = c
	return nil
}

func (s *Scene) guardClose(c *character.Character) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("closing character panicked", "entity", c.ID(), "panic", r)
		}
	}()
	c.Close()
}

// Flush applies completions queued by effects and overrides on every
// character. Sessions call it before each redraw so an effect that ended
// after the last frame is gone from the next picture.
func (s *Scene) Flush() {
	for _, c := range s.characters {
		c.Flush()
	}
}

// Character returns the character for an entity id.
func (s *Scene) Character(id string) (*character.Character, bool) {
	c, ok := s.characters[id]
	return c, ok
}

// Viewer returns the character controlled by the local viewer, if present.
func (s *Scene) Viewer() (*character.Character, bool) {
	for _, c := range s.characters {
		if s.IsCurrentPlayer(c) {
			return c, true
		}
	}
	return nil, false
}

// IsCurrentPlayer reports whether c is the player the viewer controls.
func (s *Scene) IsCurrentPlayer(c *character.Character) bool {
	return c.IsPlayer() && c.OwnerID() == s.viewer
}

// DepthOrder returns the visible characters in draw order: lower on screen
// draws later. Ties break on id so the order is stable.
func (s *Scene) DepthOrder() []*character.Character {
	out := make([]*character.Character, 0, len(s.characters))
	for _, c := range s.characters {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *character.Character) int {
		if d := cmp.Compare(a.Depth(), b.Depth()); d != 0 {
			return d
		}
		return cmp.Compare(a.ID(), b.ID())
	})
	return out
}

// Map returns the name of the map on screen.
func (s *Scene) Map() string { return s.mapName }

// Tick returns the server tick of the last applied frame.
func (s *Scene) Tick() uint64 { return s.tick }

// Len returns the number of characters in the scene.
func (s *Scene) Len() int { return len(s.characters) }

func (s *Scene) clear() {
	for id, c := range s.characters {
		s.guardClose(c)
		delete(s.characters, id)
	}
}

// Close releases every character.
func (s *Scene) Close() {
	s.clear()
}
