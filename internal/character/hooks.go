package character

import (
	"spritesync/internal/sheet"
	"spritesync/internal/snapshot"
)

//go:generate go tool mockgen -destination=./mocks/character_mock.go -package=mocks . Hooks,Resolver

// Resolver looks up spritesheet descriptors. *sheet.Registry implements it.
type Resolver interface {
	Get(graphic string) (*sheet.Descriptor, bool)
}

// Hooks lets entity-specific behavior observe a character. Every method is
// called on the render path; a panic is logged and does not reach the
// caller of Update.
type Hooks interface {
	// OnInit runs once at the end of New.
	OnInit(c *Character)
	// OnUpdate runs at the end of every tick with the applied snapshot.
	OnUpdate(c *Character, snap snapshot.Snapshot)
	// OnMove runs on the tick the character starts moving.
	OnMove(c *Character)
	// OnChanges runs when a snapshot differs from the previous one.
	OnChanges(c *Character, next, prev snapshot.Snapshot)
}

// NopHooks ignores every event. Embed it to implement only some hooks.
type NopHooks struct{}

func (NopHooks) OnInit(*Character)                                          {}
func (NopHooks) OnUpdate(*Character, snapshot.Snapshot)                     {}
func (NopHooks) OnMove(*Character)                                          {}
func (NopHooks) OnChanges(*Character, snapshot.Snapshot, snapshot.Snapshot) {}

type noResolver struct{}

func (noResolver) Get(string) (*sheet.Descriptor, bool) { return nil, false }
