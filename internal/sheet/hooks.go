package sheet

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// hookPrefix is the naming convention for hook functions in sheet scripts:
// the "walk" animation is taken over by a global named onCharacterWalk.
const hookPrefix = "onCharacter"

// ErrScriptUnloaded is returned by hooks whose sheet has been unloaded.
var ErrScriptUnloaded = errors.New("hook script unloaded")

// builtinAnimations always get a hook lookup, even when the sheet has no
// clip with that name.
var builtinAnimations = []string{"stand", "walk"}

// HookName returns the script function name for an animation.
func HookName(animation string) string {
	return hookPrefix + cases.Title(language.Und, cases.NoLower).String(animation)
}

// script is a loaded Lua hook file. An LState is not safe for concurrent
// use, so every call goes through mu.
type script struct {
	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

func (s *script) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.L.Close()
	}
}

// loadScript runs a Lua file and binds each onCharacter<Name> global it
// defines into d.Hooks. Names are resolved once here, never at playback.
func loadScript(d *Descriptor, path string) (*script, error) {
	L := lua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("run hook script %s: %w", path, err)
	}
	s := &script{L: L}

	names := make(map[string]bool)
	for _, n := range builtinAnimations {
		names[n] = true
	}
	for n := range d.Clips {
		names[n] = true
	}
	for n := range names {
		fn, ok := L.GetGlobal(HookName(n)).(*lua.LFunction)
		if !ok {
			continue
		}
		d.Hooks[n] = s.hook(HookName(n), fn)
	}
	return s, nil
}

// hook wraps a Lua function. The function receives a table describing the
// character:
//
//	function onCharacterWalk(ch)
//	  ch.play("walk_" .. string.lower(ch.direction))
//	end
func (s *script) hook(name string, fn *lua.LFunction) Hook {
	return func(t Target) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return fmt.Errorf("hook %s: %w", name, ErrScriptUnloaded)
		}

		L := s.L
		dir := t.Direction()
		ch := L.NewTable()
		L.SetField(ch, "direction", lua.LString(dir.String()))
		L.SetField(ch, "graphic", lua.LString(t.Graphic()))
		L.SetField(ch, "play", L.NewFunction(func(L *lua.LState) int {
			clip := L.CheckString(1)
			L.Push(lua.LBool(t.PlayClip(clip, dir)))
			return 1
		}))

		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, ch); err != nil {
			return fmt.Errorf("hook %s: %w", name, err)
		}
		return nil
	}
}
