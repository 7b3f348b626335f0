package server

import (
	"log/slog"
	"slices"
	"testing"

	"spritesync/internal/character"
	"spritesync/internal/game"
	"spritesync/internal/sheet"
	"spritesync/internal/snapshot"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []game.Action
	}{
		{"wasd", "wasd", []game.Action{game.ActionUp, game.ActionLeft, game.ActionDown, game.ActionRight}},
		{"upper case", "WD", []game.Action{game.ActionUp, game.ActionRight}},
		{"arrows", "\x1b[A\x1b[B\x1b[C\x1b[D", []game.Action{game.ActionUp, game.ActionDown, game.ActionRight, game.ActionLeft}},
		{"local actions", "ef", []game.Action{game.ActionEmote, game.ActionWave}},
		{"quit", "q", []game.Action{game.ActionQuit}},
		{"ctrl-c", "\x03", []game.Action{game.ActionQuit}},
		{"unknown keys", "xyz", nil},
		{"mixed", "w\x1b[Cé", []game.Action{game.ActionUp, game.ActionRight}},
		{"truncated escape", "\x1b[", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseInput([]byte(tt.in)); !slices.Equal(got, tt.want) {
				t.Errorf("parseInput(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

type sheets map[string]*sheet.Descriptor

func (s sheets) Get(name string) (*sheet.Descriptor, bool) {
	d, ok := s[name]
	return d, ok
}

func testSheets() sheets {
	down := func(g ...rune) map[snapshot.Direction][]sheet.Frame {
		fs := make([]sheet.Frame, len(g))
		for i := range g {
			fs[i] = sheet.Frame{Glyph: g[i]}
		}
		return map[snapshot.Direction][]sheet.Frame{snapshot.DirDown: fs}
	}
	return sheets{
		"hero": {Name: "hero", SpriteWidth: 32, SpriteHeight: 48, Clips: map[string]*sheet.Clip{
			"stand": {Name: "stand", Loop: true, FrameTicks: 10, Frames: down('@')},
		}},
		waveSheet: {Name: waveSheet, SpriteWidth: 32, SpriteHeight: 32, Clips: map[string]*sheet.Clip{
			waveClip: {Name: waveClip, FrameTicks: 2, Frames: down('o', '/')},
		}},
	}
}

func testSession(t *testing.T) *session {
	t.Helper()
	s := &SSHServer{sheets: testSheets(), log: slog.Default()}
	ss := s.newSession("alice")
	t.Cleanup(ss.scene.Close)
	ss.scene.Apply(snapshot.Frame{Tick: 1, Map: "Town", Entities: []snapshot.Snapshot{{
		ID: "alice", Position: snapshot.Position{X: 32, Y: 32}, Graphic: "hero",
		Speed: 8, Type: snapshot.TypePlayer, OwnerID: "alice",
	}}})
	return ss
}

func TestHandleLocalEmote(t *testing.T) {
	ss := testSession(t)
	ss.handleLocal(game.ActionEmote)

	me, _ := ss.scene.Viewer()
	effects := me.Effects()
	if len(effects) != 1 || effects[0].Content != emoteText {
		t.Fatalf("effects = %v", effects)
	}
}

func TestHandleLocalWave(t *testing.T) {
	ss := testSession(t)
	ss.handleLocal(game.ActionWave)

	me, _ := ss.scene.Viewer()
	if me.Mode() != character.CustomOverride {
		t.Fatalf("mode = %v", me.Mode())
	}
	if me.State().CurrentGraphic != waveSheet {
		t.Errorf("graphic = %q", me.State().CurrentGraphic)
	}
	if h := me.Animation().Override; h == nil || h.PreviousGraphic != "hero" {
		t.Errorf("override = %+v", h)
	}
}

func TestHandleLocalWithoutCharacter(t *testing.T) {
	s := &SSHServer{sheets: testSheets(), log: slog.Default()}
	ss := s.newSession("ghost")
	defer ss.scene.Close()
	ss.handleLocal(game.ActionEmote) // no panic, nothing to attach to
	if ss.scene.Len() != 0 {
		t.Fatal("scene should be empty")
	}
}
