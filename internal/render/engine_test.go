package render

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"spritesync/internal/character"
	"spritesync/internal/maps"
	"spritesync/internal/scene"
	"spritesync/internal/sheet"
	"spritesync/internal/snapshot"
)

type resolver map[string]*sheet.Descriptor

func (r resolver) Get(name string) (*sheet.Descriptor, bool) {
	d, ok := r[name]
	return d, ok
}

func testResolver() resolver {
	stand := map[snapshot.Direction][]sheet.Frame{snapshot.DirDown: {{Glyph: '@'}}}
	return resolver{
		"hero": {
			Name: "hero", SpriteWidth: 32, SpriteHeight: 48,
			Clips: map[string]*sheet.Clip{
				"stand": {Name: "stand", Loop: true, FrameTicks: 10, Frames: stand},
			},
		},
	}
}

func testMap() *maps.Map {
	tiles := make([][]int, 6)
	for y := range tiles {
		tiles[y] = make([]int, 10)
	}
	return &maps.Map{
		Name: "Town", Width: 10, Height: 6, Tiles: tiles,
		Legend: []maps.TileDef{{Char: '.', Fg: 32, Bg: 30, Walkable: true}},
	}
}

func rowText(row []Cell) string {
	var sb strings.Builder
	for _, c := range row {
		sb.WriteRune(c.Ch)
	}
	return sb.String()
}

type heldScheduler struct{ tasks []func() }

func (h *heldScheduler) schedule(task func()) { h.tasks = append(h.tasks, task) }

func newScene(sched character.Scheduler) *scene.Scene {
	s := scene.New("alice", scene.Options{Character: character.Options{
		Resolver:  testResolver(),
		Effects:   FloatingTextFactory(time.Millisecond, 3),
		Scheduler: sched,
	}})
	s.Apply(snapshot.Frame{Tick: 1, Map: "Town", Entities: []snapshot.Snapshot{
		{
			ID: "p1", Position: snapshot.Position{X: 64, Y: 32}, Graphic: "hero", Speed: 8,
			Type: snapshot.TypePlayer, OwnerID: "alice",
			Extensions: map[string]json.RawMessage{"name": json.RawMessage(`"Alice"`), "color": json.RawMessage(`1`)},
		},
		{ID: "cat", Position: snapshot.Position{X: 160, Y: 96}, Graphic: "hero", Speed: 4, Type: snapshot.TypeEvent},
	}})
	return s
}

func TestRenderDrawsSceneAndHUD(t *testing.T) {
	s := newScene(nil)
	defer s.Close()
	e := NewEngine(40, 10)

	out := e.Render(View{Map: testMap(), Scene: s, Online: 1, Width: 40, Height: 10})
	if out == "" {
		t.Fatal("first frame is empty")
	}

	me := e.current[1][4]
	if me.Ch != '@' || me.Bg != PlayerColor(1) || !me.Bold {
		t.Errorf("player cell = %+v", me)
	}
	if marker := e.current[1][5]; marker.Ch != '◂' {
		t.Errorf("self marker = %q", marker.Ch)
	}
	if cat := e.current[3][10]; cat.Ch != '@' || cat.Bold {
		t.Errorf("event cell = %+v", cat)
	}
	if grass := e.current[0][0]; grass.Ch != '.' || grass.Fg != AnsiToRGB(32) {
		t.Errorf("tile cell = %+v", grass)
	}

	info := rowText(e.current[10-HUDRows+1])
	for _, want := range []string{"Alice", "Town", "1 Online"} {
		if !strings.Contains(info, want) {
			t.Errorf("HUD %q missing %q", info, want)
		}
	}
	if mode := rowText(e.current[10-HUDRows+2]); !strings.Contains(mode, "Standing") {
		t.Errorf("mode row = %q", mode)
	}

	if again := e.Render(View{Map: testMap(), Scene: s, Online: 1, Width: 40, Height: 10}); again != "" {
		t.Errorf("unchanged frame emitted %d bytes", len(again))
	}
}

func TestRenderResizeRedraws(t *testing.T) {
	s := newScene(nil)
	defer s.Close()
	e := NewEngine(20, 10)
	e.Render(View{Map: testMap(), Scene: s, Width: 20, Height: 10})

	out := e.Render(View{Map: testMap(), Scene: s, Width: 24, Height: 12})
	if !strings.HasPrefix(out, MoveTo(1, 1)) {
		t.Error("resize should repaint from the top-left corner")
	}
	if len(e.current) != 12 || len(e.current[0]) != 24 {
		t.Errorf("buffer = %dx%d", len(e.current[0]), len(e.current))
	}
}

func TestRenderFloatingText(t *testing.T) {
	held := &heldScheduler{}
	s := newScene(held.schedule)
	defer s.Close()
	me, _ := s.Viewer()
	id := me.AddEffect("hi")

	e := NewEngine(20, 10)
	e.Render(View{Map: testMap(), Scene: s, Width: 20, Height: 10})
	if got := rowText(e.current[0])[4:6]; got != "hi" {
		t.Errorf("effect row = %q", got)
	}

	eff, ok := me.Effect(id)
	if !ok {
		t.Fatal("effect missing")
	}
	ft := eff.Visual.(*FloatingText)
	ft.Detach()
	e.Render(View{Map: testMap(), Scene: s, Width: 20, Height: 10})
	if got := rowText(e.current[0])[4:6]; got == "hi" {
		t.Error("detached text is still drawn")
	}
}

func TestRenderWithoutScene(t *testing.T) {
	e := NewEngine(10, 10)
	if out := e.Render(View{Width: 10, Height: 10}); out != "" {
		t.Errorf("out = %q", out)
	}
}

func TestFloatingTextRises(t *testing.T) {
	ft := &FloatingText{Text: "!", Rows: 3, Step: time.Millisecond}
	if err := ft.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ft.Rise() != 3 {
		t.Errorf("rise = %d", ft.Rise())
	}
	if !ft.Visible() {
		t.Error("visible until detached")
	}
	ft.Detach()
	if ft.Visible() {
		t.Error("still visible after Detach")
	}
}

func TestFloatingTextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ft := &FloatingText{Text: "!", Rows: 100, Step: time.Hour}
	if err := ft.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestViewport(t *testing.T) {
	tests := []struct {
		name         string
		focusX       int
		focusY       int
		wantX, wantY int
	}{
		{"clamped top-left", 1, 1, 0, 0},
		{"centered", 20, 15, 15, 12},
		{"clamped bottom-right", 39, 29, 30, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := NewViewport(tt.focusX, tt.focusY, 20, 10, 40, 30, HUDRows)
			if vp.ViewW != 10 || vp.ViewH != 6 {
				t.Fatalf("view = %dx%d", vp.ViewW, vp.ViewH)
			}
			if vp.CamX != tt.wantX || vp.CamY != tt.wantY {
				t.Errorf("cam = (%d,%d), want (%d,%d)", vp.CamX, vp.CamY, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestWorldToScreen(t *testing.T) {
	vp := Viewport{CamX: 2, CamY: 1, ViewW: 10, ViewH: 6}
	tests := []struct {
		wx, wy   float64
		col, row int
		ok       bool
	}{
		{64, 32, 0, 0, true},
		{80, 40, 1, 0, true},
		{96, 64, 2, 1, true},
		{32, 32, -2, 0, false},
		{64, 7 * 32, 0, 6, false},
	}
	for _, tt := range tests {
		col, row, ok := vp.WorldToScreen(tt.wx, tt.wy)
		if col != tt.col || row != tt.row || ok != tt.ok {
			t.Errorf("WorldToScreen(%v,%v) = %d,%d,%v want %d,%d,%v", tt.wx, tt.wy, col, row, ok, tt.col, tt.row, tt.ok)
		}
	}
}
