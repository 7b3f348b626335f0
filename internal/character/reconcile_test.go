package character

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"pgregory.net/rapid"

	"spritesync/internal/sheet"
	"spritesync/internal/snapshot"
)

func at(x, y, speed float64) snapshot.Snapshot {
	return snapshot.Snapshot{ID: "e1", Position: snapshot.Position{X: x, Y: y}, Speed: speed}
}

func TestReconcileScenarios(t *testing.T) {
	tests := []struct {
		name   string
		speed  float64
		target float64
		xs     []float64
		moving []bool
	}{
		{
			name:   "steps then settles",
			speed:  4,
			target: 10,
			xs:     []float64{4, 8, 10, 10},
			moving: []bool{true, true, true, false},
		},
		{
			name:   "snaps beyond fifteen steps",
			speed:  2,
			target: 50,
			xs:     []float64{50, 50},
			moving: []bool{true, false},
		},
		{
			name:   "negative delta",
			speed:  3,
			target: -7,
			xs:     []float64{-3, -6, -7},
			moving: []bool{true, true, true},
		},
		{
			name:   "zero speed jumps",
			speed:  0,
			target: 5,
			xs:     []float64{5, 5},
			moving: []bool{true, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rs RenderState
			snap := at(tt.target, 0, tt.speed)
			for i := range tt.xs {
				var moving bool
				rs, moving = Reconcile(rs, snap, DefaultSnapFactor)
				if rs.RenderX != tt.xs[i] || moving != tt.moving[i] {
					t.Fatalf("tick %d: x=%v moving=%v, want x=%v moving=%v",
						i+1, rs.RenderX, moving, tt.xs[i], tt.moving[i])
				}
			}
		})
	}
}

func TestReconcileFloorsAndLifts(t *testing.T) {
	snap := snapshot.Snapshot{Position: snapshot.Position{X: 3.9, Y: 10.5, Z: 2.7}, Speed: 100}
	rs, moving := Reconcile(RenderState{}, snap, DefaultSnapFactor)
	if !moving {
		t.Fatal("expected movement")
	}
	if rs.RenderX != 3 || rs.RenderY != 8 || rs.Z != 2 {
		t.Errorf("got x=%v y=%v z=%v, want 3 8 2", rs.RenderX, rs.RenderY, rs.Z)
	}
	if rs.Depth != rs.RenderY {
		t.Errorf("depth %v should follow renderY %v", rs.Depth, rs.RenderY)
	}
}

func TestReconcileDepthFollowsStep(t *testing.T) {
	snap := snapshot.Snapshot{Position: snapshot.Position{Y: 10}, Speed: 4}
	rs, _ := Reconcile(RenderState{}, snap, DefaultSnapFactor)
	if rs.RenderY != 4 || rs.Depth != 4 {
		t.Errorf("y=%v depth=%v, want both 4 after one step", rs.RenderY, rs.Depth)
	}
}

func TestReconcileFixed(t *testing.T) {
	local := RenderState{RenderX: 1, RenderY: 2, Depth: 2, Fixed: true}
	rs, moving := Reconcile(local, at(100, 100, 4), DefaultSnapFactor)
	if moving || rs != local {
		t.Errorf("fixed entity changed: %+v moving=%v", rs, moving)
	}
}

// Speeds are multiples of 1/4 so positions stay exact in float64.
func TestReconcileConvergesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		quarters := rapid.IntRange(1, 80).Draw(t, "quarters")
		speed := float64(quarters) / 4
		limit := 15 * quarters / 4
		d := rapid.IntRange(-limit, limit).Draw(t, "delta")
		dist := d
		if dist < 0 {
			dist = -dist
		}
		want := (4*dist + quarters - 1) / quarters

		var rs RenderState
		snap := at(float64(d), 0, speed)
		ticks := 0
		for rs.RenderX != float64(d) {
			before := rs.RenderX
			var moving bool
			rs, moving = Reconcile(rs, snap, DefaultSnapFactor)
			ticks++
			if !moving {
				t.Fatalf("tick %d did not move", ticks)
			}
			if (float64(d)-before)*(float64(d)-rs.RenderX) < 0 {
				t.Fatalf("overshot: %v -> %v target %d", before, rs.RenderX, d)
			}
			if ticks > want {
				t.Fatalf("took more than %d ticks", want)
			}
		}
		if ticks != want {
			t.Fatalf("reached target in %d ticks, want %d", ticks, want)
		}
		if _, moving := Reconcile(rs, snap, DefaultSnapFactor); moving {
			t.Fatal("moving at rest")
		}
	})
}

func TestReconcileSnapProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		quarters := rapid.IntRange(0, 80).Draw(t, "quarters")
		speed := float64(quarters) / 4
		d := rapid.IntRange(15*quarters/4+1, 5000).Draw(t, "delta")
		if rapid.Bool().Draw(t, "negative") {
			d = -d
		}
		rs, moving := Reconcile(RenderState{}, at(0, float64(d), speed), DefaultSnapFactor)
		if !moving || rs.RenderY != float64(d) {
			t.Fatalf("first tick y=%v moving=%v, want snap to %d", rs.RenderY, moving, d)
		}
	})
}

func TestResolveGeometry(t *testing.T) {
	frameAnchor := mgl64.Vec2{0.5, 0.9}
	withFrameAnchor := &sheet.Descriptor{
		SpriteWidth: 32, SpriteHeight: 48,
		Clips: map[string]*sheet.Clip{
			"stand": {Name: "stand", FrameTicks: 1, Frames: map[snapshot.Direction][]sheet.Frame{
				snapshot.DirDown: {{Anchor: &frameAnchor}},
			}},
		},
	}
	tests := []struct {
		name   string
		d      *sheet.Descriptor
		hitbox *snapshot.Hitbox
		anchor mgl64.Vec2
		offset mgl64.Vec2
	}{
		{
			name:   "derived from hitbox",
			d:      &sheet.Descriptor{SpriteWidth: 32, SpriteHeight: 48},
			hitbox: &snapshot.Hitbox{W: 16, H: 16},
			anchor: mgl64.Vec2{0.25, 2.0 / 3},
			offset: mgl64.Vec2{-8, -32 * 2.0 / 3},
		},
		{
			name:   "frame anchor wins",
			d:      withFrameAnchor,
			hitbox: &snapshot.Hitbox{W: 16, H: 16},
			anchor: frameAnchor,
			offset: mgl64.Vec2{-16, -28.8},
		},
		{
			name:   "zero hitbox",
			d:      &sheet.Descriptor{SpriteWidth: 32, SpriteHeight: 48},
			hitbox: &snapshot.Hitbox{},
		},
		{
			name: "no hitbox",
			d:    &sheet.Descriptor{SpriteWidth: 32, SpriteHeight: 32},
		},
		{
			name:   "missing sheet",
			hitbox: &snapshot.Hitbox{W: 16, H: 16},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchor, shape := ResolveGeometry(tt.d, tt.hitbox)
			if !anchor.ApproxEqual(tt.anchor) {
				t.Errorf("anchor = %v, want %v", anchor, tt.anchor)
			}
			if !shape.Offset.ApproxEqual(tt.offset) {
				t.Errorf("offset = %v, want %v", shape.Offset, tt.offset)
			}
			if shape.SizeTiles != [2]int{1, 1} {
				t.Errorf("size = %v", shape.SizeTiles)
			}
		})
	}
}
