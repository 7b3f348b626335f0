package snapshot

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"position":`},
		{"array", `[1,2]`},
		{"missing position", `{"id":"a","speed":2}`},
		{"missing y", `{"id":"a","position":{"x":1}}`},
		{"string x", `{"id":"a","position":{"x":"1","y":2}}`},
		{"direction out of range", `{"id":"a","position":{"x":1,"y":2},"direction":7}`},
		{"negative speed", `{"id":"a","position":{"x":1,"y":2},"speed":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !errors.Is(err, ErrInvalidSnapshot) {
				t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestDecodeNewerVersion(t *testing.T) {
	_, err := Decode([]byte(`{"v":2,"id":"a","position":{"x":1,"y":2}}`))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDecodeCarriesExtensions(t *testing.T) {
	data := `{"id":"hero","position":{"x":10.5,"y":20,"z":3},"direction":2,"graphic":"hero",
		"speed":3,"type":"player","ownerId":"p1","hitbox":{"w":16,"h":16},
		"color":"#ff0000","stats":{"hp":10}}`

	s, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Position != (Position{X: 10.5, Y: 20, Z: 3}) {
		t.Errorf("position = %+v", s.Position)
	}
	if s.Direction != DirRight || s.Direction.String() != "Right" {
		t.Errorf("direction = %v", s.Direction)
	}
	if !s.IsPlayer() || s.IsEvent() {
		t.Errorf("type = %q", s.Type)
	}
	if s.Hitbox == nil || *s.Hitbox != (Hitbox{W: 16, H: 16}) {
		t.Errorf("hitbox = %+v", s.Hitbox)
	}
	if len(s.Extensions) != 2 {
		t.Fatalf("expected 2 extensions, got %v", s.Extensions)
	}
	if string(s.Extensions["color"]) != `"#ff0000"` {
		t.Errorf("color extension = %s", s.Extensions["color"])
	}

	out, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := gjson.GetBytes(out, "stats.hp").Int(); got != 10 {
		t.Errorf("stats.hp after encode = %d", got)
	}
	if got := gjson.GetBytes(out, "v").Int(); got != Version {
		t.Errorf("version after encode = %d", got)
	}
}

func TestEncodeEscapesExtensionKeys(t *testing.T) {
	s := Snapshot{
		ID:       "a",
		Position: Position{X: 1, Y: 2},
		Extensions: map[string]json.RawMessage{
			"a.b":     json.RawMessage(`1`),
			"graphic": json.RawMessage(`"ignored"`),
		},
		Graphic: "hero",
	}
	out, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := Decode(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Graphic != "hero" {
		t.Errorf("extension overrode graphic: %q", back.Graphic)
	}
	if string(back.Extensions["a.b"]) != "1" {
		t.Errorf("dotted key lost: %v", back.Extensions)
	}
}

func TestFrameKeepsValidEntities(t *testing.T) {
	f := Frame{
		Tick: 42,
		Map:  "Town Square",
		Entities: []Snapshot{
			{ID: "a", Position: Position{X: 1, Y: 1}, Type: TypePlayer},
			{ID: "b", Position: Position{X: 2, Y: 2}, Type: TypeEvent},
		},
	}
	data, err := EncodeFrame(f)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}

	// Corrupt the second entity's position.
	broken := strings.Replace(string(data), `"x":2`, `"x":"two"`, 1)

	got, err := DecodeFrame([]byte(broken))
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	if got.Tick != 42 || got.Map != "Town Square" {
		t.Errorf("header = %d %q", got.Tick, got.Map)
	}
	if len(got.Entities) != 1 || got.Entities[0].ID != "a" {
		t.Errorf("entities = %+v", got.Entities)
	}
}

func TestValidateNonFinite(t *testing.T) {
	s := Snapshot{ID: "a", Position: Position{X: math.NaN(), Y: 1}}
	if err := s.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	s.Position.X = 1
	s.Speed = math.Inf(1)
	if err := s.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot for speed, got %v", err)
	}
}

func TestEqualAndClone(t *testing.T) {
	a := Snapshot{
		ID:         "a",
		Position:   Position{X: 1, Y: 2},
		Hitbox:     &Hitbox{W: 16, H: 16},
		Extensions: map[string]json.RawMessage{"k": json.RawMessage(`1`)},
	}
	b := a.Clone()
	if !Equal(a, b) {
		t.Fatal("clone should be equal")
	}
	b.Hitbox.W = 8
	if Equal(a, b) {
		t.Fatal("clone shares hitbox with original")
	}
	c := a.Clone()
	c.Extensions["k"] = json.RawMessage(`2`)
	if Equal(a, c) {
		t.Fatal("extension change not detected")
	}
}

func TestSchemaAllowsExtensions(t *testing.T) {
	s := Schema()
	if s.Title == "" {
		t.Fatal("schema has no title")
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	if !gjson.ValidBytes(data) {
		t.Fatal("schema is not valid json")
	}
}

func TestDecodeFrameMalformed(t *testing.T) {
	if _, err := DecodeFrame([]byte(`{"tick": 1, "entities": [`)); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}
