package maps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const townJSON = `{
	"name": "Town", "width": 4, "height": 3,
	"spawn": {"x": 1, "y": 1},
	"tiles": [[1,1,1,1],[1,0,0,1],[1,1,1,1]],
	"legend": {
		"0": {"char": ".", "fg": "green", "walkable": true, "name": "grass"},
		"1": {"char": "#", "fg": "gray", "bg": "black", "name": "wall"}
	},
	"portals": [{"x": 2, "y": 1, "target_map": "Town", "target_x": 1, "target_y": 1}],
	"events": [{"id": "cat", "graphic": "villager", "x": 2, "y": 1, "radius": 1}, {"graphic": "villager", "x": 1, "y": 1}]
}`

func TestParseMap(t *testing.T) {
	m, err := ParseMap([]byte(townJSON))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "Town" || m.Width != 4 || m.Height != 3 {
		t.Fatalf("map = %s %dx%d", m.Name, m.Width, m.Height)
	}
	if !m.IsWalkable(1, 1) || m.IsWalkable(0, 0) || m.IsWalkable(-1, 5) {
		t.Error("walkability wrong")
	}
	if tile := m.TileAt(0, 0); tile.Char != '#' || tile.Fg != 90 || tile.Bg != 30 {
		t.Errorf("wall tile = %+v", tile)
	}
	if p := m.PortalAt(2, 1); p == nil || p.TargetX != 1 {
		t.Errorf("portal = %+v", p)
	}
	if len(m.Events) != 2 || m.Events[0].ID != "cat" || m.Events[1].ID != "Town#1" {
		t.Errorf("events = %+v", m.Events)
	}
}

func TestParseMapErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":  `{"name": "x"`,
		"no name":    `{"width": 1, "height": 1, "tiles": [[0]]}`,
		"short rows": `{"name": "x", "width": 2, "height": 1, "tiles": [[0]]}`,
		"bad legend": `{"name": "x", "width": 1, "height": 1, "tiles": [[0]], "legend": {"grass": {}}}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseMap([]byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	m, err := ParseMap([]byte(townJSON))
	if err != nil {
		t.Fatal(err)
	}
	if errs := Validate(map[string]*Map{"Town": m}); len(errs) != 0 {
		t.Fatalf("valid map reported %v", errs)
	}

	m.SpawnX = 0
	m.Portals[0].TargetX = 0
	m.Events[0].Graphic = ""
	errs := Validate(map[string]*Map{"Town": m})
	if len(errs) != 3 {
		t.Fatalf("errors = %v", errs)
	}
}

func TestLoadMapsRejectsUnknownPortal(t *testing.T) {
	dir := t.TempDir()
	data := strings.Replace(townJSON, `"target_map": "Town"`, `"target_map": "Nowhere"`, 1)
	if err := os.WriteFile(filepath.Join(dir, "town.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMaps(dir); err == nil || !strings.Contains(err.Error(), "Nowhere") {
		t.Fatalf("err = %v", err)
	}
}

func TestDefaultMapIsValid(t *testing.T) {
	m := DefaultMap()
	if errs := Validate(map[string]*Map{m.Name: m}); len(errs) != 0 {
		t.Fatalf("default map: %v", errs)
	}
}
