package maps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// TileSize is the edge of one tile in world pixels. Positions on the wire
// are in pixels; the simulation moves in whole tiles.
const TileSize = 32

// colorNames maps color names from JSON to ANSI codes.
var colorNames = map[string]int{
	"black":          30,
	"red":            31,
	"green":          32,
	"yellow":         33,
	"blue":           34,
	"magenta":        35,
	"cyan":           36,
	"white":          37,
	"gray":           90,
	"grey":           90,
	"bright_red":     91,
	"bright_green":   92,
	"bright_yellow":  93,
	"bright_blue":    94,
	"bright_magenta": 95,
	"bright_cyan":    96,
	"bright_white":   97,
}

func resolveColor(name string, fallback int) int {
	if code, ok := colorNames[name]; ok {
		return code
	}
	return fallback
}

// TileDef defines the look and walkability of a tile type.
type TileDef struct {
	Char     rune
	Fg       int
	Bg       int
	Walkable bool
	Name     string
}

// Portal links a tile to a position on a map, possibly the same one.
type Portal struct {
	X, Y             int
	TargetMap        string
	TargetX, TargetY int
}

// Event is a non-player entity placed on the map. It wanders within Radius
// tiles of where it starts.
type Event struct {
	ID      string
	Graphic string
	X, Y    int
	Radius  int
}

// Map is a loaded tile map.
type Map struct {
	Name    string
	Width   int
	Height  int
	SpawnX  int
	SpawnY  int
	Tiles   [][]int   // [y][x] tile indices
	Legend  []TileDef // index -> tile definition
	Portals []Portal
	Events  []Event
}

// LoadMap reads a JSON map file from disk.
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map file: %w", err)
	}
	return ParseMap(data)
}

// ParseMap decodes the on-disk map format:
//
//	{"name": "Town Square", "width": 3, "height": 1,
//	 "spawn": {"x": 1, "y": 0}, "tiles": [[1, 0, 1]],
//	 "legend": {"0": {"char": ".", "fg": "green", "walkable": true}},
//	 "portals": [{"x": 0, "y": 0, "target_map": "Forest", "target_x": 1, "target_y": 1}],
//	 "events": [{"id": "cat", "graphic": "villager", "x": 1, "y": 0, "radius": 2}]}
func ParseMap(data []byte) (*Map, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse map JSON: malformed")
	}
	root := gjson.ParseBytes(data)

	m := &Map{
		Name:   root.Get("name").String(),
		Width:  int(root.Get("width").Int()),
		Height: int(root.Get("height").Int()),
		SpawnX: int(root.Get("spawn.x").Int()),
		SpawnY: int(root.Get("spawn.y").Int()),
	}
	if m.Name == "" {
		return nil, fmt.Errorf("map has no name")
	}

	var legendErr error
	root.Get("legend").ForEach(func(key, jt gjson.Result) bool {
		var idx int
		if _, err := fmt.Sscanf(key.String(), "%d", &idx); err != nil || idx < 0 {
			legendErr = fmt.Errorf("legend key %q is not a tile index", key.String())
			return false
		}
		for len(m.Legend) <= idx {
			m.Legend = append(m.Legend, TileDef{Char: '?', Fg: 37, Name: "unknown"})
		}
		ch := '?'
		if s := []rune(jt.Get("char").String()); len(s) > 0 {
			ch = s[0]
		}
		m.Legend[idx] = TileDef{
			Char:     ch,
			Fg:       resolveColor(jt.Get("fg").String(), 37),
			Bg:       resolveColor(jt.Get("bg").String(), 30),
			Walkable: jt.Get("walkable").Bool(),
			Name:     jt.Get("name").String(),
		}
		return true
	})
	if legendErr != nil {
		return nil, legendErr
	}

	for _, row := range root.Get("tiles").Array() {
		var r []int
		for _, v := range row.Array() {
			r = append(r, int(v.Int()))
		}
		m.Tiles = append(m.Tiles, r)
	}
	if len(m.Tiles) != m.Height {
		return nil, fmt.Errorf("tile rows %d != declared height %d", len(m.Tiles), m.Height)
	}
	for y, row := range m.Tiles {
		if len(row) != m.Width {
			return nil, fmt.Errorf("row %d has %d tiles, expected %d", y, len(row), m.Width)
		}
	}

	for _, jp := range root.Get("portals").Array() {
		m.Portals = append(m.Portals, Portal{
			X:         int(jp.Get("x").Int()),
			Y:         int(jp.Get("y").Int()),
			TargetMap: jp.Get("target_map").String(),
			TargetX:   int(jp.Get("target_x").Int()),
			TargetY:   int(jp.Get("target_y").Int()),
		})
	}

	for i, je := range root.Get("events").Array() {
		ev := Event{
			ID:      je.Get("id").String(),
			Graphic: je.Get("graphic").String(),
			X:       int(je.Get("x").Int()),
			Y:       int(je.Get("y").Int()),
			Radius:  int(je.Get("radius").Int()),
		}
		if ev.ID == "" {
			ev.ID = fmt.Sprintf("%s#%d", m.Name, i)
		}
		m.Events = append(m.Events, ev)
	}
	return m, nil
}

// TileAt returns the tile definition at the given coordinates.
// Returns a default non-walkable tile for out-of-bounds coordinates.
func (m *Map) TileAt(x, y int) TileDef {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return TileDef{Char: ' ', Fg: 37, Walkable: false, Name: "void"}
	}
	idx := m.Tiles[y][x]
	if idx < 0 || idx >= len(m.Legend) {
		return TileDef{Char: '?', Fg: 37, Walkable: false, Name: "unknown"}
	}
	return m.Legend[idx]
}

// IsWalkable checks if the tile at x,y can be walked on.
func (m *Map) IsWalkable(x, y int) bool {
	return m.TileAt(x, y).Walkable
}

// PortalAt returns the portal at the given coordinates, or nil if none.
func (m *Map) PortalAt(x, y int) *Portal {
	for i := range m.Portals {
		if m.Portals[i].X == x && m.Portals[i].Y == y {
			return &m.Portals[i]
		}
	}
	return nil
}

// LoadMaps scans a directory for *.json files and returns the maps indexed
// by Name. Portals must reference maps in the same directory.
func LoadMaps(dir string) (map[string]*Map, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read maps directory: %w", err)
	}

	allMaps := make(map[string]*Map)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		m, err := LoadMap(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		if _, exists := allMaps[m.Name]; exists {
			return nil, fmt.Errorf("duplicate map name %q in %s", m.Name, entry.Name())
		}
		allMaps[m.Name] = m
	}

	for name, m := range allMaps {
		for _, p := range m.Portals {
			if _, ok := allMaps[p.TargetMap]; !ok {
				return nil, fmt.Errorf("map %q portal at (%d,%d) references unknown map %q", name, p.X, p.Y, p.TargetMap)
			}
		}
	}
	return allMaps, nil
}

// Validate reports problems that load fine but break play: unwalkable
// spawns, portals leading into walls and events placed off the floor.
func Validate(allMaps map[string]*Map) []error {
	var errs []error
	for name, m := range allMaps {
		if !m.IsWalkable(m.SpawnX, m.SpawnY) {
			errs = append(errs, fmt.Errorf("%s: spawn (%d,%d) is not walkable", name, m.SpawnX, m.SpawnY))
		}
		for y, row := range m.Tiles {
			for x, idx := range row {
				if idx < 0 || idx >= len(m.Legend) {
					errs = append(errs, fmt.Errorf("%s: tile (%d,%d) index %d outside legend", name, x, y, idx))
				}
			}
		}
		for _, p := range m.Portals {
			if p.X < 0 || p.X >= m.Width || p.Y < 0 || p.Y >= m.Height {
				errs = append(errs, fmt.Errorf("%s: portal at (%d,%d) is out of bounds", name, p.X, p.Y))
			}
			if tm, ok := allMaps[p.TargetMap]; ok && !tm.IsWalkable(p.TargetX, p.TargetY) {
				errs = append(errs, fmt.Errorf("%s: portal at (%d,%d) targets non-walkable (%d,%d) in %q",
					name, p.X, p.Y, p.TargetX, p.TargetY, p.TargetMap))
			}
		}
		for _, ev := range m.Events {
			if !m.IsWalkable(ev.X, ev.Y) {
				errs = append(errs, fmt.Errorf("%s: event %q at (%d,%d) is not walkable", name, ev.ID, ev.X, ev.Y))
			}
			if ev.Graphic == "" {
				errs = append(errs, fmt.Errorf("%s: event %q has no graphic", name, ev.ID))
			}
		}
	}
	return errs
}

// DefaultMap returns a simple fallback map if no JSON file is available.
func DefaultMap() *Map {
	w, h := 60, 30
	tiles := make([][]int, h)
	for y := 0; y < h; y++ {
		tiles[y] = make([]int, w)
		for x := 0; x < w; x++ {
			if x == 0 || x == w-1 || y == 0 || y == h-1 {
				tiles[y][x] = 1 // wall
			}
		}
	}

	return &Map{
		Name:   "Default",
		Width:  w,
		Height: h,
		SpawnX: w / 2,
		SpawnY: h / 2,
		Tiles:  tiles,
		Legend: []TileDef{
			{Char: '.', Fg: 32, Bg: 30, Walkable: true, Name: "grass"},
			{Char: '#', Fg: 90, Bg: 30, Walkable: false, Name: "wall"},
		},
		Portals: []Portal{{X: 2, Y: 2, TargetMap: "Default", TargetX: w - 3, TargetY: h - 3}},
		Events:  []Event{{ID: "wanderer", Graphic: "villager", X: w/2 + 4, Y: h / 2, Radius: 3}},
	}
}
