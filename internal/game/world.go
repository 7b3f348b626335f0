package game

import (
	"slices"

	"spritesync/internal/maps"
)

// World wraps multiple Maps and provides game-level helpers.
type World struct {
	Maps       map[string]*maps.Map
	DefaultMap string
}

// NewWorld creates a world from the given map registry. An unknown default
// map falls back to the first map by name.
func NewWorld(allMaps map[string]*maps.Map, defaultMap string) *World {
	if _, ok := allMaps[defaultMap]; !ok {
		if names := sortedNames(allMaps); len(names) > 0 {
			defaultMap = names[0]
		}
	}
	return &World{Maps: allMaps, DefaultMap: defaultMap}
}

func sortedNames(allMaps map[string]*maps.Map) []string {
	names := make([]string, 0, len(allMaps))
	for n := range allMaps {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// SpawnPoint returns the default map's name and spawn coordinates.
func (w *World) SpawnPoint() (string, int, int) {
	m := w.Maps[w.DefaultMap]
	return w.DefaultMap, m.SpawnX, m.SpawnY
}

// CanMoveTo checks if the destination tile is walkable on the named map.
func (w *World) CanMoveTo(mapName string, x, y int) bool {
	m, ok := w.Maps[mapName]
	if !ok {
		return false
	}
	return m.IsWalkable(x, y)
}

// PortalAt returns the portal at the given position on the named map, or nil.
func (w *World) PortalAt(mapName string, x, y int) *maps.Portal {
	m, ok := w.Maps[mapName]
	if !ok {
		return nil
	}
	return m.PortalAt(x, y)
}

// GetMap returns the map with the given name, or nil.
func (w *World) GetMap(name string) *maps.Map {
	return w.Maps[name]
}

// MapNames returns every map name in sorted order.
func (w *World) MapNames() []string {
	return sortedNames(w.Maps)
}
