package render

import (
	"math"

	"spritesync/internal/maps"
)

// Viewport computes camera coordinates for a player's view. The camera
// works in tiles; positions are converted from world pixels.
type Viewport struct {
	CamX, CamY   int // top-left world tile
	ViewW, ViewH int // viewport size in tiles
}

// NewViewport calculates the camera position centered on the tile at
// focusX, focusY, clamped to map edges. hudRows reserves space for the HUD
// at the bottom.
func NewViewport(focusX, focusY, termW, termH, mapW, mapH, hudRows int) Viewport {
	viewW := termW / TileWidth
	viewH := termH - hudRows

	camX := focusX - viewW/2
	camY := focusY - viewH/2

	// Clamp to map edges
	if camX+viewW > mapW {
		camX = mapW - viewW
	}
	if camY+viewH > mapH {
		camY = mapH - viewH
	}
	camX = max(camX, 0)
	camY = max(camY, 0)

	return Viewport{
		CamX:  camX,
		CamY:  camY,
		ViewW: viewW,
		ViewH: viewH,
	}
}

// WorldToTile converts a world pixel position to the tile that contains it.
func WorldToTile(wx, wy float64) (int, int) {
	return int(math.Floor(wx / maps.TileSize)), int(math.Floor(wy / maps.TileSize))
}

// WorldToScreen converts a world pixel position to a 0-based screen column
// and row. ok is false when the position falls outside the viewport.
func (v Viewport) WorldToScreen(wx, wy float64) (col, row int, ok bool) {
	col = int(math.Floor((wx/maps.TileSize - float64(v.CamX)) * TileWidth))
	row = int(math.Floor(wy/maps.TileSize - float64(v.CamY)))
	ok = col >= 0 && col < v.ViewW*TileWidth && row >= 0 && row < v.ViewH
	return col, row, ok
}
