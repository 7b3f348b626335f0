package render

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"spritesync/internal/character"
	"spritesync/internal/maps"
	"spritesync/internal/scene"
)

const HUDRows = 4

// Cell represents a single terminal cell with full RGB color.
type Cell struct {
	Ch   rune
	Fg   RGB
	Bg   RGB
	Bold bool
}

var sentinel = Cell{Ch: '\x00', Fg: RGB{255, 0, 0}, Bg: RGB{0, 0, 255}, Bold: true}

// View is everything one session frame draws.
type View struct {
	Map    *maps.Map
	Scene  *scene.Scene
	Online int
	Width  int
	Height int
}

// Engine is a per-session double-buffer diff renderer.
type Engine struct {
	width, height int
	current       [][]Cell
	next          [][]Cell
	firstFrame    bool
	lastMap       string
}

// NewEngine creates a renderer for the given terminal dimensions.
func NewEngine(width, height int) *Engine {
	e := &Engine{}
	e.Resize(width, height)
	return e
}

// Resize adjusts the renderer for a new terminal size.
func (e *Engine) Resize(width, height int) {
	e.width = width
	e.height = height
	e.current = e.makeBuffer(sentinel)
	e.next = e.makeBuffer(Cell{})
	e.firstFrame = true
}

func (e *Engine) makeBuffer(fill Cell) [][]Cell {
	buf := make([][]Cell, e.height)
	for y := 0; y < e.height; y++ {
		buf[y] = make([]Cell, e.width)
		for x := 0; x < e.width; x++ {
			buf[y][x] = fill
		}
	}
	return buf
}

// Render produces the ANSI byte output for the current frame.
func (e *Engine) Render(v View) string {
	if v.Width != e.width || v.Height != e.height {
		e.Resize(v.Width, v.Height)
	}
	if v.Map == nil || v.Scene == nil {
		return ""
	}
	if v.Map.Name != e.lastMap {
		e.firstFrame = true
		e.lastMap = v.Map.Name
	}

	// Center on the viewer's rendered position, not the server's, so the
	// camera glides with the sprite.
	var focusX, focusY int
	viewer, hasViewer := v.Scene.Viewer()
	if hasViewer {
		st := viewer.State()
		focusX, focusY = WorldToTile(st.RenderX, st.RenderY)
	} else {
		focusX, focusY = v.Map.SpawnX, v.Map.SpawnY
	}
	vp := NewViewport(focusX, focusY, e.width, e.height, v.Map.Width, v.Map.Height, HUDRows)

	// Clear next buffer
	bgCell := Cell{Ch: ' ', Bg: RGB{10, 10, 15}}
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			e.next[y][x] = bgCell
		}
	}

	// --- Pass 1: Ground tiles ---
	for ty := 0; ty < vp.ViewH; ty++ {
		for tx := 0; tx < vp.ViewW; tx++ {
			wx, wy := vp.CamX+tx, vp.CamY+ty
			if wx >= v.Map.Width || wy >= v.Map.Height {
				continue
			}
			tile := v.Map.TileAt(wx, wy)
			c := Cell{Ch: tile.Char, Fg: AnsiToRGB(tile.Fg), Bg: AnsiToRGB(tile.Bg)}
			e.setCell(tx*TileWidth, ty, c)
			c.Ch = ' '
			for col := 1; col < TileWidth; col++ {
				e.setCell(tx*TileWidth+col, ty, c)
			}
		}
	}

	// --- Pass 2: Characters, back to front ---
	chars := v.Scene.DepthOrder()
	for _, c := range chars {
		e.drawCharacter(vp, c, v.Scene.IsCurrentPlayer(c))
	}

	// --- Pass 3: Effects above everything else ---
	for _, c := range chars {
		e.drawEffects(vp, c)
	}

	name := "spectator"
	mode := "-"
	if hasViewer {
		name = characterName(viewer)
		mode = viewer.Mode().String()
	}
	e.drawHUD(name, characterColor(viewer), v.Online, v.Map.Name, mode)

	return e.flush()
}

func (e *Engine) setCell(x, y int, c Cell) {
	if y >= 0 && y < e.height && x >= 0 && x < e.width && y < e.height-HUDRows {
		e.next[y][x] = c
	}
}

func (e *Engine) drawCharacter(vp Viewport, c *character.Character, self bool) {
	st := c.State()
	col, row, ok := vp.WorldToScreen(st.RenderX, st.RenderY)
	if !ok {
		return
	}
	glyph := '?'
	if f, ok := c.Frame(); ok && f.Glyph != 0 {
		glyph = f.Glyph
	}

	under := e.next[row][col]
	cell := Cell{Ch: glyph, Fg: RGB{240, 220, 120}, Bg: under.Bg, Bold: self}
	if c.IsPlayer() {
		cell.Fg = RGB{255, 255, 255}
		cell.Bg = PlayerColor(characterColor(c))
	}
	e.setCell(col, row, cell)
	if self {
		e.setCell(col+1, row, Cell{Ch: '◂', Fg: cell.Bg.lighten(), Bg: e.next[row][min(col+1, e.width-1)].Bg})
	}
}

// drawEffects draws a character's floating texts centered over the top of
// its graphic.
func (e *Engine) drawEffects(vp Viewport, c *character.Character) {
	top := c.PositionsOfGraphic(character.AlignTopLeft)
	mid := c.PositionsOfGraphic(character.AlignMiddle)
	col, row, _ := vp.WorldToScreen(mid.X(), top.Y())
	for _, eff := range c.Effects() {
		ft, ok := eff.Visual.(*FloatingText)
		if !ok || !ft.Visible() {
			continue
		}
		text := []rune(ft.Text)
		y := row - 1 - ft.Rise()
		x := col - len(text)/2
		for i, r := range text {
			e.setCell(x+i, y, Cell{Ch: r, Fg: RGB{255, 255, 255}, Bg: RGB{30, 25, 45}, Bold: true})
		}
	}
}

// characterName returns the "name" extension of the character's last
// snapshot, falling back to its id.
func characterName(c *character.Character) string {
	if c == nil {
		return ""
	}
	if snap := c.State().LastSnapshot; snap != nil {
		if raw, ok := snap.Extensions["name"]; ok {
			if n := gjson.ParseBytes(raw).String(); n != "" {
				return n
			}
		}
	}
	return c.ID()
}

// characterColor returns the "color" extension, or 0.
func characterColor(c *character.Character) int {
	if c == nil {
		return 0
	}
	if snap := c.State().LastSnapshot; snap != nil {
		if raw, ok := snap.Extensions["color"]; ok {
			return int(gjson.ParseBytes(raw).Int())
		}
	}
	return 0
}

// flush diffs current vs next and emits only changed cells.
func (e *Engine) flush() string {
	var sb strings.Builder
	sb.Grow(16384)

	lastRow, lastCol := -1, -1
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			nc := e.next[y][x]
			if e.firstFrame || nc != e.current[y][x] {
				// Only emit cursor position if not consecutive
				if y != lastRow || x != lastCol {
					sb.WriteString(MoveTo(y+1, x+1))
				}
				WriteCellSGR(&sb, nc)
				lastRow = y
				lastCol = x + 1
			}
		}
	}

	if sb.Len() > 0 {
		sb.WriteString(Reset)
	}

	// Swap buffers
	e.current, e.next = e.next, e.current
	e.firstFrame = false

	return sb.String()
}

// --- HUD ---

func (e *Engine) drawHUD(playerName string, playerColor, playerCount int, mapName, mode string) {
	hudY := e.height - HUDRows
	if hudY < 0 {
		return
	}

	bg := RGB{15, 18, 30}

	// Row 0: separator, thin gradient line
	for x := 0; x < e.width; x++ {
		t := uint8(60 - x*40/max(e.width, 1))
		e.next[hudY][x] = Cell{Ch: '━', Fg: RGB{40 + t, 70 + t, 90 + t}, Bg: bg}
	}
	for row := 1; row < HUDRows; row++ {
		y := hudY + row
		if y >= e.height {
			break
		}
		for x := 0; x < e.width; x++ {
			e.next[y][x] = Cell{Ch: ' ', Bg: bg}
		}
	}

	sep := RGB{60, 65, 85}
	text := RGB{180, 180, 195}

	// Row 1: world info, player name, map, online count
	row1 := hudY + 1
	col := e.writeText(row1, 1, playerName, PlayerColor(playerColor).lighten(), bg, true)
	col = e.writeText(row1, col, "  │  ", sep, bg, false)
	col = e.writeText(row1, col, mapName, text, bg, false)
	col = e.writeText(row1, col, "  │  ", sep, bg, false)
	e.writeText(row1, col, fmt.Sprintf("%d Online", playerCount), text, bg, false)

	// Row 2: animation mode
	e.writeText(hudY+2, 1, mode, RGB{100, 220, 220}, bg, true)

	// Row 3: controls
	e.writeText(hudY+3, 1, "←↑↓→/WASD Move  │  E Emote  │  F Wave  │  Q Quit", RGB{130, 130, 145}, bg, false)
}

// writeText writes colored text starting at col. Returns the next column position.
func (e *Engine) writeText(row, col int, text string, fg, bg RGB, bold bool) int {
	for _, r := range text {
		if col >= e.width {
			break
		}
		if row >= 0 && row < e.height && col >= 0 {
			e.next[row][col] = Cell{Ch: r, Fg: fg, Bg: bg, Bold: bold}
		}
		col++
	}
	return col
}
