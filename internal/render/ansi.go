package render

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ESC   = "\x1b"
	CSI   = ESC + "["
	Reset = CSI + "0m"

	// TileWidth is how many screen columns each world tile occupies.
	// 2 makes tiles appear roughly square since terminal chars are ~2:1.
	TileWidth = 2
)

// MoveTo positions the cursor at row, col (1-based).
func MoveTo(row, col int) string {
	return fmt.Sprintf("%s%d;%dH", CSI, row, col)
}

// ClearScreen clears the entire screen.
func ClearScreen() string {
	return CSI + "2J"
}

// HideCursor hides the terminal cursor.
func HideCursor() string {
	return CSI + "?25l"
}

// ShowCursor shows the terminal cursor.
func ShowCursor() string {
	return CSI + "?25h"
}

// EnableAltScreen switches to the alternate screen buffer.
func EnableAltScreen() string {
	return CSI + "?1049h"
}

// DisableAltScreen switches back from the alternate screen buffer.
func DisableAltScreen() string {
	return CSI + "?1049l"
}

// RGB is a 24-bit terminal color.
type RGB [3]uint8

// PlayerBGColors are the background tints for player characters, indexed
// by the color a player is assigned on join.
var PlayerBGColors = []RGB{
	{180, 50, 50},  // red
	{50, 160, 50},  // green
	{190, 160, 40}, // yellow
	{50, 80, 180},  // blue
	{160, 50, 160}, // magenta
	{50, 160, 160}, // cyan
}

// PlayerColor returns the palette entry for idx, wrapping out-of-range
// values.
func PlayerColor(idx int) RGB {
	n := len(PlayerBGColors)
	return PlayerBGColors[((idx%n)+n)%n]
}

// lighten moves c a third of the way towards white.
func (c RGB) lighten() RGB {
	return RGB{c[0] + (255-c[0])/3, c[1] + (255-c[1])/3, c[2] + (255-c[2])/3}
}

// WriteCellSGR writes a single cell's full SGR + character to the builder.
// Uses combined SGR to avoid state leakage between cells.
func WriteCellSGR(sb *strings.Builder, c Cell) {
	if c.Bold {
		sb.WriteString("\x1b[0;1;38;2;")
	} else {
		sb.WriteString("\x1b[0;38;2;")
	}
	writeRGB(sb, c.Fg)
	sb.WriteString(";48;2;")
	writeRGB(sb, c.Bg)
	sb.WriteByte('m')
	sb.WriteRune(c.Ch)
}

func writeRGB(sb *strings.Builder, c RGB) {
	sb.WriteString(strconv.Itoa(int(c[0])))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(c[1])))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(c[2])))
}

// AnsiToRGB converts a basic ANSI color code to RGB.
func AnsiToRGB(code int) RGB {
	switch code {
	case 30:
		return RGB{0, 0, 0}
	case 31:
		return RGB{170, 0, 0}
	case 32:
		return RGB{0, 170, 0}
	case 33:
		return RGB{170, 170, 0}
	case 34:
		return RGB{0, 0, 170}
	case 35:
		return RGB{170, 0, 170}
	case 36:
		return RGB{0, 170, 170}
	case 37:
		return RGB{170, 170, 170}
	case 90:
		return RGB{85, 85, 85}
	case 91:
		return RGB{255, 85, 85}
	case 92:
		return RGB{85, 255, 85}
	case 93:
		return RGB{255, 255, 85}
	case 94:
		return RGB{85, 85, 255}
	case 95:
		return RGB{255, 85, 255}
	case 96:
		return RGB{85, 255, 255}
	case 97:
		return RGB{255, 255, 255}
	default:
		return RGB{170, 170, 170}
	}
}
