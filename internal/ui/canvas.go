package ui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// paint is one composed screen cell. An empty fg or bg keeps the terminal default.
type paint struct {
	ch rune
	fg string
	bg string
}

// continuation marks the second column of a wide rune.
const continuation rune = -1

type canvas struct {
	width  int
	height int
	cells  [][]paint
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: maxInt(0, width), height: maxInt(0, height)}
	c.cells = make([][]paint, c.height)
	for y := range c.cells {
		row := make([]paint, c.width)
		for x := range row {
			row[x] = paint{ch: ' '}
		}
		c.cells[y] = row
	}
	return c
}

func (c *canvas) set(x, y int, p paint) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.cells[y][x] = p
}

// text writes s starting at x, clipped to the canvas.
func (c *canvas) text(x, y int, s, fg, bg string) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if w == 2 && x+1 >= c.width {
			return
		}
		c.set(x, y, paint{ch: r, fg: fg, bg: bg})
		if w == 2 {
			c.set(x+1, y, paint{ch: continuation, fg: fg, bg: bg})
		}
		x += w
	}
}

// fill paints a rectangle with spaces in bg.
func (c *canvas) fill(x, y, w, h int, bg string) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			c.set(col, row, paint{ch: ' ', bg: bg})
		}
	}
}

// String renders the canvas, styling runs of cells that share colors.
func (c *canvas) String() string {
	lines := make([]string, c.height)
	for y, row := range c.cells {
		var b strings.Builder
		var run strings.Builder
		var cur paint
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(renderRun(run.String(), cur.fg, cur.bg))
			run.Reset()
		}
		for _, p := range row {
			if p.ch == continuation {
				continue
			}
			if p.fg != cur.fg || p.bg != cur.bg {
				flush()
				cur = p
			}
			run.WriteRune(p.ch)
		}
		flush()
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

func renderRun(s, fg, bg string) string {
	if fg == "" && bg == "" {
		return s
	}
	style := lipgloss.NewStyle()
	if fg != "" {
		style = style.Foreground(lipgloss.Color(fg))
	}
	if bg != "" {
		style = style.Background(lipgloss.Color(bg))
	}
	return style.Render(s)
}

// shade darkens c towards black by opacity.
func shade(c color.RGBA, opacity float64) string {
	scale := func(v uint8) uint8 {
		return uint8(float64(v)*opacity + 0.5)
	}
	return fmt.Sprintf("#%02X%02X%02X", scale(c.R), scale(c.G), scale(c.B))
}
