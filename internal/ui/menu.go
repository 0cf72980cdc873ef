package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/anima/internal/model"
	"github.com/verte-zerg/anima/internal/pet"
)

type menuAction int

const (
	menuToggleLock menuAction = iota
	menuChangeCharacter
	menuOpacityDown
	menuOpacityUp
	menuAddPet
	menuRemovePet
	menuDeleteGIF
	menuQuit
)

const opacityStep = 0.10

type menuItem struct {
	action menuAction
	label  string
	hint   string
}

// contextMenu is the per-pet popup opened with a right click.
type contextMenu struct {
	petID    string
	items    []menuItem
	lines    []string
	selected int
	pos      model.Position
}

func newContextMenu(inst *pet.Instance, opacity float64, petCount int, at model.Position) *contextMenu {
	lock := menuItem{action: menuToggleLock, label: "Lock movement", hint: "dbl-click"}
	if inst.Locked() {
		lock.label = "Unlock movement"
	}
	addHint := fmt.Sprintf("%d/%d", petCount, model.MaxPets)
	items := []menuItem{
		lock,
		{action: menuChangeCharacter, label: "Change character...", hint: "c"},
		{action: menuOpacityDown, label: "Opacity -10%", hint: fmt.Sprintf("%.0f%%", opacity*100)},
		{action: menuOpacityUp, label: "Opacity +10%", hint: ""},
		{action: menuAddPet, label: "Add pet", hint: addHint},
		{action: menuRemovePet, label: "Remove this pet", hint: ""},
		{action: menuDeleteGIF, label: "Delete GIF...", hint: ""},
		{action: menuQuit, label: "Quit", hint: "q"},
	}
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = []string{item.label, item.hint}
	}
	return &contextMenu{
		petID: inst.ID(),
		items: items,
		lines: formatTable(nil, rows, map[int]bool{1: true}),
		pos:   at,
	}
}

// size returns the outer size of the menu box.
func (m *contextMenu) size() model.Size {
	width := 0
	for _, line := range m.lines {
		width = maxInt(width, runewidth.StringWidth(line))
	}
	return model.Size{Width: width + 4, Height: len(m.lines) + 2}
}

// place keeps the menu on a screen of the given size.
func (m *contextMenu) place(screen model.Size) {
	m.pos = model.ClampPosition(m.pos, m.size(), screen)
}

func (m *contextMenu) move(delta int) {
	n := len(m.items)
	m.selected = ((m.selected+delta)%n + n) % n
}

// itemAt returns the index of the item under p or -1.
func (m *contextMenu) itemAt(p model.Position) int {
	size := m.size()
	if p.X <= m.pos.X || p.X >= m.pos.X+size.Width-1 {
		return -1
	}
	idx := p.Y - m.pos.Y - 1
	if idx < 0 || idx >= len(m.items) {
		return -1
	}
	return idx
}

func (m *contextMenu) contains(p model.Position) bool {
	size := m.size()
	return p.X >= m.pos.X && p.X < m.pos.X+size.Width && p.Y >= m.pos.Y && p.Y < m.pos.Y+size.Height
}

func (m *contextMenu) draw(c *canvas) {
	size := m.size()
	x, y := m.pos.X, m.pos.Y
	inner := size.Width - 2
	c.fill(x, y, size.Width, size.Height, menuBackground)
	c.text(x, y, "╭"+strings.Repeat("─", inner)+"╮", menuBorder, menuBackground)
	for i, line := range m.lines {
		fg, bg := menuForeground, menuBackground
		if i == m.selected {
			fg, bg = menuSelectedForeground, menuSelectedBackground
		}
		c.text(x, y+1+i, "│", menuBorder, menuBackground)
		c.text(x+1, y+1+i, " "+padCell(line, inner-2, false)+" ", fg, bg)
		c.text(x+size.Width-1, y+1+i, "│", menuBorder, menuBackground)
	}
	c.text(x, y+size.Height-1, "╰"+strings.Repeat("─", inner)+"╯", menuBorder, menuBackground)
}
