package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/anima/internal/model"
)

const (
	previewWidth    = 16
	previewGap      = 2
	tableMinWidth   = 40
	previewFallback = "No preview"
)

// selector is the character catalog panel.
type selector struct {
	target     string
	chars      []model.Character
	table      table.Model
	input      textinput.Model
	importing  bool
	errMsg     string
	preview    *surface
	previewID  string
	previewErr string
}

func (m *Model) openSelector(target string) tea.Cmd {
	input := textinput.New()
	input.Prompt = "GIF path: "
	input.Placeholder = "~/Pictures/pet.gif"
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)

	m.menu = nil
	m.selector = &selector{
		target: target,
		table: table.New(
			table.WithColumns(selectorColumns(m.width)),
			table.WithFocused(true),
			table.WithHeight(1),
		),
		input: input,
	}
	m.selector.table.SetStyles(selectorTableStyles())
	m.refreshSelector("")
	if inst, ok := m.pets.Get(target); ok {
		m.selectCharacter(inst.Character().ID)
	}
	m.syncPreview()
	return nil
}

func (m *Model) updateSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := m.selector
	if sel.importing {
		switch msg.Type {
		case tea.KeyEsc:
			sel.importing = false
			sel.errMsg = ""
			sel.input.Blur()
			sel.input.SetValue("")
			return m, nil
		case tea.KeyEnter:
			m.importCharacter()
			return m, nil
		}
		var cmd tea.Cmd
		sel.input, cmd = sel.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		m.selector = nil
		return m, nil
	case "q", "ctrl+c":
		return m.quit()
	case "enter":
		m.useSelected()
		return m, nil
	case "n":
		if c, ok := m.selectedCharacter(); ok {
			m.spawn(c)
			m.refreshSelector(c.ID)
		}
		return m, nil
	case "a":
		sel.importing = true
		sel.errMsg = ""
		return m, sel.input.Focus()
	case "d":
		m.deleteSelected()
		return m, nil
	case "-":
		m.adjustSharedOpacity(-opacityStep)
		return m, nil
	case "=", "+":
		m.adjustSharedOpacity(opacityStep)
		return m, nil
	}
	var cmd tea.Cmd
	sel.table, cmd = sel.table.Update(msg)
	m.syncPreview()
	return m, cmd
}

// syncPreview decodes the highlighted character when the cursor moved to a new one.
func (m *Model) syncPreview() {
	sel := m.selector
	c, ok := m.selectedCharacter()
	if !ok {
		sel.preview, sel.previewID, sel.previewErr = nil, "", ""
		return
	}
	if c.ID == sel.previewID {
		return
	}
	sel.previewID = c.ID
	sf, err := m.stage.preview(c, previewWidth)
	if err != nil {
		m.l.WithError(err).Warnf("Unable to preview [%s].", c.ID)
		sel.preview = nil
		sel.previewErr = previewFallback
		return
	}
	sel.preview = sf
	sel.previewErr = ""
}

func (m *Model) selectedCharacter() (model.Character, bool) {
	sel := m.selector
	idx := sel.table.Cursor()
	if idx < 0 || idx >= len(sel.chars) {
		return model.Character{}, false
	}
	return sel.chars[idx], true
}

func (m *Model) useSelected() {
	c, ok := m.selectedCharacter()
	if !ok {
		return
	}
	if _, ok := m.pets.Get(m.selector.target); !ok {
		m.spawn(c)
		m.selector = nil
		return
	}
	if err := m.pets.SwitchCharacter(m.selector.target, c); err != nil {
		m.selector.errMsg = err.Error()
		m.report(err)
		return
	}
	m.selector = nil
	m.inform(fmt.Sprintf("Now showing %s", c.ID))
}

func (m *Model) deleteSelected() {
	c, ok := m.selectedCharacter()
	if !ok {
		return
	}
	if err := m.catalog.Delete(context.Background(), c.ID, m.pets); err != nil {
		m.selector.errMsg = err.Error()
		m.report(err)
		return
	}
	m.selector.errMsg = ""
	m.refreshSelector("")
	m.inform(fmt.Sprintf("Deleted %s", c.ID))
}

func (m *Model) importCharacter() {
	sel := m.selector
	path := expandPath(strings.TrimSpace(sel.input.Value()))
	if path == "" {
		return
	}
	c, err := m.catalog.Import(context.Background(), path)
	if err != nil {
		sel.errMsg = err.Error()
		m.report(err)
		return
	}
	sel.importing = false
	sel.errMsg = ""
	sel.input.Blur()
	sel.input.SetValue("")
	m.refreshSelector(c.ID)
	m.inform(fmt.Sprintf("Imported %s", c.ID))
}

// refreshSelector reloads the catalog and moves the cursor to selectID when set.
func (m *Model) refreshSelector(selectID string) {
	sel := m.selector
	chars, err := m.catalog.List(context.Background())
	if err != nil {
		sel.errMsg = err.Error()
		m.report(err)
		return
	}
	sel.chars = chars
	rows := make([]table.Row, 0, len(chars))
	for _, c := range chars {
		inUse := ""
		if m.pets.InUse(c.ID) {
			inUse = "yes"
		}
		rows = append(rows, table.Row{c.ID, string(c.Origin), inUse})
	}
	cur := sel.table.Cursor()
	sel.table.SetRows(rows)
	if selectID == "" || !m.selectCharacter(selectID) {
		sel.table.SetCursor(minInt(maxInt(cur, 0), len(rows)-1))
	}
	sel.resize(m.width, m.stageSize().Height)
	m.syncPreview()
}

func (m *Model) selectCharacter(id string) bool {
	for i, c := range m.selector.chars {
		if c.ID == id {
			m.selector.table.SetCursor(i)
			return true
		}
	}
	return false
}

func (s *selector) resize(width, height int) {
	s.table.SetColumns(selectorColumns(width))
	s.table.SetWidth(tableWidth(width))
	s.table.SetHeight(maxInt(3, minInt(len(s.chars)+1, height-14)))
	promptWidth := lipgloss.Width(s.input.Prompt)
	s.input.Width = maxInt(10, modalInnerWidth(width)-promptWidth-1)
}

func (m *Model) renderSelector(height int) string {
	sel := m.selector
	target := "Target: new pet"
	for i, inst := range m.pets.Instances() {
		if inst.ID() == sel.target {
			target = fmt.Sprintf("Target: pet %d · %s", i+1, inst.Character().ID)
		}
	}
	body := []string{
		titleStyle.Render("Characters"),
		mutedStyle.Render(target),
		"",
		m.renderTableWithPreview(),
		"",
	}
	if sel.importing {
		body = append(body, sel.input.View(), mutedStyle.Render("Enter to import / Esc to cancel"))
	} else {
		body = append(body, mutedStyle.Render("enter use · n add pet · a import · d delete · -/= opacity · esc close"))
	}
	if sel.errMsg != "" {
		body = append(body, errorStyle.Render(truncateLine(sel.errMsg, modalInnerWidth(m.width))))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderTableWithPreview() string {
	sel := m.selector
	if !showPreview(m.width) {
		return sel.table.View()
	}
	var view string
	if sel.preview != nil {
		size := sel.preview.Size()
		c := newCanvas(size.Width, size.Height)
		sel.preview.draw(c)
		view = c.String()
	} else {
		view = mutedStyle.Render(padLine(sel.previewErr, previewWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, sel.table.View(), strings.Repeat(" ", previewGap), view)
}

func showPreview(width int) bool {
	return modalInnerWidth(width) >= tableMinWidth+previewGap+previewWidth
}

func tableWidth(width int) int {
	inner := modalInnerWidth(width)
	if showPreview(width) {
		return inner - previewGap - previewWidth
	}
	return inner
}

func selectorColumns(width int) []table.Column {
	inner := tableWidth(width)
	nameWidth := maxInt(10, inner-9-6-3)
	return []table.Column{
		{Title: "Character", Width: nameWidth},
		{Title: "Origin", Width: 9},
		{Title: "In use", Width: 6},
	}
}

func selectorTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#4A3A1A")).
		Bold(true)
	return styles
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 80))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
