// Package ui provides the Bubble Tea desktop-pet interface.
package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/anima/internal/catalog"
	"github.com/verte-zerg/anima/internal/model"
	"github.com/verte-zerg/anima/internal/pet"
	"github.com/verte-zerg/anima/internal/tray"
)

const (
	frameInterval     = 50 * time.Millisecond
	doubleClickWindow = 400 * time.Millisecond
	noticeTTL         = 4 * time.Second
)

const (
	menuForeground         = "#F0F0F0"
	menuBackground         = "#262626"
	menuBorder             = "#C89A3A"
	menuSelectedForeground = "#1A1A1A"
	menuSelectedBackground = "#C89A3A"
)

var (
	trayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	modalStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

type tickMsg time.Time

type click struct {
	petID string
	at    time.Time
}

type notice struct {
	text  string
	isErr bool
	at    time.Time
}

type trayButton struct {
	action tray.Action
	start  int
	end    int
}

// Options configures a Model.
type Options struct {
	Pets    *pet.Manager
	Tray    *tray.Controller
	Stage   *Stage
	Catalog *catalog.Catalog
	Logger  logrus.FieldLogger
	Now     func() time.Time
}

// Model implements the Bubble Tea pet UI.
type Model struct {
	pets    *pet.Manager
	tray    *tray.Controller
	stage   *Stage
	catalog *catalog.Catalog
	l       logrus.FieldLogger
	now     func() time.Time

	width  int
	height int

	dragging  string
	lastClick click
	lastTick  time.Time

	menu     *contextMenu
	selector *selector
	notice   notice
}

// NewModel constructs the pet UI model.
func NewModel(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Model{
		pets:    opts.Pets,
		tray:    opts.Tray,
		stage:   opts.Stage,
		catalog: opts.Catalog,
		l:       opts.Logger,
		now:     opts.Now,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pets.SetScreen(m.stageSize())
		if m.menu != nil {
			m.menu.place(m.stageSize())
		}
		if m.selector != nil {
			m.selector.resize(m.width, m.stageSize().Height)
		}
		return m, nil
	case tickMsg:
		m.onTick(time.Time(msg))
		return m, tick()
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		if m.selector != nil {
			return m.updateSelector(msg)
		}
		if m.menu != nil {
			return m.updateMenu(msg)
		}
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	bar := m.renderTrayBar()
	stageHeight := m.stageSize().Height
	if m.height < 2 {
		return bar
	}
	var body string
	if m.selector != nil {
		body = fitLines(m.renderSelector(stageHeight), m.width, stageHeight)
	} else {
		c := newCanvas(m.width, stageHeight)
		m.stage.draw(c)
		if m.menu != nil {
			m.menu.draw(c)
		}
		body = c.String()
	}
	return body + "\n" + bar
}

func (m *Model) stageSize() model.Size {
	return model.Size{Width: m.width, Height: maxInt(1, m.height-1)}
}

func (m *Model) onTick(now time.Time) {
	dt := frameInterval
	if !m.lastTick.IsZero() {
		dt = now.Sub(m.lastTick)
	}
	m.lastTick = now
	m.stage.Advance(dt)
	if m.selector != nil && m.selector.preview != nil {
		m.selector.preview.advance(dt)
	}
	m.pets.Tick(now)
	if m.notice.text != "" && now.Sub(m.notice.at) > noticeTTL {
		m.notice = notice{}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()
	case "s":
		m.tray.Show()
	case "h":
		m.tray.Hide()
	case "c":
		target := ""
		if primary := m.pets.Primary(); primary != nil {
			target = primary.ID()
		}
		return m, m.openSelector(target)
	case "n":
		m.spawn(m.characterOrDefault(m.pets.Settings().SelectedCharacter))
	case "l":
		if primary := m.pets.Primary(); primary != nil {
			m.toggleLock(primary.ID())
		}
	case "-":
		m.adjustSharedOpacity(-opacityStep)
	case "=", "+":
		m.adjustSharedOpacity(opacityStep)
	}
	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k", "shift+tab":
		m.menu.move(-1)
	case "down", "j", "tab":
		m.menu.move(1)
	case "enter", " ":
		return m.runMenu()
	case "esc":
		m.menu = nil
	case "q", "ctrl+c":
		return m.quit()
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	p := model.Position{X: msg.X, Y: msg.Y}
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == m.height-1 {
		return m.clickTray(msg.X)
	}
	if m.selector != nil {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if m.menu != nil {
			if m.menu.contains(p) {
				if idx := m.menu.itemAt(p); idx >= 0 && msg.Button == tea.MouseButtonLeft {
					m.menu.selected = idx
					return m.runMenu()
				}
				return m, nil
			}
			m.menu = nil
		}
		inst := m.petAt(p)
		if inst == nil {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.pressPet(inst, p)
		case tea.MouseButtonRight:
			m.openMenu(inst, p)
		}
	case tea.MouseActionMotion:
		if m.dragging == "" {
			return m, nil
		}
		if _, err := m.pets.Motion(m.dragging, p); err != nil {
			m.dragging = ""
		}
	case tea.MouseActionRelease:
		if m.dragging == "" {
			return m, nil
		}
		if err := m.pets.Release(m.dragging); err != nil {
			m.report(err)
		}
		m.dragging = ""
	}
	return m, nil
}

func (m *Model) pressPet(inst *pet.Instance, p model.Position) {
	now := m.now()
	if m.lastClick.petID == inst.ID() && now.Sub(m.lastClick.at) <= doubleClickWindow {
		m.lastClick = click{}
		m.dragging = ""
		m.toggleLock(inst.ID())
		return
	}
	m.lastClick = click{petID: inst.ID(), at: now}
	if err := m.pets.Press(inst.ID(), p); err != nil {
		m.report(err)
		return
	}
	if inst.Dragging() {
		m.dragging = inst.ID()
	}
}

// petAt returns the topmost visible pet under p.
func (m *Model) petAt(p model.Position) *pet.Instance {
	if !m.pets.Visible() {
		return nil
	}
	instances := m.pets.Instances()
	for i := len(instances) - 1; i >= 0; i-- {
		inst := instances[i]
		pos := inst.Position()
		size := inst.Surface().Size()
		if p.X >= pos.X && p.X < pos.X+size.Width && p.Y >= pos.Y && p.Y < pos.Y+size.Height {
			return inst
		}
	}
	return nil
}

func (m *Model) openMenu(inst *pet.Instance, p model.Position) {
	opacity, err := m.pets.Opacity(inst.ID())
	if err != nil {
		m.report(err)
		return
	}
	m.menu = newContextMenu(inst, opacity, len(m.pets.Instances()), p)
	m.menu.place(m.stageSize())
}

func (m *Model) runMenu() (tea.Model, tea.Cmd) {
	menu := m.menu
	m.menu = nil
	id := menu.petID
	switch menu.items[menu.selected].action {
	case menuToggleLock:
		m.toggleLock(id)
	case menuChangeCharacter:
		return m, m.openSelector(id)
	case menuOpacityDown:
		m.adjustPetOpacity(id, -opacityStep)
	case menuOpacityUp:
		m.adjustPetOpacity(id, opacityStep)
	case menuAddPet:
		if inst, ok := m.pets.Get(id); ok {
			m.spawn(inst.Character())
		}
	case menuRemovePet:
		if m.dragging == id {
			m.dragging = ""
		}
		if err := m.pets.Remove(id); err != nil {
			m.report(err)
			return m, nil
		}
		m.inform("Pet removed")
	case menuDeleteGIF:
		cmd := m.openSelector(id)
		m.inform("Select an imported GIF and press d to delete it")
		return m, cmd
	case menuQuit:
		return m.quit()
	}
	return m, nil
}

func (m *Model) clickTray(x int) (tea.Model, tea.Cmd) {
	_, buttons := m.trayButtons()
	for _, b := range buttons {
		if x >= b.start && x < b.end {
			quit, err := m.tray.Run(b.action)
			if quit {
				return m, tea.Quit
			}
			if err != nil {
				m.report(err)
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.menu = nil
	m.selector = nil
	// Quit logs write failures itself; the process exits either way.
	_ = m.tray.Quit()
	return m, tea.Quit
}

func (m *Model) toggleLock(id string) {
	locked, err := m.pets.ToggleLock(id)
	if err != nil {
		m.report(err)
		return
	}
	if m.dragging == id {
		m.dragging = ""
	}
	if locked {
		m.inform("Movement locked")
	} else {
		m.inform("Movement unlocked")
	}
}

func (m *Model) spawn(c model.Character) {
	if _, err := m.pets.Spawn(c); err != nil {
		m.report(err)
		return
	}
	m.inform(fmt.Sprintf("Added %s (%d/%d)", c.ID, len(m.pets.Instances()), model.MaxPets))
}

func (m *Model) adjustSharedOpacity(delta float64) {
	v := m.pets.SetOpacity(roundOpacity(m.pets.Settings().Opacity + delta))
	m.inform(fmt.Sprintf("Opacity %.0f%%", v*100))
}

func (m *Model) adjustPetOpacity(id string, delta float64) {
	cur, err := m.pets.Opacity(id)
	if err != nil {
		m.report(err)
		return
	}
	v, err := m.pets.SetPetOpacity(id, roundOpacity(cur+delta))
	if err != nil {
		m.report(err)
		return
	}
	m.inform(fmt.Sprintf("Opacity %.0f%%", v*100))
}

func roundOpacity(v float64) float64 {
	return math.Round(v*100) / 100
}

func (m *Model) characterOrDefault(id string) model.Character {
	c, err := m.catalog.Get(context.Background(), id)
	if err != nil {
		m.l.WithError(err).Warnf("Falling back to the default character.")
		return m.catalog.Default()
	}
	return c
}

func (m *Model) inform(text string) {
	m.notice = notice{text: text, at: m.now()}
}

func (m *Model) report(err error) {
	m.l.WithError(err).Warnf("Command failed.")
	m.notice = notice{text: err.Error(), isErr: true, at: m.now()}
}

func (m *Model) trayButtons() (string, []trayButton) {
	var b strings.Builder
	buttons := make([]trayButton, 0, 3)
	x := 0
	for i, e := range m.tray.Entries() {
		if i > 0 {
			b.WriteString("  ")
			x += 2
		}
		label := fmt.Sprintf("[%s] %s", e.Key, e.Label)
		w := runewidth.StringWidth(label)
		buttons = append(buttons, trayButton{action: e.Action, start: x, end: x + w})
		b.WriteString(label)
		x += w
	}
	return b.String(), buttons
}

func (m *Model) renderTrayBar() string {
	left, _ := m.trayButtons()
	settings := m.pets.Settings()
	status := fmt.Sprintf("pets %d/%d · opacity %.0f%%", len(m.pets.Instances()), model.MaxPets, settings.Opacity*100)
	if !m.pets.Visible() {
		status += " · hidden"
	}
	bar := trayStyle.Render(left) + "  " + mutedStyle.Render(status)
	if m.notice.text != "" {
		style := noticeStyle
		if m.notice.isErr {
			style = errorStyle
		}
		avail := m.width - lipgloss.Width(bar) - 2
		if avail > 3 {
			bar += "  " + style.Render(truncateLine(m.notice.text, avail))
		}
	}
	return padLine(lipgloss.NewStyle().MaxWidth(m.width).Render(bar), m.width)
}
