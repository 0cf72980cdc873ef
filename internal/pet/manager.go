// Package pet owns the active pets and drives their lifecycle.
package pet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/anima/internal/model"
)

// Horizontal gap between a spawned pet and its neighbour, in cells.
const spawnGap = 2

// SettingsSaver persists settings.
type SettingsSaver interface {
	Save(settings model.Settings) error
}

// Options configures a Manager.
type Options struct {
	Settings      model.Settings
	Saver         SettingsSaver
	Factory       SurfaceFactory
	Logger        logrus.FieldLogger
	Screen        model.Size
	IdleCharacter *model.Character
	IdleTimeout   time.Duration
	Now           func() time.Time
}

// Manager owns up to model.MaxPets instances and the settings value.
// It is not safe for concurrent use; every command runs on the UI loop.
type Manager struct {
	settings model.Settings
	saver    SettingsSaver
	factory  SurfaceFactory
	l        logrus.FieldLogger
	screen   model.Size

	idleCharacter *model.Character
	idleTimeout   time.Duration
	now           func() time.Time

	instances []*Instance
	hidden    bool
	shutdown  bool
}

// New returns a Manager with no active pets.
func New(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	opts.Settings.Opacity = model.ClampOpacity(opts.Settings.Opacity)
	return &Manager{
		settings:      opts.Settings,
		saver:         opts.Saver,
		factory:       opts.Factory,
		l:             opts.Logger,
		screen:        opts.Screen,
		idleCharacter: opts.IdleCharacter,
		idleTimeout:   opts.IdleTimeout,
		now:           opts.Now,
	}
}

// Start creates the primary pet at the persisted position. When c cannot be
// shown the fallback is tried; if no surface can be created ErrNoSurface is returned.
func (m *Manager) Start(c, fallback model.Character) (*Instance, error) {
	if m.shutdown {
		return nil, model.ErrShutdown
	}
	if len(m.instances) > 0 {
		return m.instances[0], nil
	}
	inst, err := m.create(c, m.settings.Position)
	if err != nil && fallback.ID != "" && fallback.ID != c.ID {
		m.l.WithError(err).Warnf("Unable to show character [%s], falling back to [%s].", c.ID, fallback.ID)
		inst, err = m.create(fallback, m.settings.Position)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrNoSurface, err)
	}
	if m.syncPrimary() {
		m.persist()
	}
	m.l.WithField("pet", inst.id).Infof("Primary pet started with [%s].", inst.character.ID)
	return inst, nil
}

// Spawn adds a pet showing c next to the primary pet.
func (m *Manager) Spawn(c model.Character) (*Instance, error) {
	if m.shutdown {
		return nil, model.ErrShutdown
	}
	if len(m.instances) >= model.MaxPets {
		return nil, fmt.Errorf("%w: %d pets already active", model.ErrLimitExceeded, len(m.instances))
	}
	pos := m.settings.Position
	if primary := m.Primary(); primary != nil {
		offset := len(m.instances) * (primary.surface.Size().Width + spawnGap)
		pos = primary.position.Add(model.Position{X: offset})
	}
	inst, err := m.create(c, pos)
	if err != nil {
		return nil, fmt.Errorf("failed to create pet: %w", err)
	}
	if len(m.instances) == 1 && m.syncPrimary() {
		m.persist()
	}
	m.l.WithField("pet", inst.id).Infof("Spawned pet with [%s].", c.ID)
	return inst, nil
}

// Remove destroys a pet. Removing the primary promotes the next pet.
func (m *Manager) Remove(id string) error {
	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	idx := m.indexOf(id)
	inst.surface.Close()
	m.instances = append(m.instances[:idx], m.instances[idx+1:]...)
	m.l.WithField("pet", id).Infof("Removed pet.")

	if idx == 0 && len(m.instances) > 0 {
		promoted := m.instances[0]
		promoted.opacity = nil
		promoted.surface.SetOpacity(m.settings.Opacity)
		m.syncPrimary()
		m.persist()
		m.l.WithField("pet", promoted.id).Infof("Promoted pet to primary.")
	}
	return nil
}

// SetOpacity clamps v, applies it to every pet without an override and persists it.
func (m *Manager) SetOpacity(v float64) float64 {
	v = model.ClampOpacity(v)
	m.settings.Opacity = v
	for _, inst := range m.instances {
		if inst.opacity == nil {
			inst.surface.SetOpacity(v)
		}
	}
	m.persist()
	return v
}

// SetPetOpacity sets a per-pet opacity. For the primary pet it sets the shared opacity.
func (m *Manager) SetPetOpacity(id string, v float64) (float64, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	if inst == m.instances[0] {
		return m.SetOpacity(v), nil
	}
	v = model.ClampOpacity(v)
	inst.opacity = &v
	inst.surface.SetOpacity(v)
	return v, nil
}

// Opacity returns the effective opacity of a pet.
func (m *Manager) Opacity(id string) (float64, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	if v, ok := inst.OpacityOverride(); ok {
		return v, nil
	}
	return m.settings.Opacity, nil
}

// ToggleLock flips the lock. Locking ends a drag in progress.
func (m *Manager) ToggleLock(id string) (bool, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return false, err
	}
	inst.locked = !inst.locked
	if inst.locked && inst.dragging {
		m.endDrag(inst)
	}
	return inst.locked, nil
}

// SwitchCharacter shows c on the existing surface of a pet.
func (m *Manager) SwitchCharacter(id string, c model.Character) error {
	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	if err := inst.surface.SetCharacter(c); err != nil {
		// The surface may have partially switched; restore what the pet owns.
		if rerr := inst.surface.SetCharacter(m.shownCharacter(inst)); rerr != nil {
			m.l.WithError(rerr).Warnf("Unable to restore character [%s].", inst.character.ID)
		}
		return fmt.Errorf("failed to show %s: %w", c.ID, err)
	}
	inst.character = c
	inst.idle = false
	inst.lastInteraction = m.now()
	m.reclamp(inst)
	if inst == m.instances[0] {
		m.syncPrimary()
		m.persist()
	}
	return nil
}

// Press starts a drag at cursor unless the pet is locked.
func (m *Manager) Press(id string, cursor model.Position) error {
	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	m.wake(inst)
	if inst.locked {
		return nil
	}
	inst.dragging = true
	inst.dragOffset = cursor.Sub(inst.position)
	return nil
}

// Motion moves a dragged pet so the grab point stays under cursor.
// It reports whether the pet moved.
func (m *Manager) Motion(id string, cursor model.Position) (bool, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return false, err
	}
	if !inst.dragging || inst.locked {
		return false, nil
	}
	pos := model.ClampPosition(cursor.Sub(inst.dragOffset), inst.surface.Size(), m.screen)
	if pos == inst.position {
		return false, nil
	}
	inst.position = pos
	inst.surface.Move(pos)
	return true, nil
}

// Release ends a drag. The primary pet's position is persisted.
func (m *Manager) Release(id string) error {
	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	if inst.dragging {
		m.endDrag(inst)
	}
	return nil
}

// Show makes every pet visible.
func (m *Manager) Show() {
	m.setVisible(true)
}

// Hide hides every pet without destroying it.
func (m *Manager) Hide() {
	m.setVisible(false)
}

// Visible reports whether pets are shown.
func (m *Manager) Visible() bool {
	return !m.hidden
}

// SetScreen updates the screen size and keeps every pet on it.
func (m *Manager) SetScreen(screen model.Size) {
	m.screen = screen
	for _, inst := range m.instances {
		m.reclamp(inst)
	}
}

// Tick switches pets without recent interaction to the idle character.
func (m *Manager) Tick(now time.Time) {
	if m.idleCharacter == nil || m.idleTimeout <= 0 {
		return
	}
	for _, inst := range m.instances {
		if inst.idle || inst.dragging || now.Sub(inst.lastInteraction) < m.idleTimeout {
			continue
		}
		if err := inst.surface.SetCharacter(*m.idleCharacter); err != nil {
			m.l.WithError(err).Warnf("Unable to show idle character [%s].", m.idleCharacter.ID)
			inst.lastInteraction = now
			continue
		}
		inst.idle = true
		m.reclamp(inst)
	}
}

// InUse reports whether a character is shown by any pet or configured as the idle character.
func (m *Manager) InUse(id string) bool {
	if m.idleCharacter != nil && m.idleCharacter.ID == id {
		return true
	}
	for _, inst := range m.instances {
		if inst.character.ID == id {
			return true
		}
	}
	return false
}

// Shutdown persists the settings and closes every surface.
func (m *Manager) Shutdown() error {
	if m.shutdown {
		return nil
	}
	m.syncPrimary()
	err := m.save()
	if err != nil {
		m.l.WithError(err).Warnf("Unable to persist settings on shutdown.")
	}
	for _, inst := range m.instances {
		inst.surface.Close()
	}
	m.instances = nil
	m.shutdown = true
	m.l.Infof("Pets shut down.")
	return err
}

// Settings returns the current settings value.
func (m *Manager) Settings() model.Settings {
	return m.settings
}

// Instances returns the active pets in spawn order.
func (m *Manager) Instances() []*Instance {
	out := make([]*Instance, len(m.instances))
	copy(out, m.instances)
	return out
}

// Primary returns the primary pet or nil.
func (m *Manager) Primary() *Instance {
	if len(m.instances) == 0 {
		return nil
	}
	return m.instances[0]
}

// Get returns a pet by id.
func (m *Manager) Get(id string) (*Instance, bool) {
	idx := m.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return m.instances[idx], true
}

func (m *Manager) create(c model.Character, pos model.Position) (*Instance, error) {
	s, err := m.factory.NewSurface(c)
	if err != nil {
		return nil, err
	}
	inst := &Instance{
		id:              uuid.NewString(),
		character:       c,
		position:        model.ClampPosition(pos, s.Size(), m.screen),
		lastInteraction: m.now(),
		surface:         s,
	}
	s.Move(inst.position)
	s.SetOpacity(m.settings.Opacity)
	s.SetVisible(!m.hidden)
	m.instances = append(m.instances, inst)
	return inst, nil
}

func (m *Manager) endDrag(inst *Instance) {
	inst.dragging = false
	if inst == m.instances[0] {
		m.syncPrimary()
		m.persist()
	}
}

// wake records an interaction and leaves the idle animation.
func (m *Manager) wake(inst *Instance) {
	inst.lastInteraction = m.now()
	if !inst.idle {
		return
	}
	inst.idle = false
	if err := inst.surface.SetCharacter(inst.character); err != nil {
		m.l.WithError(err).Warnf("Unable to restore character [%s] after idle.", inst.character.ID)
	}
	m.reclamp(inst)
}

func (m *Manager) shownCharacter(inst *Instance) model.Character {
	if inst.idle && m.idleCharacter != nil {
		return *m.idleCharacter
	}
	return inst.character
}

func (m *Manager) reclamp(inst *Instance) {
	pos := model.ClampPosition(inst.position, inst.surface.Size(), m.screen)
	if pos != inst.position {
		inst.position = pos
		inst.surface.Move(pos)
	}
}

func (m *Manager) setVisible(visible bool) {
	m.hidden = !visible
	for _, inst := range m.instances {
		inst.surface.SetVisible(visible)
	}
}

// syncPrimary copies the primary pet's character and position into the
// settings and reports whether anything changed.
func (m *Manager) syncPrimary() bool {
	primary := m.Primary()
	if primary == nil {
		return false
	}
	before := m.settings
	m.settings.SelectedCharacter = primary.character.ID
	m.settings.Position = primary.position
	return before != m.settings
}

func (m *Manager) persist() {
	if err := m.save(); err != nil {
		m.l.WithError(err).Warnf("Unable to persist settings.")
	}
}

func (m *Manager) save() error {
	if m.saver == nil {
		return nil
	}
	return m.saver.Save(m.settings)
}

func (m *Manager) lookup(id string) (*Instance, error) {
	if m.shutdown {
		return nil, model.ErrShutdown
	}
	idx := m.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownPet, id)
	}
	return m.instances[idx], nil
}

func (m *Manager) indexOf(id string) int {
	for i, inst := range m.instances {
		if inst.id == id {
			return i
		}
	}
	return -1
}
