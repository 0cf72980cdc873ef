package pet

import (
	"time"

	"github.com/verte-zerg/anima/internal/model"
)

// Surface is the borderless on-screen window a pet renders into.
type Surface interface {
	SetCharacter(c model.Character) error
	Move(pos model.Position)
	SetOpacity(opacity float64)
	SetVisible(visible bool)
	Size() model.Size
	Close()
}

// SurfaceFactory creates surfaces showing a character.
type SurfaceFactory interface {
	NewSurface(c model.Character) (Surface, error)
}

// Instance is one active pet.
type Instance struct {
	id         string
	character  model.Character
	locked     bool
	position   model.Position
	dragging   bool
	dragOffset model.Position
	idle       bool
	opacity    *float64

	lastInteraction time.Time
	surface         Surface
}

// ID returns the pet id.
func (i *Instance) ID() string { return i.id }

// Character returns the assigned character.
func (i *Instance) Character() model.Character { return i.character }

// Locked reports whether drag input is ignored.
func (i *Instance) Locked() bool { return i.locked }

// Position returns the top-left position of the surface.
func (i *Instance) Position() model.Position { return i.position }

// Dragging reports whether a drag is in progress.
func (i *Instance) Dragging() bool { return i.dragging }

// Idle reports whether the idle animation is showing.
func (i *Instance) Idle() bool { return i.idle }

// Surface returns the surface owned by the pet.
func (i *Instance) Surface() Surface { return i.surface }

// OpacityOverride returns the per-pet opacity, if one is set.
func (i *Instance) OpacityOverride() (float64, bool) {
	if i.opacity == nil {
		return 0, false
	}
	return *i.opacity, true
}
