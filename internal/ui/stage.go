package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/anima/internal/model"
	"github.com/verte-zerg/anima/internal/pet"
	"github.com/verte-zerg/anima/internal/sprite"
)

// Assets opens the GIF data of a character.
type Assets interface {
	Open(c model.Character) (io.ReadCloser, error)
}

// fadeInDuration is how long a new pet takes to reach its opacity.
const fadeInDuration = 600 * time.Millisecond

// Stage is the terminal compositor. It creates pet surfaces and draws them
// in creation order, later surfaces on top.
type Stage struct {
	assets   Assets
	petWidth int
	fadeIn   time.Duration
	surfaces []*surface
}

// NewStage returns a Stage decoding characters petWidth cells wide.
func NewStage(assets Assets, petWidth int) *Stage {
	return &Stage{assets: assets, petWidth: petWidth, fadeIn: fadeInDuration}
}

// NewSurface implements pet.SurfaceFactory. New surfaces fade in from transparent.
func (s *Stage) NewSurface(c model.Character) (pet.Surface, error) {
	anim, err := s.load(c, s.petWidth)
	if err != nil {
		return nil, err
	}
	sf := &surface{
		stage:     s,
		anim:      anim,
		opacity:   model.DefaultOpacity,
		visible:   true,
		fadeLeft:  s.fadeIn,
		fadeTotal: s.fadeIn,
	}
	s.surfaces = append(s.surfaces, sf)
	return sf, nil
}

// preview returns a detached surface width cells wide. It is never drawn by the stage.
func (s *Stage) preview(c model.Character, width int) (*surface, error) {
	anim, err := s.load(c, width)
	if err != nil {
		return nil, err
	}
	return &surface{stage: s, anim: anim, opacity: model.MaxOpacity, visible: true}, nil
}

func (s *Stage) load(c model.Character, width int) (*sprite.Animation, error) {
	rc, err := s.assets.Open(c)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.ID, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			// Best-effort close for read-only asset.
			_ = cerr
		}
	}()
	anim, err := sprite.Decode(rc, width)
	if err != nil {
		return nil, &model.AssetDecodeError{Path: c.Path, Err: err}
	}
	return anim, nil
}

// Advance moves every visible surface forward by dt.
func (s *Stage) Advance(dt time.Duration) {
	for _, sf := range s.surfaces {
		if sf.visible {
			sf.advance(dt)
		}
	}
}

// Len returns the number of open surfaces.
func (s *Stage) Len() int {
	return len(s.surfaces)
}

// draw composites every visible surface onto c.
func (s *Stage) draw(c *canvas) {
	for _, sf := range s.surfaces {
		if sf.visible {
			sf.draw(c)
		}
	}
}

func (s *Stage) remove(target *surface) {
	for i, sf := range s.surfaces {
		if sf == target {
			s.surfaces = append(s.surfaces[:i], s.surfaces[i+1:]...)
			return
		}
	}
}

type surface struct {
	stage     *Stage
	anim      *sprite.Animation
	frame     int
	elapsed   time.Duration
	pos       model.Position
	opacity   float64
	visible   bool
	fadeLeft  time.Duration
	fadeTotal time.Duration
}

func (sf *surface) SetCharacter(c model.Character) error {
	anim, err := sf.stage.load(c, sf.stage.petWidth)
	if err != nil {
		return err
	}
	sf.anim = anim
	sf.frame = 0
	sf.elapsed = 0
	return nil
}

func (sf *surface) Move(pos model.Position) {
	sf.pos = pos
}

func (sf *surface) SetOpacity(opacity float64) {
	sf.opacity = model.ClampOpacity(opacity)
}

func (sf *surface) SetVisible(visible bool) {
	sf.visible = visible
}

func (sf *surface) Size() model.Size {
	return sf.anim.Size
}

func (sf *surface) Close() {
	sf.stage.remove(sf)
}

// effectiveOpacity is the target opacity scaled by the fade-in progress.
func (sf *surface) effectiveOpacity() float64 {
	if sf.fadeLeft <= 0 || sf.fadeTotal <= 0 {
		return sf.opacity
	}
	return sf.opacity * (1 - float64(sf.fadeLeft)/float64(sf.fadeTotal))
}

func (sf *surface) advance(dt time.Duration) {
	if sf.fadeLeft > 0 {
		sf.fadeLeft -= dt
	}
	n := len(sf.anim.Frames)
	if n < 2 {
		return
	}
	sf.elapsed += dt
	for {
		delay := sf.anim.Frames[sf.frame].Delay
		if delay <= 0 {
			delay = sprite.DefaultDelay
		}
		if sf.elapsed < delay {
			return
		}
		sf.elapsed -= delay
		sf.frame = (sf.frame + 1) % n
	}
}

func (sf *surface) draw(c *canvas) {
	frame := sf.anim.Frames[sf.frame]
	opacity := sf.effectiveOpacity()
	for y, row := range frame.Rows {
		for x, cell := range row {
			if cell.Transparent() {
				continue
			}
			c.set(sf.pos.X+x, sf.pos.Y+y, paint{ch: cell.Ch, fg: shade(cell.Color, opacity)})
		}
	}
}
