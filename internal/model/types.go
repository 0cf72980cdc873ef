// Package model defines shared data structures.
package model

import "math"

// Opacity bounds and pet limits.
const (
	MinOpacity     = 0.30
	MaxOpacity     = 1.00
	DefaultOpacity = 0.70
	MaxPets        = 3
)

// Position is a top-left screen coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p shifted by o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p minus o.
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// Size is a width/height pair.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether the size has no area.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Settings is the persisted user state.
type Settings struct {
	SelectedCharacter string   `json:"selectedCharacter"`
	Opacity           float64  `json:"opacity"`
	Position          Position `json:"position"`
}

// Origin tells where a character comes from.
type Origin string

// Character origins.
const (
	OriginBuiltin  Origin = "builtin"
	OriginImported Origin = "imported"
)

// Character is a selectable GIF asset. ID is the file name.
type Character struct {
	ID     string
	Path   string
	Origin Origin
}

// Builtin reports whether the character ships with the application.
func (c Character) Builtin() bool {
	return c.Origin == OriginBuiltin
}

// ClampOpacity restricts v to [MinOpacity, MaxOpacity]. NaN maps to DefaultOpacity.
func ClampOpacity(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultOpacity
	}
	if v < MinOpacity {
		return MinOpacity
	}
	if v > MaxOpacity {
		return MaxOpacity
	}
	return v
}

// ClampPosition keeps a box of the given size inside screen. A zero screen disables clamping.
func ClampPosition(p Position, size, screen Size) Position {
	if screen.Empty() {
		return p
	}
	maxX := screen.Width - size.Width
	maxY := screen.Height - size.Height
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	p.X = clampInt(p.X, 0, maxX)
	p.Y = clampInt(p.Y, 0, maxY)
	return p
}

// CenterPosition returns the top-left position that centers size on screen.
func CenterPosition(size, screen Size) Position {
	return ClampPosition(Position{
		X: (screen.Width - size.Width) / 2,
		Y: (screen.Height - size.Height) / 2,
	}, size, screen)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
