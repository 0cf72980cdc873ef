// Package sprite decodes GIF animations into colored character cells.
package sprite

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"time"

	"golang.org/x/image/draw"

	"github.com/verte-zerg/anima/internal/model"
)

// DefaultDelay is used for frames that declare no delay.
const DefaultDelay = 100 * time.Millisecond

var errNoFrames = errors.New("gif has no frames")

// Cell is one terminal cell of a frame. Ch == 0 means transparent.
type Cell struct {
	Ch    rune
	Color color.RGBA
}

// Transparent reports whether nothing is drawn in the cell.
func (c Cell) Transparent() bool {
	return c.Ch == 0
}

// Frame is a fully composed animation frame.
type Frame struct {
	Rows  [][]Cell
	Delay time.Duration
}

// Animation is a decoded, scaled GIF.
type Animation struct {
	Frames []Frame
	Size   model.Size
}

// Info describes a GIF without converting it.
type Info struct {
	Frames int
	Width  int
	Height int
}

// Probe validates that r holds a decodable GIF with at least one frame.
func Probe(r io.Reader) (Info, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return Info{}, err
	}
	if len(g.Image) == 0 {
		return Info{}, errNoFrames
	}
	w, h := canvasSize(g)
	return Info{Frames: len(g.Image), Width: w, Height: h}, nil
}

// CellSize returns the cell grid used for a w x h image rendered width cells wide.
// Terminal cells are about twice as tall as they are wide.
func CellSize(w, h, width int) model.Size {
	if width < 1 {
		width = 1
	}
	rows := 1
	if w > 0 {
		rows = (h*width + w) / (2 * w)
	}
	if rows < 1 {
		rows = 1
	}
	return model.Size{Width: width, Height: rows}
}

// Decode reads every frame of a GIF, composes it honoring disposal methods and
// converts it to a grid width cells wide.
func Decode(r io.Reader, width int) (*Animation, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, errNoFrames
	}
	w, h := canvasSize(g)
	size := CellSize(w, h, width)

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	anim := &Animation{Size: size, Frames: make([]Frame, 0, len(g.Image))}
	for i, frame := range g.Image {
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		anim.Frames = append(anim.Frames, Frame{
			Rows:  toCells(canvas, size),
			Delay: frameDelay(g, i),
		})

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return anim, nil
}

func canvasSize(g *gif.GIF) (int, int) {
	w, h := g.Config.Width, g.Config.Height
	if w > 0 && h > 0 {
		return w, h
	}
	var bounds image.Rectangle
	for _, frame := range g.Image {
		bounds = bounds.Union(frame.Bounds())
	}
	return bounds.Max.X, bounds.Max.Y
}

func frameDelay(g *gif.GIF, i int) time.Duration {
	if i >= len(g.Delay) || g.Delay[i] <= 1 {
		return DefaultDelay
	}
	return time.Duration(g.Delay[i]) * 10 * time.Millisecond
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func toCells(src *image.RGBA, size model.Size) [][]Cell {
	scaled := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)

	rows := make([][]Cell, size.Height)
	for y := 0; y < size.Height; y++ {
		row := make([]Cell, size.Width)
		for x := 0; x < size.Width; x++ {
			row[x] = pixelToCell(scaled.RGBAAt(x, y))
		}
		rows[y] = row
	}
	return rows
}
