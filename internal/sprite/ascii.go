package sprite

import "image/color"

// Character ramp from sparse to dense. Index 0 is reserved for transparent cells.
const asciiRamp = " .:-=+*#%@"

// Pixels with less coverage than this are not drawn.
const alphaThreshold = 0x80

func pixelToCell(c color.RGBA) Cell {
	if c.A < alphaThreshold {
		return Cell{}
	}
	// RGBA is premultiplied; recover the straight color.
	r := uint8(uint32(c.R) * 0xff / uint32(c.A))
	g := uint8(uint32(c.G) * 0xff / uint32(c.A))
	b := uint8(uint32(c.B) * 0xff / uint32(c.A))
	return Cell{
		Ch:    rampChar(r, g, b),
		Color: color.RGBA{R: r, G: g, B: b, A: 0xff},
	}
}

func rampChar(r, g, b uint8) rune {
	gray := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	idx := 1 + int(gray/255*float64(len(asciiRamp)-2))
	if idx >= len(asciiRamp) {
		idx = len(asciiRamp) - 1
	}
	return rune(asciiRamp[idx])
}
