package sprite

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"strings"
	"testing"
	"time"
)

var testPalette = color.Palette{
	color.RGBA{},
	color.RGBA{R: 0xff, A: 0xff},
	color.RGBA{G: 0xff, A: 0xff},
}

// encodeGIF builds an 8x8 GIF whose frames fill the given rectangles with palette index 1 or 2.
func encodeGIF(t *testing.T, frames []image.Rectangle, disposal []byte, delays []int) []byte {
	t.Helper()
	g := &gif.GIF{Config: image.Config{Width: 8, Height: 8, ColorModel: testPalette}}
	for i, rect := range frames {
		img := image.NewPaletted(rect, testPalette)
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				img.SetColorIndex(x, y, uint8(1+i%2))
			}
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, delays[i])
		g.Disposal = append(g.Disposal, disposal[i])
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func TestProbe(t *testing.T) {
	data := encodeGIF(t, []image.Rectangle{image.Rect(0, 0, 8, 8), image.Rect(0, 0, 4, 4)}, []byte{0, 0}, []int{5, 5})
	info, err := Probe(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.Frames != 2 || info.Width != 8 || info.Height != 8 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestProbeRejectsNonGIF(t *testing.T) {
	if _, err := Probe(strings.NewReader("\x89PNG\r\n\x1a\nnot really")); err == nil {
		t.Fatalf("expected error for non-gif input")
	}
}

func TestDecodeSizesAndDelays(t *testing.T) {
	data := encodeGIF(t, []image.Rectangle{image.Rect(0, 0, 8, 8), image.Rect(0, 0, 8, 8)}, []byte{0, 0}, []int{0, 25})
	anim, err := Decode(bytes.NewReader(data), 8)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if anim.Size.Width != 8 || anim.Size.Height != 4 {
		t.Fatalf("unexpected cell size: %+v", anim.Size)
	}
	if len(anim.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(anim.Frames))
	}
	if anim.Frames[0].Delay != DefaultDelay {
		t.Fatalf("expected default delay, got %v", anim.Frames[0].Delay)
	}
	if anim.Frames[1].Delay != 250*time.Millisecond {
		t.Fatalf("expected 250ms delay, got %v", anim.Frames[1].Delay)
	}
	if len(anim.Frames[0].Rows) != 4 || len(anim.Frames[0].Rows[0]) != 8 {
		t.Fatalf("unexpected grid shape")
	}
	cell := anim.Frames[0].Rows[1][3]
	if cell.Transparent() || cell.Color.R != 0xff {
		t.Fatalf("expected opaque red cell, got %+v", cell)
	}
}

func TestDecodeDisposalBackgroundClearsArea(t *testing.T) {
	// Frame 0 covers the left half and is disposed to background; frame 1 covers the right half.
	data := encodeGIF(t,
		[]image.Rectangle{image.Rect(0, 0, 4, 8), image.Rect(4, 0, 8, 8)},
		[]byte{gif.DisposalBackground, gif.DisposalNone},
		[]int{10, 10},
	)
	anim, err := Decode(bytes.NewReader(data), 8)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	first := anim.Frames[0].Rows[2]
	if first[0].Transparent() || !first[7].Transparent() {
		t.Fatalf("unexpected first frame row: %+v", first)
	}
	second := anim.Frames[1].Rows[2]
	if !second[0].Transparent() {
		t.Fatalf("expected disposed area to be transparent")
	}
	if second[7].Transparent() || second[7].Color.G != 0xff {
		t.Fatalf("expected green right half, got %+v", second[7])
	}
}

func TestDecodeKeepsPreviousFrameWithoutDisposal(t *testing.T) {
	data := encodeGIF(t,
		[]image.Rectangle{image.Rect(0, 0, 4, 8), image.Rect(4, 0, 8, 8)},
		[]byte{gif.DisposalNone, gif.DisposalNone},
		[]int{10, 10},
	)
	anim, err := Decode(bytes.NewReader(data), 8)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	row := anim.Frames[1].Rows[2]
	if row[0].Transparent() || row[7].Transparent() {
		t.Fatalf("expected both halves drawn, got %+v", row)
	}
}

func TestRampCharNeverBlankForVisiblePixels(t *testing.T) {
	if got := rampChar(0, 0, 0); got == ' ' {
		t.Fatalf("black pixel rendered as blank")
	}
	if got := rampChar(0xff, 0xff, 0xff); got != '@' {
		t.Fatalf("expected densest char for white, got %q", got)
	}
}

func TestCellSize(t *testing.T) {
	if got := CellSize(24, 24, 24); got.Width != 24 || got.Height != 12 {
		t.Fatalf("unexpected size: %+v", got)
	}
	if got := CellSize(100, 1, 10); got.Height != 1 {
		t.Fatalf("expected at least one row, got %+v", got)
	}
}
