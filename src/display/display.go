package display

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"

	"github.com/kbinani/screenshot"
)

var ErrNoDisplays = errors.New("no active displays found")

// Display is an immutable snapshot of a physical screen at capture time.
// X/Y is the pixel origin in virtual-screen coordinates as the OS reports it.
// Width/Height are logical (DIP) units; ScaleFactor converts them to pixels.
type Display struct {
	ID          int     `json:"id"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ScaleFactor float64 `json:"scaleFactor"`
}

// Bounds returns the display rectangle in virtual-screen pixels.
func (d Display) Bounds() image.Rectangle {
	px := d.PixelSize()
	return image.Rect(d.X, d.Y, d.X+px.X, d.Y+px.Y)
}

// Center returns the midpoint of the display in virtual-screen pixels.
func (d Display) Center() image.Point {
	px := d.PixelSize()
	return image.Pt(d.X+px.X/2, d.Y+px.Y/2)
}

// PixelSize returns the size of the display in physical pixels.
func (d Display) PixelSize() image.Point {
	scale := d.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	return image.Pt(
		int(math.Round(float64(d.Width)*scale)),
		int(math.Round(float64(d.Height)*scale)),
	)
}

func (d Display) String() string {
	return fmt.Sprintf("display#%d %dx%d@(%d,%d) x%.2f", d.ID, d.Width, d.Height, d.X, d.Y, d.ScaleFactor)
}

// Resolver picks the display a capture should target.
type Resolver interface {
	Resolve() (Display, error)
}

// PointerFunc reports the last known pointer position, if any.
type PointerFunc func() (image.Point, bool)

// ScreenResolver resolves the display under the pointer, falling back to the primary display.
type ScreenResolver struct {
	Pointer PointerFunc
}

// NewScreenResolver returns a resolver backed by the OS display list.
func NewScreenResolver(pointer PointerFunc) *ScreenResolver {
	return &ScreenResolver{Pointer: pointer}
}

func (r *ScreenResolver) Resolve() (Display, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return Display{}, ErrNoDisplays
	}

	bounds := make([]image.Rectangle, n)
	for i := 0; i < n; i++ {
		bounds[i] = screenshot.GetDisplayBounds(i)
	}

	var p image.Point
	var ok bool
	if r.Pointer != nil {
		p, ok = r.Pointer()
	}
	idx := Pick(bounds, p, ok)
	scale := scaleFactor()
	b := bounds[idx]

	d := Display{
		ID:          idx,
		X:           b.Min.X,
		Y:           b.Min.Y,
		Width:       int(math.Round(float64(b.Dx()) / scale)),
		Height:      int(math.Round(float64(b.Dy()) / scale)),
		ScaleFactor: scale,
	}
	log.Printf("DisplayResolver: resolved %s (pointer known=%v)", d, ok)
	return d, nil
}

// Pick returns the index of the rectangle containing p, or 0 when p is unknown or off-screen.
func Pick(bounds []image.Rectangle, p image.Point, known bool) int {
	if !known {
		return 0
	}
	for i, b := range bounds {
		if p.In(b) {
			return i
		}
	}
	return 0
}
