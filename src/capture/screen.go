package capture

import (
	"context"
	"fmt"
	"image"
	"log"
	"strconv"

	"github.com/disintegration/imaging"
	kbscreenshot "github.com/kbinani/screenshot"
	vovascreenshot "github.com/vova616/screenshot"
)

// ScreenMonitors locates monitors through the OS display list.
type ScreenMonitors struct{}

type screenMonitor struct {
	index int
}

func (ScreenMonitors) MonitorFromPoint(x, y int) (Monitor, error) {
	n := kbscreenshot.NumActiveDisplays()
	p := image.Pt(x, y)
	for i := 0; i < n; i++ {
		if p.In(kbscreenshot.GetDisplayBounds(i)) {
			return screenMonitor{index: i}, nil
		}
	}
	return nil, fmt.Errorf("%w: (%d,%d) across %d displays", ErrMonitorNotFound, x, y, n)
}

func (m screenMonitor) CaptureImage() (image.Image, error) {
	img, err := kbscreenshot.CaptureDisplay(m.index)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", m.index, err)
	}
	return img, nil
}

// ScreenSources enumerates every active display as a source. A setup with
// at most one display is grabbed through the single-screen backend instead.
type ScreenSources struct {
	NumDisplays    func() int
	CaptureDisplay func(i int) (image.Image, error)
	CaptureScreen  func() (image.Image, error)
}

// NewScreenSources returns a lister backed by the OS display list.
func NewScreenSources() ScreenSources {
	return ScreenSources{
		NumDisplays: kbscreenshot.NumActiveDisplays,
		CaptureDisplay: func(i int) (image.Image, error) {
			return kbscreenshot.CaptureDisplay(i)
		},
		CaptureScreen: func() (image.Image, error) {
			return vovascreenshot.CaptureScreen()
		},
	}
}

func (s ScreenSources) ListSources(ctx context.Context, thumb image.Point) ([]Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := s.NumDisplays()
	if n <= 1 {
		img, err := s.CaptureScreen()
		if err != nil {
			return nil, fmt.Errorf("failed to capture screen: %w", err)
		}
		return []Source{{ID: "screen:0:0", DisplayID: "0", Thumbnail: Thumbnail(img, thumb)}}, nil
	}

	sources := make([]Source, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := s.CaptureDisplay(i)
		if err != nil {
			log.Printf("CaptureProvider: skipping display %d: %v", i, err)
			continue
		}
		id := strconv.Itoa(i)
		sources = append(sources, Source{
			ID:        "screen:" + id + ":0",
			DisplayID: id,
			Thumbnail: Thumbnail(img, thumb),
		})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("failed to capture any of %d displays", n)
	}
	return sources, nil
}

// Thumbnail scales img to size, leaving it untouched when size is empty or already matches.
func Thumbnail(img image.Image, size image.Point) image.Image {
	if size.X <= 0 || size.Y <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() == size.X && b.Dy() == size.Y {
		return img
	}
	return imaging.Resize(img, size.X, size.Y, imaging.Lanczos)
}
