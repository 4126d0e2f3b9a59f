package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"strconv"
	"strings"

	"screen-capture-overlay/src/display"
)

var (
	ErrCaptureUnavailable = errors.New("capture unavailable")
	ErrSourceNotFound     = errors.New("no screen source matches display")
	ErrMonitorNotFound    = errors.New("no monitor at point")
)

// Result is a captured screen image ready to hand to a surface.
type Result struct {
	Image   string // data:image/png;base64,...
	Display display.Display
}

// Capturer produces a Result for a display.
type Capturer interface {
	Capture(ctx context.Context, d display.Display) (Result, error)
}

// Monitor is a screen handle able to grab its own contents at full resolution.
type Monitor interface {
	CaptureImage() (image.Image, error)
}

// MonitorLocator resolves the monitor containing a point.
type MonitorLocator interface {
	MonitorFromPoint(x, y int) (Monitor, error)
}

// Source is one enumerated screen with a pre-rendered thumbnail.
type Source struct {
	ID        string // screen:<display>:<n>
	DisplayID string
	Thumbnail image.Image
}

// SourceLister enumerates every screen at the given thumbnail size.
type SourceLister interface {
	ListSources(ctx context.Context, thumb image.Point) ([]Source, error)
}

// Provider captures through the monitor path and falls back to source enumeration.
type Provider struct {
	Monitors MonitorLocator
	Sources  SourceLister
}

// NewProvider wires the OS-backed primary and fallback paths.
func NewProvider() *Provider {
	return &Provider{
		Monitors: ScreenMonitors{},
		Sources:  NewScreenSources(),
	}
}

// Capture returns the contents of d. Any primary-path failure triggers one fallback attempt.
func (p *Provider) Capture(ctx context.Context, d display.Display) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	img, err := p.capturePrimary(d)
	if err != nil {
		log.Printf("CaptureProvider: primary path failed for %s: %v, falling back", d, err)
		img, err = p.captureFallback(ctx, d)
		if err != nil {
			return Result{}, err
		}
	}

	uri, err := DataURI(img)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	return Result{Image: uri, Display: d}, nil
}

func (p *Provider) capturePrimary(d display.Display) (image.Image, error) {
	if p.Monitors == nil {
		return nil, errors.New("no monitor locator")
	}
	c := d.Center()
	m, err := p.Monitors.MonitorFromPoint(c.X, c.Y)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMonitorNotFound
	}
	return m.CaptureImage()
}

func (p *Provider) captureFallback(ctx context.Context, d display.Display) (image.Image, error) {
	if p.Sources == nil {
		return nil, ErrCaptureUnavailable
	}
	sources, err := p.Sources.ListSources(ctx, d.PixelSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	if len(sources) == 0 {
		return nil, ErrCaptureUnavailable
	}

	src, ok := MatchSource(sources, d.ID)
	if !ok {
		return nil, fmt.Errorf("%w: display %d among %d sources", ErrSourceNotFound, d.ID, len(sources))
	}
	if src.Thumbnail == nil {
		return nil, fmt.Errorf("%w: source %s has no image", ErrCaptureUnavailable, src.ID)
	}
	return src.Thumbnail, nil
}

// MatchSource picks the source for displayID. A lone source always matches
// since its display id is unreliable on single-screen setups; listers only
// return one source when there is one screen.
func MatchSource(sources []Source, displayID int) (Source, bool) {
	if len(sources) == 1 {
		return sources[0], true
	}
	id := strconv.Itoa(displayID)
	prefix := "screen:" + id + ":"
	for _, s := range sources {
		if s.DisplayID == id || strings.HasPrefix(s.ID, prefix) {
			return s, true
		}
	}
	return Source{}, false
}

// DataURI encodes img as a base64 PNG data URI.
func DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI reverses DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		return nil, fmt.Errorf("not a PNG data URI")
	}
	return base64.StdEncoding.DecodeString(uri[len(prefix):])
}
