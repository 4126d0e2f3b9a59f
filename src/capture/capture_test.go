package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"screen-capture-overlay/src/display"
)

type fakeMonitors struct {
	img image.Image
	err error
}

func (f fakeMonitors) MonitorFromPoint(x, y int) (Monitor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fakeMonitor{img: f.img}, nil
}

type fakeMonitor struct{ img image.Image }

func (m fakeMonitor) CaptureImage() (image.Image, error) { return m.img, nil }

type fakeSources struct {
	sources []Source
	err     error
	thumb   image.Point
}

func (f *fakeSources) ListSources(ctx context.Context, thumb image.Point) ([]Source, error) {
	f.thumb = thumb
	return f.sources, f.err
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var target = display.Display{ID: 7, X: 0, Y: 0, Width: 100, Height: 50, ScaleFactor: 2}

func TestPrimaryPath(t *testing.T) {
	sources := &fakeSources{}
	p := &Provider{Monitors: fakeMonitors{img: solid(4, 4, color.White)}, Sources: sources}

	res, err := p.Capture(context.Background(), target)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Display != target {
		t.Errorf("expected display %v, got %v", target, res.Display)
	}
	if _, err := DecodeDataURI(res.Image); err != nil {
		t.Errorf("result is not a PNG data URI: %v", err)
	}
	if sources.thumb != (image.Point{}) {
		t.Error("fallback must not run when the primary path succeeds")
	}
}

func TestFallbackSingleSourceIgnoresID(t *testing.T) {
	sources := &fakeSources{sources: []Source{{ID: "screen:99:0", DisplayID: "99", Thumbnail: solid(2, 2, color.Black)}}}
	p := &Provider{Monitors: fakeMonitors{err: ErrMonitorNotFound}, Sources: sources}

	if _, err := p.Capture(context.Background(), target); err != nil {
		t.Fatalf("single source must be used regardless of id: %v", err)
	}
	if sources.thumb != image.Pt(200, 100) {
		t.Errorf("expected thumbnail size 200x100, got %v", sources.thumb)
	}
}

func TestFallbackNoMatchAmongMany(t *testing.T) {
	sources := &fakeSources{sources: []Source{
		{ID: "screen:1:0", DisplayID: "1", Thumbnail: solid(2, 2, color.Black)},
		{ID: "screen:2:0", DisplayID: "2", Thumbnail: solid(2, 2, color.Black)},
	}}
	p := &Provider{Monitors: fakeMonitors{err: errors.New("boom")}, Sources: sources}

	_, err := p.Capture(context.Background(), target)
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestFallbackFailure(t *testing.T) {
	p := &Provider{
		Monitors: fakeMonitors{err: errors.New("boom")},
		Sources:  &fakeSources{err: errors.New("enumeration failed")},
	}
	_, err := p.Capture(context.Background(), target)
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("expected ErrCaptureUnavailable, got %v", err)
	}
}

func TestMatchSource(t *testing.T) {
	sources := []Source{
		{ID: "screen:1:0", DisplayID: ""},
		{ID: "screen:3:0", DisplayID: "7"},
		{ID: "screen:7:0", DisplayID: ""},
	}
	tests := []struct {
		name    string
		display int
		wantID  string
		wantOK  bool
	}{
		{"by display id", 7, "screen:3:0", true},
		{"by namespaced id", 1, "screen:1:0", true},
		{"no match", 5, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchSource(sources, tt.display)
			if ok != tt.wantOK || got.ID != tt.wantID {
				t.Errorf("MatchSource(%d) = %q,%v want %q,%v", tt.display, got.ID, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestThumbnail(t *testing.T) {
	img := solid(10, 10, color.White)
	if got := Thumbnail(img, image.Point{}); got != img {
		t.Error("empty size must return the input")
	}
	if got := Thumbnail(img, image.Pt(4, 3)).Bounds().Size(); got != image.Pt(4, 3) {
		t.Errorf("expected 4x3, got %v", got)
	}
}

func TestScreenMonitorsHeadless(t *testing.T) {
	_, err := ScreenMonitors{}.MonitorFromPoint(-100000, -100000)
	if err == nil {
		t.Fatal("expected no monitor far off-screen")
	}
	t.Logf("off-screen lookup: %v", err)
}

func twoDisplays(failing int) ScreenSources {
	colors := []color.Color{color.White, color.Black}
	return ScreenSources{
		NumDisplays: func() int { return 2 },
		CaptureDisplay: func(i int) (image.Image, error) {
			if i == failing {
				return nil, errors.New("display gone")
			}
			return solid(4, 2, colors[i]), nil
		},
		CaptureScreen: func() (image.Image, error) {
			return nil, errors.New("single-screen grab must not run with two displays")
		},
	}
}

func TestScreenSourcesEnumeratesEveryDisplay(t *testing.T) {
	sources, err := twoDisplays(-1).ListSources(context.Background(), image.Pt(8, 4))
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	for i, s := range sources {
		wantID := []string{"screen:0:0", "screen:1:0"}[i]
		if s.ID != wantID || s.DisplayID != wantID[7:8] {
			t.Errorf("source %d: got id=%s display=%s", i, s.ID, s.DisplayID)
		}
		if s.Thumbnail.Bounds().Size() != image.Pt(8, 4) {
			t.Errorf("source %d: thumbnail size %v", i, s.Thumbnail.Bounds().Size())
		}
	}
}

func TestFallbackPicksSecondDisplay(t *testing.T) {
	p := &Provider{Monitors: fakeMonitors{err: ErrMonitorNotFound}, Sources: twoDisplays(-1)}
	d := display.Display{ID: 1, Width: 4, Height: 2, ScaleFactor: 1}

	res, err := p.Capture(context.Background(), d)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	data, err := DecodeDataURI(res.Image)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r != 0 {
		t.Errorf("expected display 1 (black), got red=%d", r)
	}
}

func TestFallbackMissingDisplayAmongTwo(t *testing.T) {
	tests := []struct {
		name    string
		sources ScreenSources
		id      int
	}{
		{"unknown id", twoDisplays(-1), 5},
		{"target display failed", twoDisplays(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Provider{Monitors: fakeMonitors{err: ErrMonitorNotFound}, Sources: tt.sources}
			d := display.Display{ID: tt.id, Width: 4, Height: 2, ScaleFactor: 1}
			if _, err := p.Capture(context.Background(), d); !errors.Is(err, ErrSourceNotFound) {
				t.Errorf("expected ErrSourceNotFound, got %v", err)
			}
		})
	}
}

func TestScreenSourcesSingleDisplay(t *testing.T) {
	grabbed := 0
	s := ScreenSources{
		NumDisplays: func() int { return 1 },
		CaptureDisplay: func(int) (image.Image, error) {
			return nil, errors.New("per-display capture must not run with one display")
		},
		CaptureScreen: func() (image.Image, error) {
			grabbed++
			return solid(2, 2, color.White), nil
		},
	}
	sources, err := s.ListSources(context.Background(), image.Point{})
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if grabbed != 1 || len(sources) != 1 || sources[0].ID != "screen:0:0" {
		t.Errorf("unexpected single-display result: grabbed=%d sources=%+v", grabbed, sources)
	}
}

func TestNewProviderListsEveryScreen(t *testing.T) {
	p := NewProvider()
	if _, ok := p.Sources.(ScreenSources); !ok {
		t.Fatalf("expected ScreenSources fallback, got %T", p.Sources)
	}
}
