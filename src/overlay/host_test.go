package overlay

import (
	"errors"
	"strings"
	"testing"

	"screen-capture-overlay/src/display"
)

// fakeWindow records calls in order so tests can check flag sequencing.
type fakeWindow struct {
	calls     []string
	destroyed bool
	topmost   bool
	content   Content
	onShow    func()
	onClosed  func()
}

func (w *fakeWindow) rec(s string) { w.calls = append(w.calls, s) }

func (w *fakeWindow) SetBounds(display.Display) { w.rec("bounds") }
func (w *fakeWindow) Show() {
	w.rec("show")
	if w.onShow != nil {
		w.onShow()
	}
}
func (w *fakeWindow) Hide() { w.rec("hide") }
func (w *fakeWindow) Destroy() {
	if w.destroyed {
		return
	}
	w.rec("destroy")
	w.destroyed = true
	if w.onClosed != nil {
		w.onClosed()
	}
}
func (w *fakeWindow) IsDestroyed() bool { return w.destroyed }
func (w *fakeWindow) Focus() { w.rec("focus") }
func (w *fakeWindow) Blur() { w.rec("blur") }
func (w *fakeWindow) Unmaximize() { w.rec("unmaximize") }
func (w *fakeWindow) SetAlwaysOnTop(on bool) {
	w.topmost = on
	w.rec(flag("top", on))
}
func (w *fakeWindow) IsAlwaysOnTop() bool { return w.topmost }
func (w *fakeWindow) SetSkipTaskbar(skip bool) { w.rec(flag("skip", skip)) }
func (w *fakeWindow) SetFullScreen(on bool) { w.rec(flag("full", on)) }
func (w *fakeWindow) SetKiosk(on bool) { w.rec(flag("kiosk", on)) }
func (w *fakeWindow) SetVisibleOnAllWorkspaces(on bool) { w.rec(flag("workspaces", on)) }
func (w *fakeWindow) Attach(c Content) {
	w.content = c
	w.rec("attach")
}
func (w *fakeWindow) Detach(c Content) {
	if w.content == c {
		w.content = nil
	}
	w.rec("detach")
}
func (w *fakeWindow) OnShow(fn func()) { w.onShow = fn }
func (w *fakeWindow) OnClosed(fn func()) { w.onClosed = fn }

func (w *fakeWindow) reset() { w.calls = nil }

func (w *fakeWindow) index(call string) int {
	for i, c := range w.calls {
		if c == call {
			return i
		}
	}
	return -1
}

func flag(name string, on bool) string {
	if on {
		return name + "+"
	}
	return name + "-"
}

type fakeFactory struct {
	windows []*fakeWindow
	err     error
}

func (f *fakeFactory) NewWindow(WindowOptions) (Window, error) {
	if f.err != nil {
		return nil, f.err
	}
	w := &fakeWindow{}
	f.windows = append(f.windows, w)
	return w, nil
}

type fakeContent struct {
	width, height int
}

func (c *fakeContent) ID() string { return "content" }
func (c *fakeContent) SetBounds(width, height int) {
	c.width, c.height = width, height
}

var screen = display.Display{ID: 1, Width: 1920, Height: 1080, ScaleFactor: 1}

func TestShowCreatesLazilyAndReuses(t *testing.T) {
	f := &fakeFactory{}
	h := NewHost(f, Reuse, PlatformFor("windows"))
	created := 0
	h.OnWindowCreated(func(Window) { created++ })

	if h.Alive() {
		t.Fatal("no window must exist before the first Show")
	}

	c := &fakeContent{}
	if err := h.Show(screen, c); err != nil {
		t.Fatalf("Show: %v", err)
	}
	h.End()
	if err := h.Show(screen, c); err != nil {
		t.Fatalf("Show: %v", err)
	}

	if len(f.windows) != 1 || created != 1 {
		t.Fatalf("reuse policy must keep one window, got %d windows, %d created", len(f.windows), created)
	}
	if c.width != 1920 || c.height != 1080 {
		t.Errorf("content not sized to display: %dx%d", c.width, c.height)
	}
}

func TestShowFlagOrdering(t *testing.T) {
	f := &fakeFactory{}
	h := NewHost(f, Recreate, PlatformFor("windows"))
	if err := h.Show(screen, &fakeContent{}); err != nil {
		t.Fatalf("Show: %v", err)
	}
	w := f.windows[0]

	got := strings.Join(w.calls, ",")
	want := "skip+,attach,skip+,blur,bounds,top+,full+,skip+,show,focus,skip+,skip+"
	if got != want {
		t.Errorf("unexpected call order\n got: %s\nwant: %s", got, want)
	}
}

func TestEndRecreateDestroysOnce(t *testing.T) {
	f := &fakeFactory{}
	h := NewHost(f, Recreate, PlatformFor("linux"))
	closed := 0
	h.OnWindowClosed(func(Window) { closed++ })

	c := &fakeContent{}
	if err := h.Show(screen, c); err != nil {
		t.Fatalf("Show: %v", err)
	}
	w := f.windows[0]
	w.reset()

	h.End()
	h.End()

	if closed != 1 {
		t.Errorf("expected one windowClosed, got %d", closed)
	}
	if h.Alive() {
		t.Error("window reference must be dropped")
	}
	full, kiosk, destroy := w.index("full-"), w.index("kiosk-"), w.index("destroy")
	if full < 0 || kiosk < 0 || destroy < 0 || full > destroy || kiosk > destroy {
		t.Errorf("fullscreen and kiosk must be cleared before destroy: %v", w.calls)
	}
	if w.index("detach") > destroy {
		t.Errorf("content must be detached before destroy: %v", w.calls)
	}

	if err := h.Show(screen, c); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(f.windows) != 2 {
		t.Errorf("recreate policy must build a new window, got %d", len(f.windows))
	}
}

func TestEndReuseHides(t *testing.T) {
	f := &fakeFactory{}
	h := NewHost(f, Reuse, PlatformFor("darwin"))
	if err := h.Show(screen, &fakeContent{}); err != nil {
		t.Fatalf("Show: %v", err)
	}
	w := f.windows[0]
	w.reset()

	h.End()
	if w.index("hide") < 0 || w.destroyed {
		t.Errorf("reuse policy must hide: %v", w.calls)
	}
	if !h.Alive() {
		t.Error("hidden window must stay alive")
	}
	if last := w.calls[len(w.calls)-2]; last != "skip+" {
		t.Errorf("taskbar exclusion must be reasserted right before hide, got %q", last)
	}
}

func TestExternalCloseDropsReference(t *testing.T) {
	f := &fakeFactory{}
	h := NewHost(f, Reuse, PlatformFor("windows"))
	closed := 0
	h.OnWindowClosed(func(Window) { closed++ })
	if err := h.Show(screen, &fakeContent{}); err != nil {
		t.Fatalf("Show: %v", err)
	}

	f.windows[0].Destroy() // user or OS closed it
	h.End()
	h.Destroy()

	if closed != 1 {
		t.Errorf("expected one windowClosed, got %d", closed)
	}
	if h.Window() != nil {
		t.Error("window must be gone")
	}
}

func TestDestroyWithoutWindow(t *testing.T) {
	h := NewHost(&fakeFactory{}, Reuse, nil)
	h.End()
	h.Destroy()
}

func TestShowFactoryError(t *testing.T) {
	boom := errors.New("no display server")
	h := NewHost(&fakeFactory{err: boom}, Recreate, PlatformFor("windows"))
	if err := h.Show(screen, &fakeContent{}); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", Recreate, false},
		{"recreate", Recreate, false},
		{"REUSE", Reuse, false},
		{" single ", Reuse, false},
		{"sometimes", Recreate, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestPlatformTeardown(t *testing.T) {
	for _, goos := range []string{"windows", "darwin", "linux"} {
		t.Run(goos, func(t *testing.T) {
			w := &fakeWindow{}
			p := PlatformFor(goos)
			p.PrepareForTeardown(w)
			if w.index("full-") < 0 || w.index("kiosk-") < 0 || w.calls[0] != "skip+" {
				t.Errorf("%s teardown: %v", goos, w.calls)
			}
		})
	}
}

func TestPlatformOptions(t *testing.T) {
	if o := PlatformFor("windows").Options(screen); o.Kiosk || o.Kind != "toolbar" {
		t.Errorf("windows must not use kiosk: %+v", o)
	}
	if o := PlatformFor("darwin").Options(screen); !o.Kiosk || o.Kind != "panel" {
		t.Errorf("darwin options: %+v", o)
	}
	if o := PlatformFor("linux").Options(screen); !o.SkipTaskbar || !o.AlwaysOnTop || o.Kind != "" {
		t.Errorf("linux options: %+v", o)
	}
}
