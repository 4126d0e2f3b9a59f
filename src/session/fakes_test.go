package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"screen-capture-overlay/src/capture"
	"screen-capture-overlay/src/display"
	"screen-capture-overlay/src/ipc"
	"screen-capture-overlay/src/messages"
	"screen-capture-overlay/src/overlay"
	"screen-capture-overlay/src/registry"
	"screen-capture-overlay/src/save"
	"screen-capture-overlay/src/surface"
)

var testDisplay = display.Display{ID: 3, X: 0, Y: 0, Width: 64, Height: 48, ScaleFactor: 1}

// fakeSurface answers ready and reset like a rendering surface would, from its own goroutine.
type fakeSurface struct {
	id        string
	bus       *ipc.Bus
	autoReady bool
	autoAck   bool

	mu        sync.Mutex
	sent      []messages.Message
	loaded    string
	destroyed bool
}

func (f *fakeSurface) ID() string { return f.id }
func (f *fakeSurface) Document() string { return "fake://document" }
func (f *fakeSurface) SetBounds(int, int) {}

func (f *fakeSurface) Load(url string) error {
	f.mu.Lock()
	f.loaded = url
	f.mu.Unlock()
	if f.autoReady {
		go f.emit(messages.Ready{})
	}
	return nil
}

func (f *fakeSurface) Send(msg messages.Message) error {
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return surface.ErrDestroyed
	}
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	if _, ok := msg.(messages.Reset); ok && f.autoAck {
		go f.emit(messages.ResetAck{})
	}
	return nil
}

func (f *fakeSurface) emit(msg messages.Message) {
	f.bus.Emit(messages.MessageEnvelope{From: f.id, Message: msg})
}

func (f *fakeSurface) Destroy() {
	f.mu.Lock()
	f.destroyed = true
	f.mu.Unlock()
}

func (f *fakeSurface) IsDestroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

func (f *fakeSurface) count(channel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.Type() == channel {
			n++
		}
	}
	return n
}

type fakeSurfaces struct {
	bus       *ipc.Bus
	autoReady bool
	autoAck   bool
	n         int
}

func (f *fakeSurfaces) NewSurface() (surface.Surface, error) {
	f.n++
	return &fakeSurface{
		id:        "fake-" + string(rune('a'+f.n-1)),
		bus:       f.bus,
		autoReady: f.autoReady,
		autoAck:   f.autoAck,
	}, nil
}

type fakeWindow struct {
	mu        sync.Mutex
	shown     bool
	destroyed bool
	topmost   bool
	onClosed  func()
}

func (w *fakeWindow) SetBounds(display.Display) {}
func (w *fakeWindow) Show() { w.set(func() { w.shown = true }) }
func (w *fakeWindow) Hide() { w.set(func() { w.shown = false }) }
func (w *fakeWindow) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	w.shown = false
	fn := w.onClosed
	w.mu.Unlock()
	if fn != nil {
		fn()
	}
}
func (w *fakeWindow) IsDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}
func (w *fakeWindow) Focus() {}
func (w *fakeWindow) Blur() {}
func (w *fakeWindow) Unmaximize() {}
func (w *fakeWindow) SetAlwaysOnTop(on bool) { w.set(func() { w.topmost = on }) }
func (w *fakeWindow) IsAlwaysOnTop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.topmost
}
func (w *fakeWindow) SetSkipTaskbar(bool) {}
func (w *fakeWindow) SetFullScreen(bool) {}
func (w *fakeWindow) SetKiosk(bool) {}
func (w *fakeWindow) SetVisibleOnAllWorkspaces(bool) {}
func (w *fakeWindow) Attach(overlay.Content) {}
func (w *fakeWindow) Detach(overlay.Content) {}
func (w *fakeWindow) OnShow(func()) {}
func (w *fakeWindow) OnClosed(fn func()) { w.set(func() { w.onClosed = fn }) }

func (w *fakeWindow) set(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn()
}

func (w *fakeWindow) isShown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shown
}

type fakeWindows struct {
	mu      sync.Mutex
	windows []*fakeWindow
}

func (f *fakeWindows) NewWindow(overlay.WindowOptions) (overlay.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWindow{}
	f.windows = append(f.windows, w)
	return w, nil
}

func (f *fakeWindows) last() *fakeWindow {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.windows) == 0 {
		return nil
	}
	return f.windows[len(f.windows)-1]
}

type fakeResolver struct{}

func (fakeResolver) Resolve() (display.Display, error) { return testDisplay, nil }

type fakeCapturer struct {
	err error
}

func (f fakeCapturer) Capture(ctx context.Context, d display.Display) (capture.Result, error) {
	if f.err != nil {
		return capture.Result{}, f.err
	}
	uri, err := capture.DataURI(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	return capture.Result{Image: uri, Display: d}, err
}

// fakeDialog returns path (or err) and counts how often it was shown.
type fakeDialog struct {
	mu     sync.Mutex
	shown  int
	names  []string
	path   string
	err    error
	before func(w overlay.Window)
}

func (f *fakeDialog) ShowSave(ctx context.Context, parent overlay.Window, name string) (string, error) {
	f.mu.Lock()
	f.shown++
	f.names = append(f.names, name)
	before := f.before
	f.mu.Unlock()
	if before != nil {
		before(parent)
	}
	return f.path, f.err
}

func (f *fakeDialog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shown
}

type fakeClipboard struct {
	mu     sync.Mutex
	writes int
}

func (f *fakeClipboard) WriteImage([]byte) error {
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
	return nil
}

func (f *fakeClipboard) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

type harness struct {
	bus      *ipc.Bus
	reg      *registry.Registry
	surfaces *fakeSurfaces
	windows  *fakeWindows
	dialog   *fakeDialog
	clip     *fakeClipboard
}

func newHarness() *harness {
	bus := ipc.NewBus()
	bus.SetMessageLogging(false)
	return &harness{
		bus:      bus,
		reg:      registry.New(save.NewCoordinator(10 * time.Millisecond)),
		surfaces: &fakeSurfaces{bus: bus, autoReady: true, autoAck: true},
		windows:  &fakeWindows{},
		dialog:   &fakeDialog{},
		clip:     &fakeClipboard{},
	}
}

func (h *harness) options() Options {
	return Options{
		Policy:       overlay.Recreate,
		Registry:     h.reg,
		Bus:          h.bus,
		Resolver:     fakeResolver{},
		Capturer:     fakeCapturer{},
		Windows:      h.windows,
		Platform:     overlay.PlatformFor("windows"),
		Surfaces:     h.surfaces,
		Dialog:       h.dialog,
		Clipboard:    h.clip,
		ResetTimeout: 50 * time.Millisecond,
		Now:          func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 42*int(time.Millisecond), time.Local) },
	}
}

func (h *harness) newSession(t *testing.T, mutate func(*Options)) *Session {
	t.Helper()
	opts := h.options()
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Destroy)
	return s
}

func (h *harness) emit(msg messages.Message) {
	h.bus.Emit(messages.MessageEnvelope{From: "renderer", Message: msg})
}

func surfaceOf(s *Session) *fakeSurface { return s.surf.(*fakeSurface) }

func startCapture(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var errBoom = errors.New("boom")
