package overlay

import (
	"fmt"
	"log"
	"sync"

	"screen-capture-overlay/src/display"
)

// Host owns at most one overlay window and the content attached to it. The
// window is created lazily on the first Show and, depending on the policy, hidden
// or destroyed by End.
type Host struct {
	factory  WindowFactory
	policy   Policy
	platform Platform

	op sync.Mutex // serializes Show/End/Destroy

	mu      sync.Mutex
	win     Window
	content Content
	created func(Window)
	closed  func(Window)
}

// NewHost creates a host. A nil platform selects the running OS.
func NewHost(factory WindowFactory, policy Policy, platform Platform) *Host {
	if platform == nil {
		platform = CurrentPlatform()
	}
	return &Host{factory: factory, policy: policy, platform: platform}
}

// OnWindowCreated sets the callback fired for each new window.
func (h *Host) OnWindowCreated(fn func(Window)) {
	h.mu.Lock()
	h.created = fn
	h.mu.Unlock()
}

// OnWindowClosed sets the callback fired once per window when it goes away.
func (h *Host) OnWindowClosed(fn func(Window)) {
	h.mu.Lock()
	h.closed = fn
	h.mu.Unlock()
}

// Policy returns the end-of-capture policy.
func (h *Host) Policy() Policy { return h.policy }

// Window returns the live window, or nil if there is none.
func (h *Host) Window() Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.liveLocked()
}

// Alive reports whether a live window exists.
func (h *Host) Alive() bool { return h.Window() != nil }

func (h *Host) liveLocked() Window {
	if h.win == nil {
		return nil
	}
	if h.win.IsDestroyed() {
		h.win = nil
		return nil
	}
	return h.win
}

// Show reuses the live window or creates one, attaches c and covers d with it.
func (h *Host) Show(d display.Display, c Content) error {
	h.op.Lock()
	defer h.op.Unlock()

	w := h.Window()
	if w == nil {
		var err error
		w, err = h.create(d)
		if err != nil {
			return err
		}
	}

	w.Attach(c)
	h.mu.Lock()
	h.content = c
	h.mu.Unlock()
	h.platform.ReassertHidden(w)

	h.platform.BeforeShow(w)
	w.Blur()
	w.SetBounds(d)
	c.SetBounds(d.Width, d.Height)
	w.SetAlwaysOnTop(true)
	w.SetFullScreen(true)

	h.platform.ReassertHidden(w)
	w.Show()
	h.platform.ReassertHidden(w)

	log.Printf("Overlay: window shown on %s (%s, %s)", d, h.platform.Name(), h.policy)
	return nil
}

func (h *Host) create(d display.Display) (Window, error) {
	w, err := h.factory.NewWindow(h.platform.Options(d))
	if err != nil {
		return nil, fmt.Errorf("failed to create overlay window: %w", err)
	}
	h.platform.ReassertHidden(w)

	w.OnShow(func() { h.platform.AfterShow(w) })
	w.OnClosed(func() { h.handleClosed(w) })

	h.mu.Lock()
	h.win = w
	created := h.created
	h.mu.Unlock()

	log.Printf("Overlay: window created")
	if created != nil {
		created(w)
	}
	return w, nil
}

// handleClosed drops the reference to w and fires the closed callback, once.
func (h *Host) handleClosed(w Window) {
	h.mu.Lock()
	if h.win != w {
		h.mu.Unlock()
		return
	}
	h.win = nil
	closed := h.closed
	h.mu.Unlock()

	log.Printf("Overlay: window closed")
	if closed != nil {
		closed(w)
	}
}

// End takes the window out of its display modes, detaches the content and then
// hides or destroys the window per policy. No-op without a live window.
func (h *Host) End() {
	h.op.Lock()
	defer h.op.Unlock()

	w := h.Window()
	if w == nil {
		return
	}

	h.platform.PrepareForTeardown(w)
	h.detach(w)
	h.platform.ReassertHidden(w)

	if h.policy.Strategy().Finish(w) {
		h.handleClosed(w)
	}
}

// Destroy releases the window regardless of policy. Idempotent.
func (h *Host) Destroy() {
	h.op.Lock()
	defer h.op.Unlock()

	w := h.Window()
	if w == nil {
		return
	}
	h.detach(w)
	h.platform.ReassertHidden(w)
	w.Destroy()
	h.handleClosed(w)
}

func (h *Host) detach(w Window) {
	h.mu.Lock()
	c := h.content
	h.content = nil
	h.mu.Unlock()
	if c != nil {
		w.Detach(c)
	}
}
