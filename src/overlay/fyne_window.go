package overlay

import (
	"image/color"
	"log"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"

	"screen-capture-overlay/src/display"
)

// CanvasContent is content that renders inside a fyne window.
type CanvasContent interface {
	Content
	CanvasObject() fyne.CanvasObject
}

// KeyContent is content that wants the window's key events.
type KeyContent interface {
	TypedKey(ev *fyne.KeyEvent)
}

// FyneFactory builds overlay windows on a running fyne app.
type FyneFactory struct {
	App fyne.App
}

func (f FyneFactory) NewWindow(opts WindowOptions) (Window, error) {
	fw := &fyneWindow{opts: opts, topmost: opts.AlwaysOnTop, skipTaskbar: opts.SkipTaskbar}

	fyne.DoAndWait(func() {
		var w fyne.Window
		if drv, ok := f.App.Driver().(desktop.Driver); ok && opts.Borderless {
			w = drv.CreateSplashWindow()
			w.SetTitle(opts.Title)
		} else {
			w = f.App.NewWindow(opts.Title)
		}
		w.SetPadded(false)
		w.SetFixedSize(!opts.Resizable)
		w.Resize(fyne.NewSize(float32(opts.Display.Width), float32(opts.Display.Height)))
		w.SetContent(fw.placeholder())
		if !opts.Closable {
			w.SetCloseIntercept(func() {
				log.Printf("Overlay: ignoring close request")
			})
		}
		w.SetOnClosed(fw.handleClosed)
		fw.w = w
	})

	return fw, nil
}

type fyneWindow struct {
	w    fyne.Window
	opts WindowOptions

	destroyed atomic.Bool

	mu          sync.Mutex
	topmost     bool
	skipTaskbar bool
	kiosk       bool
	content     Content
	onShow      func()
	onClosed    func()
}

func (fw *fyneWindow) placeholder() fyne.CanvasObject {
	if fw.opts.Transparent {
		return canvas.NewRectangle(color.Transparent)
	}
	return canvas.NewRectangle(color.Black)
}

// do runs fn on the UI thread unless the window is gone.
func (fw *fyneWindow) do(fn func(w fyne.Window)) {
	if fw.destroyed.Load() {
		return
	}
	fyne.DoAndWait(func() { fn(fw.w) })
}

func (fw *fyneWindow) SetBounds(d display.Display) {
	fw.do(func(w fyne.Window) {
		w.Resize(fyne.NewSize(float32(d.Width), float32(d.Height)))
		setNativeBounds(w, d)
	})
}

func (fw *fyneWindow) Show() {
	fw.do(func(w fyne.Window) {
		w.Show()
		fw.applyNativeFlags(w)
	})
	fw.mu.Lock()
	fn := fw.onShow
	fw.mu.Unlock()
	if fn != nil && !fw.destroyed.Load() {
		fn()
	}
}

func (fw *fyneWindow) Hide() {
	fw.do(func(w fyne.Window) { w.Hide() })
}

func (fw *fyneWindow) Destroy() {
	if fw.destroyed.Load() {
		return
	}
	fyne.DoAndWait(func() { fw.w.Close() })
	fw.handleClosed()
}

func (fw *fyneWindow) handleClosed() {
	if fw.destroyed.Swap(true) {
		return
	}
	fw.mu.Lock()
	fn := fw.onClosed
	fw.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (fw *fyneWindow) IsDestroyed() bool { return fw.destroyed.Load() }

func (fw *fyneWindow) Focus() {
	fw.do(func(w fyne.Window) { w.RequestFocus() })
}

// Blur has no fyne equivalent; focus moves away when another window is raised.
func (fw *fyneWindow) Blur() {}

func (fw *fyneWindow) Unmaximize() {}

func (fw *fyneWindow) SetAlwaysOnTop(on bool) {
	fw.mu.Lock()
	fw.topmost = on
	fw.mu.Unlock()
	fw.do(func(w fyne.Window) { setNativeTopmost(w, on) })
}

func (fw *fyneWindow) IsAlwaysOnTop() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.topmost
}

func (fw *fyneWindow) SetSkipTaskbar(skip bool) {
	fw.mu.Lock()
	fw.skipTaskbar = skip
	fw.mu.Unlock()
	fw.do(func(w fyne.Window) { setNativeSkipTaskbar(w, skip) })
}

func (fw *fyneWindow) SetFullScreen(on bool) {
	fw.do(func(w fyne.Window) { w.SetFullScreen(on) })
}

// SetKiosk maps to fullscreen without a way out other than the overlay's own keys.
func (fw *fyneWindow) SetKiosk(on bool) {
	fw.mu.Lock()
	changed := fw.kiosk != on
	fw.kiosk = on
	fw.mu.Unlock()
	if changed {
		fw.do(func(w fyne.Window) { w.SetFullScreen(on) })
	}
}

func (fw *fyneWindow) SetVisibleOnAllWorkspaces(bool) {}

func (fw *fyneWindow) Attach(c Content) {
	fw.mu.Lock()
	fw.content = c
	fw.mu.Unlock()

	fw.do(func(w fyne.Window) {
		if cc, ok := c.(CanvasContent); ok {
			w.SetContent(cc.CanvasObject())
		}
		if kc, ok := c.(KeyContent); ok {
			w.Canvas().SetOnTypedKey(kc.TypedKey)
		}
	})
}

func (fw *fyneWindow) Detach(c Content) {
	fw.mu.Lock()
	if fw.content != c {
		fw.mu.Unlock()
		return
	}
	fw.content = nil
	fw.mu.Unlock()

	fw.do(func(w fyne.Window) {
		w.Canvas().SetOnTypedKey(nil)
		w.SetContent(fw.placeholder())
	})
}

func (fw *fyneWindow) OnShow(fn func()) {
	fw.mu.Lock()
	fw.onShow = fn
	fw.mu.Unlock()
}

func (fw *fyneWindow) OnClosed(fn func()) {
	fw.mu.Lock()
	fw.onClosed = fn
	fw.mu.Unlock()
}

func (fw *fyneWindow) applyNativeFlags(w fyne.Window) {
	fw.mu.Lock()
	topmost, skip := fw.topmost, fw.skipTaskbar
	fw.mu.Unlock()
	setNativeSkipTaskbar(w, skip)
	setNativeTopmost(w, topmost)
}

// FyneWindow exposes the underlying fyne window of an overlay window built by FyneFactory.
func FyneWindow(w Window) (fyne.Window, bool) {
	fw, ok := w.(*fyneWindow)
	if !ok || fw.destroyed.Load() {
		return nil, false
	}
	return fw.w, true
}
