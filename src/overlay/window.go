package overlay

import (
	"errors"

	"screen-capture-overlay/src/display"
)

var ErrWindowDestroyed = errors.New("window destroyed")

// Content is what a window hosts: the rendering surface, attachable and
// detachable so it can outlive a window.
type Content interface {
	ID() string
	SetBounds(width, height int)
}

// Window is the overlay window. Implementations ignore every call after the
// window has been destroyed.
type Window interface {
	SetBounds(d display.Display)
	Show()
	Hide()
	Destroy()
	IsDestroyed() bool

	Focus()
	Blur()
	Unmaximize()

	SetAlwaysOnTop(on bool)
	IsAlwaysOnTop() bool
	SetSkipTaskbar(skip bool)
	SetFullScreen(on bool)
	SetKiosk(on bool)
	SetVisibleOnAllWorkspaces(on bool)

	Attach(c Content)
	Detach(c Content)

	// OnShow runs fn after each Show. OnClosed runs fn once, when the window is gone.
	OnShow(fn func())
	OnClosed(fn func())
}

// WindowOptions are the construction flags of an overlay window.
type WindowOptions struct {
	Title       string
	Display     display.Display
	Kind        string // platform window type hint ("toolbar", "panel" or empty)
	Borderless  bool
	Transparent bool
	AlwaysOnTop bool
	SkipTaskbar bool
	Resizable   bool
	Movable     bool
	Closable    bool
	Kiosk       bool
	FullScreen  bool
}

// WindowFactory creates hidden overlay windows.
type WindowFactory interface {
	NewWindow(opts WindowOptions) (Window, error)
}
