package overlay

import (
	"runtime"

	"screen-capture-overlay/src/display"
)

// Platform isolates per-OS window quirks: which flags a new window gets, how
// the taskbar exclusion is kept alive and what must be cleared before a
// window can be hidden or destroyed reliably.
type Platform interface {
	Name() string
	Options(d display.Display) WindowOptions
	// ReassertHidden re-applies the taskbar exclusion. Called at every lifecycle transition.
	ReassertHidden(w Window)
	// BeforeShow runs once the content is attached, before the window is positioned.
	BeforeShow(w Window)
	// AfterShow runs from the window's show notification.
	AfterShow(w Window)
	// PrepareForTeardown leaves fullscreen/kiosk modes ahead of hide or destroy.
	PrepareForTeardown(w Window)
}

// CurrentPlatform returns the strategy for the running OS.
func CurrentPlatform() Platform {
	return PlatformFor(runtime.GOOS)
}

// PlatformFor returns the strategy for goos. Unknown systems get the Linux behaviour.
func PlatformFor(goos string) Platform {
	switch goos {
	case "windows":
		return windowsPlatform{}
	case "darwin":
		return unixPlatform{name: "darwin", kind: "panel"}
	default:
		return unixPlatform{name: goos}
	}
}

func baseOptions(d display.Display) WindowOptions {
	return WindowOptions{
		Title:       "screenshots",
		Display:     d,
		Borderless:  true,
		Transparent: true,
		AlwaysOnTop: true,
		SkipTaskbar: true,
	}
}

// windowsPlatform never uses kiosk mode; it makes the taskbar button reappear.
type windowsPlatform struct{}

func (windowsPlatform) Name() string { return "windows" }

func (windowsPlatform) Options(d display.Display) WindowOptions {
	opts := baseOptions(d)
	opts.Kind = "toolbar"
	return opts
}

func (windowsPlatform) ReassertHidden(w Window) { w.SetSkipTaskbar(true) }

func (windowsPlatform) BeforeShow(Window) {}

func (windowsPlatform) AfterShow(w Window) {
	w.Focus()
	w.SetSkipTaskbar(true)
}

func (windowsPlatform) PrepareForTeardown(w Window) {
	w.SetSkipTaskbar(true)
	w.SetFullScreen(false)
	w.SetKiosk(false)
	w.Blur()
	w.Unmaximize()
}

// unixPlatform covers macOS and Linux: kiosk on show, visible on every workspace.
type unixPlatform struct {
	name string
	kind string
}

func (p unixPlatform) Name() string { return p.name }

func (p unixPlatform) Options(d display.Display) WindowOptions {
	opts := baseOptions(d)
	opts.Kind = p.kind
	opts.Kiosk = true
	return opts
}

func (unixPlatform) ReassertHidden(w Window) { w.SetSkipTaskbar(true) }

func (unixPlatform) BeforeShow(w Window) { w.SetVisibleOnAllWorkspaces(true) }

func (unixPlatform) AfterShow(w Window) {
	w.Focus()
	w.SetKiosk(true)
	w.SetSkipTaskbar(true)
}

func (unixPlatform) PrepareForTeardown(w Window) {
	w.SetSkipTaskbar(true)
	w.SetFullScreen(false)
	w.SetKiosk(false)
	w.Blur()
	w.Unmaximize()
}
