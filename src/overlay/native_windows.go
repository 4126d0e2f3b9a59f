//go:build windows

package overlay

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"github.com/lxn/win"

	"screen-capture-overlay/src/display"
)

func withHWND(w fyne.Window, fn func(hwnd win.HWND)) {
	nw, ok := w.(driver.NativeWindow)
	if !ok {
		return
	}
	nw.RunNative(func(ctx any) {
		if wc, ok := ctx.(driver.WindowsWindowContext); ok && wc.HWND != 0 {
			fn(win.HWND(wc.HWND))
		}
	})
}

func setNativeTopmost(w fyne.Window, on bool) {
	withHWND(w, func(hwnd win.HWND) {
		after := win.HWND_NOTOPMOST
		if on {
			after = win.HWND_TOPMOST
		}
		win.SetWindowPos(hwnd, after, 0, 0, 0, 0, win.SWP_NOMOVE|win.SWP_NOSIZE|win.SWP_NOACTIVATE)
	})
}

// setNativeSkipTaskbar toggles WS_EX_TOOLWINDOW, which keeps the window off the taskbar and Alt+Tab.
func setNativeSkipTaskbar(w fyne.Window, skip bool) {
	withHWND(w, func(hwnd win.HWND) {
		style := win.GetWindowLong(hwnd, win.GWL_EXSTYLE)
		if skip {
			style = (style | win.WS_EX_TOOLWINDOW) &^ win.WS_EX_APPWINDOW
		} else {
			style = (style &^ win.WS_EX_TOOLWINDOW) | win.WS_EX_APPWINDOW
		}
		win.SetWindowLong(hwnd, win.GWL_EXSTYLE, style)
		win.SetWindowPos(hwnd, 0, 0, 0, 0, 0,
			win.SWP_NOMOVE|win.SWP_NOSIZE|win.SWP_NOZORDER|win.SWP_NOACTIVATE|win.SWP_FRAMECHANGED)
	})
}

func setNativeBounds(w fyne.Window, d display.Display) {
	px := d.PixelSize()
	withHWND(w, func(hwnd win.HWND) {
		win.SetWindowPos(hwnd, 0, int32(d.X), int32(d.Y), int32(px.X), int32(px.Y),
			win.SWP_NOZORDER|win.SWP_NOACTIVATE)
	})
}
