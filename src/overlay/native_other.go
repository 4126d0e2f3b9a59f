//go:build !windows

package overlay

import (
	"fyne.io/fyne/v2"

	"screen-capture-overlay/src/display"
)

// Outside Windows the window manager owns stacking and taskbar state; the
// flags are tracked on the window and fullscreen covers the display.
func setNativeTopmost(fyne.Window, bool) {}

func setNativeSkipTaskbar(fyne.Window, bool) {}

func setNativeBounds(fyne.Window, display.Display) {}
