//go:build windows

package display

import (
	"golang.org/x/sys/windows"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	procGetDpiForSystem = user32.NewProc("GetDpiForSystem")
)

// scaleFactor reads the system DPI (Windows 10 1607+). Older systems report 1.
func scaleFactor() float64 {
	if err := procGetDpiForSystem.Find(); err != nil {
		return 1
	}
	dpi, _, _ := procGetDpiForSystem.Call()
	if dpi == 0 {
		return 1
	}
	return float64(dpi) / 96.0
}
