//go:build !windows

package display

// kbinani/screenshot reports physical pixels on these platforms without a scale hint.
func scaleFactor() float64 { return 1 }
