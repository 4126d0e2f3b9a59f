package tray

import (
	_ "embed"

	"fyne.io/fyne/v2"
)

//go:embed icon.svg
var iconSVG []byte

// Icon is the tray and window icon.
var Icon fyne.Resource = fyne.NewStaticResource("screen-capture-overlay.svg", iconSVG)
