package surface

import (
	"errors"

	"screen-capture-overlay/src/messages"
	"screen-capture-overlay/src/overlay"
)

var (
	ErrDestroyed        = errors.New("surface destroyed")
	ErrNavigationDenied = errors.New("navigation outside the surface document denied")
)

// Surface is an isolated rendering context hosted by an overlay window. It talks
// to the controller only through messages: Send delivers controller -> surface
// messages, and the surface emits its own on the bus with its ID as sender.
type Surface interface {
	overlay.Content

	// Document is the only URL the surface may load.
	Document() string
	Load(url string) error
	Send(msg messages.Message) error
	Destroy()
	IsDestroyed() bool
}

// Factory creates surfaces bound to a bus.
type Factory interface {
	NewSurface() (Surface, error)
}
