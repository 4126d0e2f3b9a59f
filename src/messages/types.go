package messages

import (
	"screen-capture-overlay/src/display"
	"screen-capture-overlay/src/lang"
)

// Message is the base interface for everything crossing the controller/surface boundary.
type Message interface {
	Type() string
}

// Channel names. Reset is used in both directions: the controller asks for a reset
// and the surface acknowledges on the same channel.
const (
	ChannelReady   = "SCREENSHOTS:ready"
	ChannelCapture = "SCREENSHOTS:capture"
	ChannelSetLang = "SCREENSHOTS:setLang"
	ChannelReset   = "SCREENSHOTS:reset"
	ChannelOk      = "SCREENSHOTS:ok"
	ChannelCancel  = "SCREENSHOTS:cancel"
	ChannelSave    = "SCREENSHOTS:save"
	ChannelBounds  = "SCREENSHOTS:bounds"
)

// ControlChannels are the surface -> controller channels routed to the active session.
var ControlChannels = []string{ChannelOk, ChannelCancel, ChannelSave}

// Bounds is a selection rectangle in surface coordinates.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Ready - surface finished loading the document (surface -> controller)
type Ready struct{}

func (m Ready) Type() string { return ChannelReady }

// Capture - screen image for the surface to edit (controller -> surface)
type Capture struct {
	Display display.Display `json:"display"`
	Image   string          `json:"image"` // data URI
}

func (m Capture) Type() string { return ChannelCapture }

// SetLang - language pack patch (controller -> surface)
type SetLang struct {
	Lang lang.Lang `json:"lang"`
}

func (m SetLang) Type() string { return ChannelSetLang }

// Reset - drop edit state (controller -> surface)
type Reset struct{}

func (m Reset) Type() string { return ChannelReset }

// ResetAck - surface finished resetting (surface -> controller)
type ResetAck struct{}

func (m ResetAck) Type() string { return ChannelReset }

// Ok - user confirmed the selection (surface -> controller)
type Ok struct {
	Image  []byte `json:"image,omitempty"` // PNG
	Bounds Bounds `json:"bounds"`
}

func (m Ok) Type() string { return ChannelOk }

// Cancel - user aborted (surface -> controller)
type Cancel struct{}

func (m Cancel) Type() string { return ChannelCancel }

// Save - user asked to save the selection to a file (surface -> controller)
type Save struct {
	Image  []byte `json:"image"` // PNG
	Bounds Bounds `json:"bounds"`
}

func (m Save) Type() string { return ChannelSave }

// SurfaceBounds - size of the surface inside its window (controller -> out-of-process surface)
type SurfaceBounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (m SurfaceBounds) Type() string { return ChannelBounds }

// MessageEnvelope wraps messages with metadata for routing
type MessageEnvelope struct {
	From    string  // Source surface id
	To      string  // Destination ("" for the controller)
	Message Message // The actual message
}
