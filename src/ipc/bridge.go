package ipc

import (
	"log"

	"screen-capture-overlay/src/messages"
	"screen-capture-overlay/src/registry"
)

// Bridge installs the single set of control-channel handlers for the process and
// routes each message to whichever session is active at delivery time.
type Bridge struct {
	bus *Bus
	reg *registry.Registry
}

// NewBridge binds a bridge to a bus and a registry.
func NewBridge(bus *Bus, reg *registry.Registry) *Bridge {
	return &Bridge{bus: bus, reg: reg}
}

// Install registers the ok/cancel/save handlers unless already installed.
func (b *Bridge) Install() {
	if !b.reg.MarkInstalled() {
		return
	}
	for _, ch := range messages.ControlChannels {
		b.bus.RemoveAllListeners(ch)
	}
	b.bus.On(messages.ChannelOk, b.route)
	b.bus.On(messages.ChannelCancel, b.route)
	b.bus.On(messages.ChannelSave, b.route)
	log.Printf("Bridge: control handlers installed")
}

// Uninstall removes the control handlers and clears the installed flag.
func (b *Bridge) Uninstall() {
	for _, ch := range messages.ControlChannels {
		b.bus.RemoveAllListeners(ch)
	}
	b.reg.ClearInstalled()
	log.Printf("Bridge: control handlers removed")
}

func (b *Bridge) route(env messages.MessageEnvelope) {
	target := b.reg.Active()
	if target == nil {
		log.Printf("Bridge: no active session, dropping %s", env.Message.Type())
		return
	}

	switch m := env.Message.(type) {
	case messages.Ok:
		target.HandleOk(m)
	case messages.Cancel:
		target.HandleCancel(m)
	case messages.Save:
		target.HandleSave(m)
	default:
		log.Printf("Bridge: unexpected %T on %s", env.Message, env.Message.Type())
	}
}
