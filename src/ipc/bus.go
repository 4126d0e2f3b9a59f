package ipc

import (
	"log"
	"sync"

	"screen-capture-overlay/src/messages"
)

// Handler receives messages emitted on a channel.
type Handler func(env messages.MessageEnvelope)

type subscription struct {
	id      uint64
	handler Handler
	once    bool
}

// Bus is the process-wide channel registrar between the controller and its
// rendering surfaces. Handlers run synchronously on the emitting goroutine.
type Bus struct {
	handlers    map[string][]*subscription
	nextID      uint64
	mu          sync.RWMutex
	logMessages bool
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		handlers:    make(map[string][]*subscription),
		logMessages: true,
	}
}

var defaultBus = NewBus()

// Default returns the process-wide bus.
func Default() *Bus { return defaultBus }

// On registers h for every message on channel. The returned func removes it.
func (b *Bus) On(channel string, h Handler) func() {
	return b.add(channel, h, false)
}

// Once registers h for the next message on channel only.
func (b *Bus) Once(channel string, h Handler) func() {
	return b.add(channel, h, true)
}

func (b *Bus) add(channel string, h Handler, once bool) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[channel] = append(b.handlers[channel], &subscription{id: id, handler: h, once: once})
	return func() { b.remove(channel, id) }
}

func (b *Bus) remove(channel string, id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[channel]
	for i, s := range subs {
		if s.id == id {
			b.handlers[channel] = append(subs[:i:i], subs[i+1:]...)
			if len(b.handlers[channel]) == 0 {
				delete(b.handlers, channel)
			}
			return true
		}
	}
	return false
}

// RemoveAllListeners drops every handler on channel.
func (b *Bus) RemoveAllListeners(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, channel)
}

// ListenerCount returns the number of handlers on channel.
func (b *Bus) ListenerCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[channel])
}

// Emit delivers env to the handlers registered on its channel and returns how many ran.
// Handlers may add or remove subscriptions while being called.
func (b *Bus) Emit(env messages.MessageEnvelope) int {
	if env.Message == nil {
		return 0
	}
	channel := env.Message.Type()

	b.mu.RLock()
	subs := append([]*subscription(nil), b.handlers[channel]...)
	logMessages := b.logMessages
	b.mu.RUnlock()

	if logMessages {
		log.Printf("Bus: %s -> controller: %s (%d handlers)", env.From, channel, len(subs))
	}

	delivered := 0
	for _, s := range subs {
		// a once-handler is claimed by whoever removes it first
		if s.once && !b.remove(channel, s.id) {
			continue
		}
		s.handler(env)
		delivered++
	}
	return delivered
}

// SetMessageLogging enables or disables message logging
func (b *Bus) SetMessageLogging(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logMessages = enabled
}
