package session

import (
	"screen-capture-overlay/src/messages"
	"screen-capture-overlay/src/overlay"
)

// Decision is an observer's answer to a cancellable notification.
type Decision int

const (
	Proceed Decision = iota
	Suppressed
)

func (d Decision) String() string {
	if d == Suppressed {
		return "suppressed"
	}
	return "proceed"
}

// Result is the payload of ok/save notifications.
type Result struct {
	Image  []byte // PNG
	Bounds messages.Bounds
	Path   string // set on AfterSave when the file was written
}

// Observer receives a session's notifications. Each registered observer gets
// every notification once; a single Suppressed vetoes the default action.
type Observer interface {
	WindowCreated(w overlay.Window)
	WindowClosed(w overlay.Window)
	Ok(r Result) Decision
	Cancel() Decision
	Save(r Result) Decision
	AfterSave(r Result, success bool)
}

// Hooks adapts optional callbacks to Observer. Nil callbacks proceed.
type Hooks struct {
	OnWindowCreated func(w overlay.Window)
	OnWindowClosed  func(w overlay.Window)
	OnOk            func(r Result) Decision
	OnCancel        func() Decision
	OnSave          func(r Result) Decision
	OnAfterSave     func(r Result, success bool)
}

func (h Hooks) WindowCreated(w overlay.Window) {
	if h.OnWindowCreated != nil {
		h.OnWindowCreated(w)
	}
}

func (h Hooks) WindowClosed(w overlay.Window) {
	if h.OnWindowClosed != nil {
		h.OnWindowClosed(w)
	}
}

func (h Hooks) Ok(r Result) Decision {
	if h.OnOk == nil {
		return Proceed
	}
	return h.OnOk(r)
}

func (h Hooks) Cancel() Decision {
	if h.OnCancel == nil {
		return Proceed
	}
	return h.OnCancel()
}

func (h Hooks) Save(r Result) Decision {
	if h.OnSave == nil {
		return Proceed
	}
	return h.OnSave(r)
}

func (h Hooks) AfterSave(r Result, success bool) {
	if h.OnAfterSave != nil {
		h.OnAfterSave(r, success)
	}
}

type observerEntry struct {
	id  uint64
	obs Observer
}

// Observe registers o and returns a func that removes it.
func (s *Session) Observe(o Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextObserver++
	id := s.nextObserver
	s.observers = append(s.observers, observerEntry{id: id, obs: o})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.observers {
			if e.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) snapshotObservers() []Observer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Observer, len(s.observers))
	for i, e := range s.observers {
		out[i] = e.obs
	}
	return out
}

// decide delivers a cancellable notification to every observer.
func (s *Session) decide(fn func(Observer) Decision) Decision {
	d := Proceed
	for _, o := range s.snapshotObservers() {
		if fn(o) == Suppressed {
			d = Suppressed
		}
	}
	return d
}

func (s *Session) notify(fn func(Observer)) {
	for _, o := range s.snapshotObservers() {
		fn(o)
	}
}

func (s *Session) clearObservers() {
	s.mu.Lock()
	s.observers = nil
	s.mu.Unlock()
}
