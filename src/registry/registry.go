package registry

import (
	"log"
	"sync"

	"screen-capture-overlay/src/messages"
	"screen-capture-overlay/src/save"
)

// Target receives control messages while it is the active session.
type Target interface {
	ID() string
	HandleOk(msg messages.Ok)
	HandleCancel(msg messages.Cancel)
	HandleSave(msg messages.Save)
}

// Registry holds the process-wide session state: the active session, the live
// session count, whether the IPC bridge is installed and the save coordinator.
// Every increment/activation has a matching teardown path in the session.
type Registry struct {
	mu        sync.Mutex
	active    Target
	live      int
	installed bool
	saver     *save.Coordinator
}

// New creates a registry around saver. A nil saver gets a default coordinator.
func New(saver *save.Coordinator) *Registry {
	if saver == nil {
		saver = save.NewCoordinator(save.DefaultDebounce)
	}
	return &Registry{saver: saver}
}

var defaultRegistry = New(nil)

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Acquire records a newly constructed session and returns the live count.
func (r *Registry) Acquire() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live++
	return r.live
}

// Release records a destroyed session and returns the remaining live count (never negative).
func (r *Registry) Release() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live > 0 {
		r.live--
	}
	return r.live
}

// Live returns the number of live sessions.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Activate makes t the only session receiving control messages, displacing any previous one.
func (r *Registry) Activate(t Target) {
	r.mu.Lock()
	prev := r.active
	r.active = t
	r.mu.Unlock()

	if prev != nil && prev != t {
		log.Printf("Registry: session %s displaced by %s", prev.ID(), t.ID())
	}
}

// Deactivate clears the active session if t holds it and reports whether it did.
func (r *Registry) Deactivate(t Target) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != t {
		return false
	}
	r.active = nil
	return true
}

// Active returns the active session or nil.
func (r *Registry) Active() Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// MarkInstalled flips the bridge-installed flag on and reports whether this call did it.
func (r *Registry) MarkInstalled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installed {
		return false
	}
	r.installed = true
	return true
}

// ClearInstalled flips the bridge-installed flag off.
func (r *Registry) ClearInstalled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.installed = false
}

// Installed reports whether the bridge handlers are installed.
func (r *Registry) Installed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.installed
}

// Saver returns the shared save coordinator.
func (r *Registry) Saver() *save.Coordinator { return r.saver }

// ResetShared clears the active pointer and the save-in-flight state. Called
// when the last live session is destroyed.
func (r *Registry) ResetShared() {
	r.mu.Lock()
	r.active = nil
	r.mu.Unlock()
	r.saver.Reset()
}
