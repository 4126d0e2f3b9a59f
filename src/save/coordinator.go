package save

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// DefaultDebounce is the settling delay that coalesces duplicate save triggers
// produced by a single user action.
const DefaultDebounce = 200 * time.Millisecond

// State is the coordinator's position in idle -> debouncing -> committing -> idle.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Job is the side-effecting part of a save: hook, dialog, write, notification.
type Job interface {
	Commit(ctx context.Context)
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context)

func (f JobFunc) Commit(ctx context.Context) { f(ctx) }

// Coordinator serializes save flows so that at most one dialog/write is in flight.
// Triggers arriving while a save is debouncing or committing are dropped, not queued.
type Coordinator struct {
	mu       sync.Mutex
	state    State
	latest   uint64 // last issued task id
	owner    uint64 // task currently holding the state
	debounce time.Duration
	wg       sync.WaitGroup
}

// NewCoordinator creates an idle coordinator. debounce<=0 selects DefaultDebounce.
func NewCoordinator(debounce time.Duration) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Coordinator{debounce: debounce}
}

// Debounce returns the settling delay applied to every trigger.
func (c *Coordinator) Debounce() time.Duration { return c.debounce }

// Trigger starts a save task unless one is already in flight. It returns the
// issued task id and whether the trigger was accepted.
func (c *Coordinator) Trigger(job Job) (uint64, bool) {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		log.Printf("SaveCoordinator: save already %s, ignoring duplicate trigger", state)
		return 0, false
	}
	c.latest++
	id := c.latest
	c.owner = id
	c.state = StateDebouncing
	d := c.debounce
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(id, d, job)
	return id, true
}

func (c *Coordinator) run(id uint64, d time.Duration, job Job) {
	defer c.wg.Done()

	timer := time.NewTimer(d)
	<-timer.C

	c.mu.Lock()
	if c.latest != id {
		log.Printf("SaveCoordinator: task %d superseded by %d, abandoning", id, c.latest)
		c.finishLocked(id)
		c.mu.Unlock()
		return
	}
	c.state = StateCommitting
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("SaveCoordinator: task %d panicked: %v", id, r)
		}
		c.mu.Lock()
		c.finishLocked(id)
		c.mu.Unlock()
	}()

	log.Printf("SaveCoordinator: committing task %d", id)
	job.Commit(context.Background())
}

// finishLocked returns to idle only if id still owns the state; a Reset may have
// handed it to a newer task in the meantime.
func (c *Coordinator) finishLocked(id uint64) {
	if c.owner == id {
		c.owner = 0
		c.state = StateIdle
	}
}

// Reset returns the coordinator to idle and supersedes any task still debouncing.
// A task already committing runs to completion.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest++
	c.owner = 0
	c.state = StateIdle
}

// State reports the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every accepted task has finished or been abandoned.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// FileName derives the default file name from the capture time: YYYYMMDDHHmmssSSS.png
func FileName(t time.Time) string {
	return fmt.Sprintf("%s%03d.png", t.Format("20060102150405"), t.Nanosecond()/int(time.Millisecond))
}

var writeFile = os.WriteFile

// WriteFile persists the image bytes at path. On failure an empty file left
// at path (the save dialog creates the destination up front) is removed.
func WriteFile(path string, data []byte) error {
	if err := writeFile(path, data, 0o644); err != nil {
		removeEmpty(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func removeEmpty(path string) {
	fi, err := os.Lstat(path)
	if err != nil || !fi.Mode().IsRegular() || fi.Size() != 0 {
		return
	}
	if err := os.Remove(path); err != nil {
		log.Printf("SaveCoordinator: failed to remove empty %s: %v", path, err)
	}
}
