package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"screen-capture-overlay/src/capture"
	"screen-capture-overlay/src/display"
	"screen-capture-overlay/src/ipc"
	"screen-capture-overlay/src/lang"
	"screen-capture-overlay/src/messages"
	"screen-capture-overlay/src/overlay"
	"screen-capture-overlay/src/registry"
	"screen-capture-overlay/src/surface"
)

var (
	ErrDestroyed         = errors.New("session destroyed")
	ErrCaptureInProgress = errors.New("capture already in progress")
	ErrCaptureAborted    = errors.New("capture aborted before the overlay was shown")
	ErrReadyTimeout      = errors.New("surface did not become ready")
)

var _ registry.Target = (*Session)(nil)

// DefaultResetTimeout bounds the wait for the surface's reset acknowledgement.
const DefaultResetTimeout = 500 * time.Millisecond

// State is the lifecycle position of a session.
type State int

const (
	StateCreated State = iota
	StateAwaitingReady
	StateCapturing
	StateEditing
	StateEnded
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAwaitingReady:
		return "awaiting-ready"
	case StateCapturing:
		return "capturing"
	case StateEditing:
		return "editing"
	case StateEnded:
		return "ended"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Clipboard receives the composed image of an ok action.
type Clipboard interface {
	WriteImage(png []byte) error
}

// Composer turns the surface's selection into the final image.
type Composer interface {
	Compose(img []byte, bounds messages.Bounds) ([]byte, error)
}

// ComposerFunc adapts a function to Composer.
type ComposerFunc func(img []byte, bounds messages.Bounds) ([]byte, error)

func (f ComposerFunc) Compose(img []byte, bounds messages.Bounds) ([]byte, error) {
	return f(img, bounds)
}

// passthrough uses the surface-provided image as is.
var passthrough = ComposerFunc(func(img []byte, _ messages.Bounds) ([]byte, error) { return img, nil })

type Options struct {
	Logger *log.Logger
	Lang   lang.Lang
	Policy overlay.Policy

	Registry *registry.Registry // defaults to registry.Default()
	Bus      *ipc.Bus           // defaults to ipc.Default()

	Resolver display.Resolver
	Capturer capture.Capturer
	Windows  overlay.WindowFactory
	Platform overlay.Platform // defaults to the running OS
	Surfaces surface.Factory

	Dialog    overlay.SaveDialog
	Clipboard Clipboard
	Composer  Composer

	ResetTimeout time.Duration // defaults to DefaultResetTimeout
	ReadyTimeout time.Duration // 0 waits until ctx is done

	Now func() time.Time
}

// Session is one capture-to-completion controller. It owns a rendering surface
// for its whole life and an overlay window per capture (or across captures
// under the reuse policy).
type Session struct {
	id     string
	opts   Options
	logger *log.Logger

	reg    *registry.Registry
	bus    *ipc.Bus
	bridge *ipc.Bridge
	host   *overlay.Host
	surf   surface.Surface

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	work      sync.WaitGroup

	mu           sync.Mutex
	state        State
	capturing    bool
	aborted      bool
	abortStart   context.CancelFunc
	destroyed    bool
	removeReady  func()
	observers    []observerEntry
	nextObserver uint64
}

// New allocates the surface, arms the ready signal and installs the control
// handlers if no other session has. No window is created until StartCapture.
func New(opts Options) (*Session, error) {
	if opts.Resolver == nil || opts.Capturer == nil || opts.Windows == nil || opts.Surfaces == nil {
		return nil, errors.New("session: Resolver, Capturer, Windows and Surfaces are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Registry == nil {
		opts.Registry = registry.Default()
	}
	if opts.Bus == nil {
		opts.Bus = ipc.Default()
	}
	if opts.Composer == nil {
		opts.Composer = passthrough
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = DefaultResetTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	surf, err := opts.Surfaces.NewSurface()
	if err != nil {
		return nil, fmt.Errorf("failed to create surface: %w", err)
	}

	s := &Session{
		id:     uuid.NewString(),
		opts:   opts,
		logger: opts.Logger,
		reg:    opts.Registry,
		bus:    opts.Bus,
		bridge: ipc.NewBridge(opts.Bus, opts.Registry),
		host:   overlay.NewHost(opts.Windows, opts.Policy, opts.Platform),
		surf:   surf,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.host.OnWindowCreated(func(w overlay.Window) { s.notify(func(o Observer) { o.WindowCreated(w) }) })
	s.host.OnWindowClosed(func(w overlay.Window) { s.notify(func(o Observer) { o.WindowClosed(w) }) })

	remove := s.bus.On(messages.ChannelReady, func(env messages.MessageEnvelope) {
		if env.From == surf.ID() {
			s.markReady()
		}
	})
	s.mu.Lock()
	s.removeReady = remove
	s.state = StateAwaitingReady
	s.mu.Unlock()

	live := s.reg.Acquire()
	s.bridge.Install()
	s.logf("created (surface %s, %s policy, %d live)", surf.ID(), opts.Policy, live)

	if err := surf.Load(surf.Document()); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("failed to load surface document: %w", err)
	}

	if len(opts.Lang) > 0 {
		s.work.Add(1)
		go func() {
			defer s.work.Done()
			if err := s.SetLang(context.Background(), opts.Lang); err != nil && !errors.Is(err, ErrDestroyed) {
				s.logf("setLang: %v", err)
			}
		}()
	}
	return s, nil
}

func (s *Session) logf(format string, args ...any) {
	s.logger.Printf("Session[%s]: "+format, append([]any{s.id[:8]}, args...)...)
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// SurfaceID returns the id of the session's rendering surface.
func (s *Session) SurfaceID() string { return s.surf.ID() }

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	if !s.destroyed {
		s.state = st
	}
	s.mu.Unlock()
}

func (s *Session) isDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

func (s *Session) markReady() {
	s.readyOnce.Do(func() {
		close(s.ready)
		s.dropReadyListener()
		s.logf("surface ready")
	})
}

func (s *Session) dropReadyListener() {
	s.mu.Lock()
	remove := s.removeReady
	s.removeReady = nil
	s.mu.Unlock()
	if remove != nil {
		remove()
	}
}

func (s *Session) waitReady(ctx context.Context) error {
	var timeout <-chan time.Time
	if s.opts.ReadyTimeout > 0 {
		t := time.NewTimer(s.opts.ReadyTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-s.ready:
		return nil
	case <-s.done:
		return ErrDestroyed
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return fmt.Errorf("%w after %s", ErrReadyTimeout, s.opts.ReadyTimeout)
	}
}

// StartCapture makes this the active session, captures the display under the
// pointer while waiting for the surface, then shows the overlay with the image.
// A second call while one is pending fails with ErrCaptureInProgress. An
// EndCapture arriving before the start completes aborts it with ErrCaptureAborted.
func (s *Session) StartCapture(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	switch {
	case s.destroyed:
		s.mu.Unlock()
		return ErrDestroyed
	case s.capturing:
		s.mu.Unlock()
		return ErrCaptureInProgress
	}
	s.capturing = true
	s.aborted = false
	s.abortStart = cancel
	s.state = StateCapturing
	s.mu.Unlock()

	s.logf("startCapture")
	s.reg.Activate(s)

	err := s.startCapture(ctx)

	s.mu.Lock()
	aborted := s.aborted
	s.capturing = false
	s.aborted = false
	s.abortStart = nil
	s.mu.Unlock()

	if aborted {
		s.logf("startCapture aborted by endCapture")
		s.host.End()
		err = ErrCaptureAborted
	}
	if err != nil {
		s.reg.Deactivate(s)
		s.setState(StateEnded)
		return err
	}
	s.setState(StateEditing)
	return nil
}

func (s *Session) startCapture(ctx context.Context) error {
	d, err := s.opts.Resolver.Resolve()
	if err != nil {
		return fmt.Errorf("failed to resolve display: %w", err)
	}

	var res capture.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.opts.Capturer.Capture(gctx, d)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	g.Go(func() error { return s.waitReady(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	if s.isDestroyed() {
		return ErrDestroyed
	}
	s.reset(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.host.Show(d, s.surf); err != nil {
		return err
	}
	if err := s.surf.Send(messages.Capture{Display: d, Image: res.Image}); err != nil {
		return fmt.Errorf("failed to send capture: %w", err)
	}
	return nil
}

// reset asks the surface to drop its edit state and waits for the ack or the
// reset timeout, whichever comes first.
func (s *Session) reset(ctx context.Context) {
	ack := make(chan struct{}, 1)
	remove := s.bus.On(messages.ChannelReset, func(env messages.MessageEnvelope) {
		if env.From != s.surf.ID() {
			return
		}
		select {
		case ack <- struct{}{}:
		default:
		}
	})
	defer remove()

	if err := s.surf.Send(messages.Reset{}); err != nil {
		s.logf("reset: %v", err)
		return
	}

	t := time.NewTimer(s.opts.ResetTimeout)
	defer t.Stop()
	select {
	case <-ack:
	case <-t.C:
		s.logf("reset not acknowledged within %s", s.opts.ResetTimeout)
	case <-ctx.Done():
	case <-s.done:
	}
}

// EndCapture resets the surface, gives up the active slot and hides or
// destroys the window. Without a window only the first two happen. A start
// still in progress is aborted and cleans up after itself.
func (s *Session) EndCapture(ctx context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	if s.capturing {
		s.aborted = true
		abort := s.abortStart
		s.mu.Unlock()
		s.logf("endCapture while starting, aborting start")
		if abort != nil {
			abort()
		}
		return nil
	}
	s.mu.Unlock()

	s.logf("endCapture")
	s.reset(ctx)
	s.reg.Deactivate(s)
	s.host.End()
	s.setState(StateEnded)
	return nil
}

// SetLang pushes a language patch to the surface once it is ready.
func (s *Session) SetLang(ctx context.Context, l lang.Lang) error {
	if s.isDestroyed() {
		return ErrDestroyed
	}
	if err := s.waitReady(ctx); err != nil {
		return err
	}
	return s.surf.Send(messages.SetLang{Lang: l})
}

// Destroy releases the surface and window and, for the last live session,
// uninstalls the control handlers and resets the shared state. Idempotent.
func (s *Session) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.state = StateDestroyed
	close(s.done)
	s.mu.Unlock()

	s.dropReadyListener()
	live := s.reg.Release()
	s.reg.Deactivate(s)

	if !s.surf.IsDestroyed() {
		if w := s.host.Window(); w != nil {
			w.Detach(s.surf)
		}
		s.surf.Destroy()
	}
	s.host.Destroy()
	s.clearObservers()

	if live == 0 {
		s.bridge.Uninstall()
		s.reg.ResetShared()
	}
	s.logf("destroyed (%d live)", live)
}
