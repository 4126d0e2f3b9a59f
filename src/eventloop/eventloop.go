package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"screen-capture-overlay/src/session"
	"screen-capture-overlay/src/singleinstance"
	"screen-capture-overlay/src/worker"
)

// Starter opens the capture overlay. *session.Session satisfies it.
type Starter interface {
	StartCapture(ctx context.Context) error
}

// Indicator reflects whether a capture start is in flight, e.g. the tray menu.
type Indicator interface {
	SetBusy(busy bool)
}

type Options struct {
	// Server receives delegated requests; nil disables delegation.
	Server singleinstance.Server
	// Indicator is optional.
	Indicator Indicator
	// StartTimeout bounds one StartCapture; <=0 selects 30s.
	StartTimeout time.Duration
	// OnError reports failed local (hotkey or tray) starts.
	OnError func(err error)
}

// Loop is the single-threaded coordinator for hotkey, tray and delegated capture requests.
type Loop struct {
	starter Starter
	opts    Options
	pool    *worker.Pool
	busy    bool
	results chan result
	local   chan string
}

type result struct {
	err    error
	target resultTarget
	cancel context.CancelFunc
}

type resultTarget interface {
	OnBusy()
	OnDone(err error)
}

type localTarget struct {
	source  string
	onError func(error)
}

func (t localTarget) OnBusy() {
	log.Printf("EventLoop: %s capture skipped, busy", t.source)
}

func (t localTarget) OnDone(err error) {
	if err == nil {
		return
	}
	log.Printf("EventLoop: %s capture failed: %v", t.source, err)
	if t.onError != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, session.ErrCaptureAborted) {
		t.onError(err)
	}
}

type delegatedTarget struct {
	conn singleinstance.Conn
}

func (t delegatedTarget) OnBusy() {
	_ = t.conn.RespondError(singleinstance.ErrBusy.Error())
	_ = t.conn.Close()
}

func (t delegatedTarget) OnDone(err error) {
	defer t.conn.Close()
	switch {
	case err == nil:
		_ = t.conn.RespondSuccess()
	case errors.Is(err, session.ErrCaptureInProgress):
		_ = t.conn.RespondError(singleinstance.ErrBusy.Error())
	default:
		_ = t.conn.RespondError(err.Error())
	}
}

// New creates a loop around starter.
func New(starter Starter, opts Options) *Loop {
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = 30 * time.Second
	}
	return &Loop{
		starter: starter,
		opts:    opts,
		pool:    worker.New(1),
		results: make(chan result, 1),
		local:   make(chan string, 4),
	}
}

// Trigger posts a local capture request (hotkey, tray). It never blocks; bursts
// beyond the queue are dropped.
func (l *Loop) Trigger(source string) {
	select {
	case l.local <- source:
	default:
		log.Printf("EventLoop: dropping %s trigger, queue full", source)
	}
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if l.opts.Indicator != nil {
		l.opts.Indicator.SetBusy(b)
	}
}

// Run processes requests until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()

	var reqCh chan singleinstance.Conn
	if srv := l.opts.Server; srv != nil {
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start resident server: %w", err)
		}
		defer srv.Close()
		if p := srv.Port(); p > 0 {
			log.Printf("EventLoop: resident listening on 127.0.0.1:%d", p)
		}
		// Accept loop in background to avoid blocking result handling
		reqCh = make(chan singleinstance.Conn, 4)
		go func() {
			for {
				conn, err := srv.Next(ctx)
				if err != nil {
					close(reqCh)
					return
				}
				select {
				case reqCh <- conn:
				case <-ctx.Done():
					_ = conn.Close()
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case source := <-l.local:
			l.startRequest(ctx, localTarget{source: source, onError: l.opts.OnError})
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.startRequest(ctx, delegatedTarget{conn: conn})
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) startRequest(ctx context.Context, target resultTarget) {
	if l.busy {
		target.OnBusy()
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, l.opts.StartTimeout)
	l.setBusy(true)
	submitted := l.pool.Submit(jobCtx, "startCapture", l.starter.StartCapture, func(err error) {
		select {
		case l.results <- result{err: err, target: target, cancel: cancel}:
		case <-ctx.Done():
			cancel()
		}
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		target.OnBusy()
	}
}

func (l *Loop) handleResult(res result) {
	defer func() {
		l.setBusy(false)
		if res.cancel != nil {
			res.cancel()
		}
	}()
	res.target.OnDone(res.err)
}
