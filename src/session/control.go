package session

import (
	"context"
	"errors"

	"screen-capture-overlay/src/messages"
	"screen-capture-overlay/src/overlay"
	"screen-capture-overlay/src/save"
)

// Control messages arrive on the bus goroutine; each is handled on its own
// goroutine so the bus is never blocked by a reset wait or a dialog.

// HandleOk composes the result, lets observers veto, copies it to the
// clipboard and ends the capture.
func (s *Session) HandleOk(m messages.Ok) {
	s.async(func() { s.handleOk(m) })
}

// HandleCancel lets observers veto, then ends the capture.
func (s *Session) HandleCancel(messages.Cancel) {
	s.async(s.handleCancel)
}

// HandleSave hands the save to the shared coordinator; duplicate triggers are dropped there.
func (s *Session) HandleSave(m messages.Save) {
	id, ok := s.reg.Saver().Trigger(save.JobFunc(func(ctx context.Context) {
		s.commitSave(ctx, m)
	}))
	if ok {
		s.logf("save task %d scheduled (%d bytes)", id, len(m.Image))
	}
}

func (s *Session) async(fn func()) {
	s.work.Add(1)
	go func() {
		defer s.work.Done()
		fn()
	}()
}

func (s *Session) handleOk(m messages.Ok) {
	img, err := s.opts.Composer.Compose(m.Image, m.Bounds)
	if err != nil {
		s.logf("compose failed, using surface image: %v", err)
		img = m.Image
	}
	r := Result{Image: img, Bounds: m.Bounds}

	if s.decide(func(o Observer) Decision { return o.Ok(r) }) == Suppressed {
		s.logf("ok suppressed by observer")
		return
	}
	if s.opts.Clipboard != nil {
		if err := s.opts.Clipboard.WriteImage(img); err != nil {
			s.logf("clipboard: %v", err)
		}
	}
	s.end()
}

func (s *Session) handleCancel() {
	if s.decide(func(o Observer) Decision { return o.Cancel() }) == Suppressed {
		s.logf("cancel suppressed by observer")
		return
	}
	s.end()
}

func (s *Session) end() {
	if err := s.EndCapture(context.Background()); err != nil && !errors.Is(err, ErrDestroyed) {
		s.logf("endCapture: %v", err)
	}
}

// commitSave runs once the save trigger has settled: observer veto, dialog,
// file write, AfterSave. Every path past the dialog ends the capture unless the
// window disappeared while the dialog was open.
func (s *Session) commitSave(ctx context.Context, m messages.Save) {
	r := Result{Image: m.Image, Bounds: m.Bounds}

	if s.decide(func(o Observer) Decision { return o.Save(r) }) == Suppressed {
		s.logf("save suppressed by observer")
		return
	}
	w := s.host.Window()
	if w == nil {
		s.logf("save: no window")
		return
	}

	name := save.FileName(s.opts.Now())
	wasOnTop := w.IsAlwaysOnTop()
	if wasOnTop {
		w.SetAlwaysOnTop(false)
	}
	w.SetSkipTaskbar(true)

	path, err := s.showDialog(ctx, w, name)

	if w.IsDestroyed() || s.host.Window() != w {
		s.logf("save: window gone while the dialog was open")
		s.afterSave(r, false)
		return
	}
	if wasOnTop {
		w.SetAlwaysOnTop(true)
	}
	w.SetSkipTaskbar(true)

	switch {
	case err != nil:
		s.logf("save dialog: %v", err)
		s.afterSave(r, false)
	case path == "":
		s.logf("save dialog cancelled")
		s.afterSave(r, false)
	default:
		if err := save.WriteFile(path, m.Image); err != nil {
			s.logf("save: %v", err)
			s.afterSave(r, false)
			break
		}
		s.logf("saved %s", path)
		r.Path = path
		s.afterSave(r, true)
	}
	s.end()
}

func (s *Session) showDialog(ctx context.Context, w overlay.Window, name string) (string, error) {
	if s.opts.Dialog == nil {
		return "", errors.New("no save dialog configured")
	}
	return s.opts.Dialog.ShowSave(ctx, w, name)
}

func (s *Session) afterSave(r Result, success bool) {
	s.notify(func(o Observer) { o.AfterSave(r, success) })
}
