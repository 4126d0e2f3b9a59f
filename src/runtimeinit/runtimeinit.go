package runtimeinit

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"fyne.io/fyne/v2"

	"screen-capture-overlay/src/capture"
	"screen-capture-overlay/src/clipboard"
	"screen-capture-overlay/src/config"
	"screen-capture-overlay/src/display"
	"screen-capture-overlay/src/ipc"
	"screen-capture-overlay/src/lang"
	"screen-capture-overlay/src/notification"
	"screen-capture-overlay/src/overlay"
	"screen-capture-overlay/src/registry"
	"screen-capture-overlay/src/save"
	"screen-capture-overlay/src/session"
	"screen-capture-overlay/src/surface"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
}

// Runtime is the validated configuration shared by the resident and standalone modes.
type Runtime struct {
	Config   *config.Config
	Policy   overlay.Policy
	Lang     lang.Lang
	Registry *registry.Registry // shared by every session, save debounce from config
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	policy, err := overlay.ParsePolicy(cfg.WindowPolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.WindowPolicyEnvVar, err)
	}

	rt := &Runtime{
		Config:   cfg,
		Policy:   policy,
		Registry: newRegistry(cfg),
	}
	if cfg.LangFile != "" {
		l, err := lang.Load(cfg.LangFile)
		if err != nil {
			return nil, err
		}
		rt.Lang = l
	}

	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	return rt, nil
}

// newRegistry builds the process-wide session registry. The save debounce is
// fixed here, once, for every session sharing it.
func newRegistry(cfg *config.Config) *registry.Registry {
	return registry.New(save.NewCoordinator(cfg.SaveDebounce))
}

// Assembly is a session together with the resources created for it.
type Assembly struct {
	Session *session.Session
	server  *surface.Server
	remove  func()
}

// Close destroys the session and stops the surface server, if any.
func (a *Assembly) Close() {
	if a.remove != nil {
		a.remove()
	}
	a.Session.Destroy()
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			log.Printf("Runtime: surface server shutdown: %v", err)
		}
	}
}

// NewSession wires the production collaborators: screen capture, fyne
// windows and dialogs, the configured surface and the system clipboard.
func (rt *Runtime) NewSession(app fyne.App, pointer display.PointerFunc, n notification.Notifier) (*Assembly, error) {
	cfg := rt.Config
	bus := ipc.Default()
	a := &Assembly{}

	var surfaces surface.Factory = surface.CanvasFactory{Bus: bus}
	if cfg.Surface == config.SurfaceRemote {
		a.server = surface.NewServer(bus, cfg.SurfacePort)
		if err := a.server.Start(); err != nil {
			return nil, err
		}
		surfaces = a.server
	}

	s, err := session.New(session.Options{
		Lang:         rt.Lang,
		Policy:       rt.Policy,
		Registry:     rt.Registry,
		Bus:          bus,
		Resolver:     display.NewScreenResolver(pointer),
		Capturer:     capture.NewProvider(),
		Windows:      overlay.FyneFactory{App: app},
		Surfaces:     surfaces,
		Dialog:       overlay.FyneSaveDialog{Dir: cfg.SaveDir},
		Clipboard:    clipboard.System{},
		ResetTimeout: cfg.ResetTimeout,
		ReadyTimeout: cfg.ReadyTimeout,
	})
	if err != nil {
		if a.server != nil {
			_ = a.server.Shutdown(context.Background())
		}
		return nil, err
	}
	a.Session = s
	a.remove = s.Observe(session.Hooks{
		OnAfterSave: func(r session.Result, success bool) {
			notification.SaveResult(n, r.Path, success)
		},
	})

	if a.server != nil {
		openRenderer(app, a.server, s)
	}
	return a, nil
}

// openRenderer points the default browser at the remote surface document.
func openRenderer(app fyne.App, srv *surface.Server, s *session.Session) {
	doc := srv.DocumentURL(s.SurfaceID())
	log.Printf("Runtime: remote surface document at %s", doc)
	u, err := url.Parse(doc)
	if err != nil || app == nil {
		return
	}
	if err := app.OpenURL(u); err != nil {
		log.Printf("Runtime: failed to open renderer: %v", err)
	}
}
